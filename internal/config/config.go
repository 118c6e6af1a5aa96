package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ai-resume-matcher/internal/constants"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logger    LoggerConfig    `yaml:"logger"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Document  DocumentConfig  `yaml:"document"`
	JDFetch   JDFetchConfig   `yaml:"jd_fetch"`
	Redis     RedisConfig     `yaml:"redis"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Address         string `yaml:"address" validate:"required"` // 例如 ":8080"
	MaxUploadMB     int    `yaml:"max_upload_mb" validate:"gte=0"`
	RequestTimeout  string `yaml:"request_timeout"`  // 单次分析的超时，例如 "120s"
	ShutdownTimeout string `yaml:"shutdown_timeout"` // 优雅关闭等待时间
	EnableMetrics   bool   `yaml:"enable_metrics"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal disabled"`
	Format       string `yaml:"format" validate:"omitempty,oneof=json pretty"`
	TimeFormat   string `yaml:"time_format"`
	ReportCaller bool   `yaml:"report_caller"`
}

// LLMConfig 对话模型配置
type LLMConfig struct {
	Provider     string  `yaml:"provider" validate:"oneof=openai gemini mock"` // openai 表示任意 OpenAI 兼容接口（默认 Groq）
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url"`
	Model        string  `yaml:"model" validate:"required_unless=Provider mock"`
	Temperature  float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens    int     `yaml:"max_tokens" validate:"gte=0"`
	Timeout      string  `yaml:"timeout"`
	MaxAttempts  int     `yaml:"max_attempts" validate:"gte=1,lte=10"` // 1 表示不重试
	RetryBackoff string  `yaml:"retry_backoff"`
	MockResponse string  `yaml:"mock_response,omitempty"` // provider=mock 时固定返回的内容
}

// EmbeddingConfig 向量模型配置
type EmbeddingConfig struct {
	Provider    string `yaml:"provider" validate:"oneof=openai gemini hash"` // 默认 hash：离线特征哈希，忽略 model
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions" validate:"gte=0"`
	Timeout     string `yaml:"timeout"`
	MaxAttempts int    `yaml:"max_attempts" validate:"gte=1,lte=10"`
	Cache       string `yaml:"cache" validate:"oneof=none memory redis"` // 向量缓存位置
	CacheSize   int    `yaml:"cache_size" validate:"gte=0"`               // memory 缓存条数
	CacheTTL    string `yaml:"cache_ttl"`                                 // redis 缓存时长
}

// ChunkingConfig 分块参数，必须满足 0 <= overlap < size
type ChunkingConfig struct {
	Size    int `yaml:"size" validate:"gt=0"`
	Overlap int `yaml:"overlap" validate:"gte=0,ltfield=Size"`
}

// RetrievalConfig 检索配置
type RetrievalConfig struct {
	DefaultTopK int    `yaml:"default_top_k" validate:"gt=0"`
	MaxTopK     int    `yaml:"max_top_k" validate:"gtefield=DefaultTopK"`
	Metric      string `yaml:"metric" validate:"oneof=cosine l2"`
}

// DocumentConfig 文档加载配置
type DocumentConfig struct {
	PDFBackend   string `yaml:"pdf_backend" validate:"oneof=eino ledongthuc"`
	ParseTimeout string `yaml:"parse_timeout"`
}

// JDFetchConfig 从 URL 抓取 JD 的配置
type JDFetchConfig struct {
	Timeout   string `yaml:"timeout"`
	MaxChars  int    `yaml:"max_chars" validate:"gte=0"`
	StripHTML bool   `yaml:"strip_html"`
	CacheTTL  string `yaml:"cache_ttl"`
}

// RedisConfig Redis 连接配置，Address 为空时不启用
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`

	PoolSize     int `yaml:"pool_size"`      // 连接池大小
	MinIdleConns int `yaml:"min_idle_conns"` // 最小空闲连接数

	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`

	MaxRetries int `yaml:"max_retries"`
}

// MinIOConfig 对象存储配置，Endpoint 为空时不启用
type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UseSSL          bool   `yaml:"useSSL"`
	Bucket          string `yaml:"bucket" validate:"required_with=Endpoint"`
	Location        string `yaml:"location"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" validate:"required_if=Enabled true"`
	Insecure     bool    `yaml:"insecure"`
	ServiceName  string  `yaml:"service_name"`
	SampleRatio  float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置取值
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s 不满足 %s(%s)", fe.Namespace(), fe.Tag(), fe.Param()))
			}
			return fmt.Errorf("配置校验失败: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}

// LoadConfig 读取 YAML 配置，未出现的字段保留默认值，随后应用环境变量并校验。
// configPath 为空时依次查找 config.yaml、../config.yaml 和 ~/.ai-resume-matcher/config.yaml，都不存在则使用默认配置
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = findConfigFile()
	}

	config := DefaultConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func findConfigFile() string {
	searchPaths := []string{"config.yaml", "../config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".ai-resume-matcher", "config.yaml"))
	}
	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ApplyEnv 用环境变量覆盖配置。lookup 通常为 os.LookupEnv
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("环境变量 %s 不是整数: %q", key, v)
		}
		*dst = n
		return nil
	}

	switch c.LLM.Provider {
	case "gemini":
		str("GEMINI_API_KEY", &c.LLM.APIKey)
	case "openai":
		str("OPENAI_API_KEY", &c.LLM.APIKey)
		str("GROQ_API_KEY", &c.LLM.APIKey)
	}
	str("LLM_API_KEY", &c.LLM.APIKey)
	str("LLM_BASE_URL", &c.LLM.BaseURL)
	str("LLM_MODEL", &c.LLM.Model)

	switch c.Embedding.Provider {
	case "gemini":
		str("GEMINI_API_KEY", &c.Embedding.APIKey)
	case "openai":
		str("OPENAI_API_KEY", &c.Embedding.APIKey)
	}
	str("EMBEDDING_API_KEY", &c.Embedding.APIKey)
	str("EMBEDDING_BASE_URL", &c.Embedding.BaseURL)

	str("REDIS_ADDRESS", &c.Redis.Address)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("MINIO_ENDPOINT", &c.MinIO.Endpoint)
	str("MINIO_ACCESS_KEY", &c.MinIO.AccessKeyID)
	str("MINIO_SECRET_KEY", &c.MinIO.SecretAccessKey)
	str("SERVER_ADDRESS", &c.Server.Address)

	if err := num("CHUNK_SIZE", &c.Chunking.Size); err != nil {
		return err
	}
	return num("CHUNK_OVERLAP", &c.Chunking.Overlap)
}

// DefaultConfig 默认配置：Groq llama3-8b-8192、temperature 0、分块 1000/200、检索 4 条
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			MaxUploadMB:     10,
			RequestTimeout:  "120s",
			ShutdownTimeout: "5s",
			EnableMetrics:   true,
		},
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "pretty",
			TimeFormat: "2006-01-02 15:04:05",
		},
		LLM: LLMConfig{
			Provider:     "openai",
			BaseURL:      constants.DefaultLLMBaseURL,
			Model:        constants.DefaultLLMModel,
			Temperature:  0,
			Timeout:      "60s",
			MaxAttempts:  1,
			RetryBackoff: "500ms",
		},
		Embedding: EmbeddingConfig{
			Provider:    "hash",
			Model:       constants.DefaultEmbeddingModel,
			Dimensions:  constants.DefaultEmbeddingDimensions,
			Timeout:     "30s",
			MaxAttempts: 1,
			Cache:       "memory",
			CacheSize:   4096,
			CacheTTL:    "168h",
		},
		Chunking: ChunkingConfig{
			Size:    constants.DefaultChunkSize,
			Overlap: constants.DefaultChunkOverlap,
		},
		Retrieval: RetrievalConfig{
			DefaultTopK: constants.DefaultTopK,
			MaxTopK:     50,
			Metric:      "cosine",
		},
		Document: DocumentConfig{
			PDFBackend:   "eino",
			ParseTimeout: "30s",
		},
		JDFetch: JDFetchConfig{
			Timeout:   "10s",
			MaxChars:  constants.JDMaxChars,
			StripHTML: true,
			CacheTTL:  "24h",
		},
		Redis: RedisConfig{
			PoolSize:            10,
			MinIdleConns:        2,
			DialTimeoutSeconds:  5,
			ReadTimeoutSeconds:  3,
			WriteTimeoutSeconds: 3,
			MaxRetries:          3,
		},
		MinIO: MinIOConfig{
			Bucket: "resume-matcher",
		},
		Tracing: TracingConfig{
			ServiceName: "ai-resume-matcher",
			SampleRatio: 1,
			Insecure:    true,
		},
	}
}

// CreateSampleConfig 把默认配置写成示例文件，已存在时不覆盖
func CreateSampleConfig(filePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("文件 '%s' 已存在，不会覆盖", filePath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("写入示例配置文件 '%s' 失败: %w", filePath, err)
	}
	return nil
}

// GetDuration 解析配置中的时长字符串，为空或非法时返回默认值
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
