package constants

import "time"

const (
	// DefaultChunkSize 默认分块长度（字符）
	DefaultChunkSize = 1000
	// DefaultChunkOverlap 默认相邻分块重叠长度（字符）
	DefaultChunkOverlap = 200
	// DefaultTopK 默认检索条数
	DefaultTopK = 4

	// JDFetchTimeout 抓取 JD 页面的超时时间
	JDFetchTimeout = 10 * time.Second
	// JDMaxChars 抓取的 JD 文本保留的最大字符数
	JDMaxChars = 5000
	// JDCacheDuration JD 文本缓存时长
	JDCacheDuration = 24 * time.Hour
	// EmbeddingCacheDuration 向量缓存时长
	EmbeddingCacheDuration = 7 * 24 * time.Hour

	// DefaultLLMModel 默认对话模型（Groq OpenAI 兼容接口）
	DefaultLLMModel = "llama3-8b-8192"
	// DefaultLLMBaseURL Groq 的 OpenAI 兼容地址
	DefaultLLMBaseURL = "https://api.groq.com/openai/v1"
	// DefaultEmbeddingModel 默认向量模型
	DefaultEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"
	// DefaultEmbeddingDimensions all-MiniLM-L6-v2 的输出维度
	DefaultEmbeddingDimensions = 384
)
