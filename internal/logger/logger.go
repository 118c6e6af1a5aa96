// Package logger 提供全局 zerolog 日志实例及初始化逻辑
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger 全局日志实例，Init 之前为 zerolog 默认配置
var Logger = log.Logger

// Config 日志配置
type Config struct {
	Level        string `json:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal disabled"` // 日志级别
	Format       string `json:"format" yaml:"format" validate:"omitempty,oneof=json pretty"`                            // json 或 pretty
	TimeFormat   string `json:"time_format" yaml:"time_format"`                                                         // 时间戳格式
	ReportCaller bool   `json:"report_caller" yaml:"report_caller"`                                                     // 是否输出调用位置
}

// Init 按配置重建全局日志实例，输出到标准输出
func Init(config Config) {
	InitWithWriter(config, os.Stdout)
}

// InitWithWriter 与 Init 相同，但允许指定输出目标（测试中使用）
func InitWithWriter(config Config, out io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	output := out
	if config.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: config.TimeFormat,
		}
	}

	ctxLogger := zerolog.New(output).Level(level).With().Timestamp()
	if config.ReportCaller {
		ctxLogger = ctxLogger.Caller()
	}

	Logger = ctxLogger.Logger()
	log.Logger = Logger
}

// Component 返回带 component 字段的子日志实例
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func Debug() *zerolog.Event { return Logger.Debug() }

func Info() *zerolog.Event { return Logger.Info() }

func Warn() *zerolog.Event { return Logger.Warn() }

func Error() *zerolog.Event { return Logger.Error() }

// Fatal 记录后进程退出
func Fatal() *zerolog.Event { return Logger.Fatal() }

// Ctx 从上下文中取出日志实例；上下文中没有时返回全局实例
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &Logger
}

// WithContext 将全局日志实例放入上下文
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}

// WithSession 将带会话 ID 的子日志实例放入上下文
func WithSession(ctx context.Context, sessionID string) context.Context {
	l := Logger.With().Str("session_id", sessionID).Logger()
	return l.WithContext(ctx)
}
