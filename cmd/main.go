package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"ai-resume-matcher/internal/api/handler"
	"ai-resume-matcher/internal/api/router"
	"ai-resume-matcher/internal/config"
	appLogger "ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/processor"
	"ai-resume-matcher/internal/storage"
	"ai-resume-matcher/internal/tracing"
)

func main() {
	var configPath, initConfig string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，留空时自动查找 config.yaml")
	pflag.StringVar(&initConfig, "init-config", "", "把默认配置写到该路径后退出，文件已存在时不覆盖")
	pflag.Parse()

	if initConfig != "" {
		if err := config.CreateSampleConfig(initConfig); err != nil {
			appLogger.Fatal().Err(err).Msg("写入默认配置失败")
		}
		appLogger.Info().Str("path", initConfig).Msg("默认配置已写入")
		return
	}

	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("加载配置失败")
	}
	initLogger(cfg.Logger)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		Insecure:     cfg.Tracing.Insecure,
		ServiceName:  cfg.Tracing.ServiceName,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()

	metrics := processor.NewMetrics()
	svc, err := processor.NewAnalysisServiceFromConfig(ctx, cfg, storageManager, metrics)
	if err != nil {
		glog.Fatalf("初始化分析服务失败: %v", err)
	}
	glog.Infof("分析服务初始化成功，LLM: %s，Embedding: %s", cfg.LLM.Provider, cfg.Embedding.Provider)

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(maxBodySize(cfg.Server.MaxUploadMB)),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(requestTimeout(config.GetDuration(cfg.Server.RequestTimeout, 120*time.Second)))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		glog.CtxInfof(c, "%s %s status=%d cost=%s", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start))
	})

	var metricsHandler http.Handler
	if cfg.Server.EnableMetrics {
		metricsHandler = metrics.Handler()
	}
	router.RegisterRoutes(h, handler.NewAnalysisHandler(svc, cfg.Server.MaxUploadMB), metricsHandler)

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Warnf("关闭链路追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化全局 zerolog，并让 Hertz 的 hlog 复用同一个实例
func initLogger(cfg config.LoggerConfig) {
	appLogger.Init(appLogger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		TimeFormat:   cfg.TimeFormat,
		ReportCaller: cfg.ReportCaller,
	})
	glog.SetLogger(hertzadapter.From(appLogger.Logger))
	if cfg.Level == "debug" || cfg.Level == "trace" {
		glog.SetLevel(glog.LevelDebug)
	} else {
		glog.SetLevel(glog.LevelInfo)
	}
}

// requestTimeout 给每个请求的上下文加上超时，LLM 与抓取调用都会继承
func requestTimeout(d time.Duration) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		c, cancel := context.WithTimeout(c, d)
		defer cancel()
		ctx.Next(c)
	}
}

// maxBodySize 在上传上限之外留出两份文件和表单字段的余量
func maxBodySize(maxUploadMB int) int {
	if maxUploadMB <= 0 {
		maxUploadMB = int(storage.DefaultMaxObjectBytes >> 20)
	}
	return (2*maxUploadMB + 1) << 20
}
