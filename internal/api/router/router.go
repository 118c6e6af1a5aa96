package router

import (
	"net/http"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"

	"ai-resume-matcher/internal/api/handler"
)

// RegisterRoutes 注册 API 路由。metrics 为 nil 时不暴露 /metrics
func RegisterRoutes(h *server.Hertz, analysisHandler *handler.AnalysisHandler, metrics http.Handler) {
	h.GET("/health", analysisHandler.HandleHealth)
	if metrics != nil {
		h.GET("/metrics", adaptor.HertzHandler(metrics))
	}

	api := h.Group("/api/v1")
	api.POST("/analyze", analysisHandler.HandleAnalyze)
	api.POST("/retrieve", analysisHandler.HandleRetrieve)
	api.POST("/ask", analysisHandler.HandleAsk)
	api.POST("/jd/fetch", analysisHandler.HandleFetchJD)
}
