package service

import (
	"log/slog"

	"github.com/devkit-ai/devkit-ai/app/core"
	"github.com/devkit-ai/devkit-ai/app/response"
	"github.com/devkit-ai/devkit-ai/cmd/service/handler"
	"github.com/devkit-ai/devkit-ai/cmd/service/middleware"
	"github.com/devkit-ai/devkit-ai/pkg/mcp"
	"github.com/devkit-ai/devkit-ai/pkg/metrics"
)

func serve(core *core.Core) {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	addr := core.Cfg().ListenAddr()
	slog.Info("http service started", slog.String("addr", addr))
	core.HttpEngine().Run(addr)
}

func setupHttpRouter(s *handler.HttpSrv) {
	s.Engine.LoadHTMLGlob("./tpls/*")

	s.Engine.Use(middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Cors)
	s.Engine.Use(middleware.UseMetrics(s.Core))

	// 平台探活直接读这些 JSON，不走统一响应结构
	s.Engine.GET("/", s.Index)
	s.Engine.GET("/health", s.Health)
	s.Engine.GET("/tools", s.Tools)
	s.Engine.GET("/skills", s.Skills)
	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	// MCP streamable 端点，POST 处理 JSON-RPC 消息，GET 建立 SSE 流
	mcpHandler := mcp.MCPStreamableHandler(s.Core)
	s.Engine.POST("/mcp", mcpHandler)
	s.Engine.GET("/mcp", mcpHandler)

	s.Engine.GET("/chat", s.ChatPage)
	apiV1 := s.Engine.Group("/api/v1")
	{
		apiV1.POST("/chat", s.Chat)
	}
}
