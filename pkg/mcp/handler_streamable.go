package mcp

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devkit-ai/devkit-ai/app/core"
)

// MCPStreamableHandler 创建基于 MCP SDK StreamableHTTPHandler 的处理器
// 认证由平台网关完成，这里直接暴露 MCP 能力
func MCPStreamableHandler(appCore *core.Core) gin.HandlerFunc {
	// 创建 MCP Server（只创建一次，所有会话共享）
	mcpServer := NewMCPServer(appCore.Skills())

	// 创建 StreamableHTTPHandler
	streamableHandler := mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			// 每个请求都返回同一个 server 实例
			// SDK 会自动管理会话
			return mcpServer.server
		},
		&mcp.StreamableHTTPOptions{
			// 使用 JSON 响应格式（而不是 SSE）
			JSONResponse: true,

			// Stateless: false 表示保持会话状态
			// SDK 会自动处理 session ID
			Stateless: false,
		},
	)

	slog.Info("MCP Streamable Handler initialized")

	return func(c *gin.Context) {
		slog.Debug("MCP streamable request received",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"session_id", c.Request.Header.Get("Mcp-Session-Id"),
		)

		// SDK 会自动处理：
		// - JSON-RPC 消息解析
		// - 会话管理
		// - 方法路由（initialize, tools/list, tools/call 等）
		// - 响应格式化
		streamableHandler.ServeHTTP(c.Writer, c.Request)
	}
}
