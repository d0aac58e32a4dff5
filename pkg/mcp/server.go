package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devkit-ai/devkit-ai/pkg/mcp/tools"
	"github.com/devkit-ai/devkit-ai/pkg/skills"
)

// MCPServer MCP 服务器
type MCPServer struct {
	server  *mcp.Server
	library *skills.Library
}

// NewMCPServer 创建新的 MCP 服务器
func NewMCPServer(library *skills.Library) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ai-dev-kit-mcp",
		Title:   "AI Dev Kit MCP Server",
		Version: "v0.1.0",
	}, nil)

	// 注册所有工具
	tools.RegisterTools(server, library)

	return &MCPServer{
		server:  server,
		library: library,
	}
}
