package types

// ServerName 对外暴露的服务名
const ServerName = "ai-dev-kit-mcp"

// MCPEndpoint MCP 协议挂载路径
const MCPEndpoint = "/mcp"

// HealthStatus /health 响应
type HealthStatus struct {
	Status      string `json:"status"`
	Server      string `json:"server"`
	ToolsCount  int    `json:"tools_count"`
	SkillsCount int    `json:"skills_count"`
	MCPEndpoint string `json:"mcp_endpoint"`
}

// ToolBrief 工具目录条目，描述截断到 100 字符
type ToolBrief struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolList /tools 响应
type ToolList struct {
	Tools []ToolBrief `json:"tools"`
	Count int         `json:"count"`
}

// SkillBrief 技能目录条目，描述截断到 100 字符
type SkillBrief struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SkillList /skills 响应
type SkillList struct {
	Skills []SkillBrief `json:"skills"`
	Count  int          `json:"count"`
}
