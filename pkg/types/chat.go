package types

// 对话角色，与 OpenAI 兼容接口保持一致
const (
	CHAT_ROLE_SYSTEM    = "system"
	CHAT_ROLE_USER      = "user"
	CHAT_ROLE_ASSISTANT = "assistant"
	CHAT_ROLE_TOOL      = "tool"
)

// ChatMessage 一轮对话消息
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

// ChatResult 助手最终回复以及本次调用过的工具
type ChatResult struct {
	MessageID string   `json:"message_id"`
	Message   string   `json:"message"`
	ToolsUsed []string `json:"tools_used,omitempty"`
	Rounds    int      `json:"rounds"`
}
