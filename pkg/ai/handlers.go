package ai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ToolHandlerFunc 执行一次模型发起的工具调用，返回写回对话的 tool 消息
type ToolHandlerFunc func(ctx context.Context, call openai.ToolCall) (openai.ChatCompletionMessage, error)

// HandleToolCall 执行 assistant 消息携带的全部工具调用。
// 未注册的工具不中断流程，以 tool 消息的形式告知模型。
func HandleToolCall(ctx context.Context, message openai.ChatCompletionMessage, handlers map[string]ToolHandlerFunc) ([]openai.ChatCompletionMessage, error) {
	var results []openai.ChatCompletionMessage
	for _, call := range message.ToolCalls {
		handler, ok := handlers[call.Function.Name]
		if !ok {
			results = append(results, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    fmt.Sprintf("Tool %s not found", call.Function.Name),
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
			continue
		}

		result, err := handler(ctx, call)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// ToolMessage 组装一条 tool 角色的回包消息
func ToolMessage(call openai.ToolCall, content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    content,
		Name:       call.Function.Name,
		ToolCallID: call.ID,
	}
}
