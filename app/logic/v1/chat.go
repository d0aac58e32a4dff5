package v1

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/samber/lo"

	"github.com/devkit-ai/devkit-ai/app/core"
	"github.com/devkit-ai/devkit-ai/pkg/ai/agents/devkit"
	"github.com/devkit-ai/devkit-ai/pkg/errors"
	"github.com/devkit-ai/devkit-ai/pkg/i18n"
	"github.com/devkit-ai/devkit-ai/pkg/types"
	"github.com/devkit-ai/devkit-ai/pkg/utils"
)

// ChatLogic 助手对话逻辑
type ChatLogic struct {
	ctx  context.Context
	core *core.Core
}

// NewChatLogic 创建新的对话逻辑实例
func NewChatLogic(ctx context.Context, core *core.Core) *ChatLogic {
	return &ChatLogic{
		ctx:  ctx,
		core: core,
	}
}

// Chat 执行一轮助手对话，messages 为客户端维护的完整会话历史
func (l *ChatLogic) Chat(messages []types.ChatMessage) (*types.ChatResult, error) {
	if len(messages) == 0 {
		return nil, errors.New("ChatLogic.Chat.Messages.Empty", i18n.ERROR_CHAT_EMPTY_MESSAGES, nil).Code(http.StatusBadRequest)
	}

	for _, msg := range messages {
		if !validChatRole(msg.Role) {
			return nil, errors.New("ChatLogic.Chat.Role.Invalid", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
		}
	}

	driver := l.core.Srv().AI().Chat()
	if driver == nil {
		return nil, errors.New("ChatLogic.Chat.Driver.NotConfigured", i18n.ERROR_CHAT_UPSTREAM, nil).Code(http.StatusServiceUnavailable)
	}

	timer := l.core.Metrics().ChatResponseTimer(driver.Model())
	defer timer.ObserveDuration()

	agent := devkit.NewDevKitAgent(driver, l.core.Skills())
	result, err := agent.Generate(l.ctx, toCompletionMessages(messages))
	if err != nil {
		l.core.Metrics().ChatErrorInc("upstream")
		return nil, errors.New("ChatLogic.Chat.Generate", i18n.ERROR_CHAT_UPSTREAM, err).Code(http.StatusBadGateway)
	}

	for _, tool := range result.ToolsUsed {
		l.core.Metrics().ToolCallInc(tool)
	}

	result.MessageID = utils.GenUniqIDStr()
	return result, nil
}

func validChatRole(role string) bool {
	switch role {
	case types.CHAT_ROLE_SYSTEM, types.CHAT_ROLE_USER, types.CHAT_ROLE_ASSISTANT:
		return true
	default:
		return false
	}
}

func toCompletionMessages(messages []types.ChatMessage) []openai.ChatCompletionMessage {
	return lo.Map(messages, func(m types.ChatMessage, _ int) openai.ChatCompletionMessage {
		return openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	})
}
