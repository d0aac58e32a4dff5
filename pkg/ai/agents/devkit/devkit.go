package devkit

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"

	"github.com/devkit-ai/devkit-ai/pkg/ai"
	"github.com/devkit-ai/devkit-ai/pkg/skills"
	"github.com/devkit-ai/devkit-ai/pkg/types"
)

const (
	// maxToolRounds 单次对话最多执行的工具轮数，超出后强制收尾
	maxToolRounds = 4
	// historyTokenBudget 发送给模型的对话 token 预算
	historyTokenBudget = 8000
)

// DevKitAgent 基于技能库工具回答 Databricks 开发问题
type DevKitAgent struct {
	driver   ai.Query
	handlers map[string]ai.ToolHandlerFunc
}

func NewDevKitAgent(driver ai.Query, library *skills.Library) *DevKitAgent {
	return &DevKitAgent{
		driver:   driver,
		handlers: GetToolHandlers(library),
	}
}

// Generate 执行一次对话。模型发起的工具调用在本地执行，结果回填
// 对话后继续请求，直到模型给出文本回答或者达到轮数上限。
func (b *DevKitAgent) Generate(ctx context.Context, messages []openai.ChatCompletionMessage) (*types.ChatResult, error) {
	if len(messages) == 0 || messages[0].Role != openai.ChatMessageRoleSystem {
		messages = append([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: DEVKIT_PROMPT_EN,
		}}, messages...)
	}
	messages = ai.TrimHistory(messages, b.driver.Model(), historyTokenBudget)

	result := &types.ChatResult{}
	for round := 0; round < maxToolRounds; round++ {
		resp, err := b.driver.Query(ctx, openai.ChatCompletionRequest{
			Messages: messages,
			Tools:    FunctionDefine,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("Completion error: len(choices):%d", len(resp.Choices))
		}
		result.Rounds = round + 1

		choice := resp.Choices[0]
		if len(choice.Message.ToolCalls) == 0 {
			result.Message = choice.Message.Content
			result.ToolsUsed = lo.Uniq(result.ToolsUsed)
			return result, nil
		}

		messages = append(messages, choice.Message)
		toolMessages, err := ai.HandleToolCall(ctx, choice.Message, b.handlers)
		if err != nil {
			return nil, err
		}
		messages = append(messages, toolMessages...)

		result.ToolsUsed = append(result.ToolsUsed, lo.Map(choice.Message.ToolCalls, func(call openai.ToolCall, _ int) string {
			return call.Function.Name
		})...)
	}

	// 轮数耗尽后不再提供工具，让模型基于已有结果收尾
	resp, err := b.driver.Query(ctx, openai.ChatCompletionRequest{Messages: messages})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("Completion error: len(choices):%d", len(resp.Choices))
	}

	result.Rounds++
	result.Message = resp.Choices[0].Message.Content
	result.ToolsUsed = lo.Uniq(result.ToolsUsed)
	return result, nil
}
