package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

// Query 聊天补全驱动。请求由调用方组装，驱动负责补齐目标模型。
type Query interface {
	Query(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	Model() string
}

func NumTokens(messages []openai.ChatCompletionMessage, model string) (numTokens int, err error) {
	var tokensPerMessage, tokensPerName int
	switch model {
	case "gpt-3.5-turbo-0613",
		"gpt-3.5-turbo-16k-0613",
		"gpt-4-0314",
		"gpt-4-32k-0314",
		"gpt-4-0613",
		"gpt-4-32k-0613":
		tokensPerMessage = 3
		tokensPerName = 1
	case "gpt-3.5-turbo-0301":
		tokensPerMessage = 4 // every message follows <|start|>{role/name}\n{content}<|end|>\n
		tokensPerName = -1   // if there's a name, the role is omitted
	default:
		if strings.Contains(model, "gpt-4") {
			return NumTokens(messages, "gpt-4-0613")
		} else {
			return NumTokens(messages, "gpt-3.5-turbo-0613")
		}
	}

	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		err = fmt.Errorf("encoding for model: %v", err)
		return
	}

	for _, message := range messages {
		numTokens += tokensPerMessage
		numTokens += len(tkm.Encode(message.Content, nil, nil))
		numTokens += len(tkm.Encode(message.Role, nil, nil))
		numTokens += len(tkm.Encode(message.Name, nil, nil))
		if message.Name != "" {
			numTokens += tokensPerName
		}
	}
	numTokens += 3 // every reply is primed with <|start|>assistant<|message|>
	return numTokens, nil
}

// TrimHistory 从最旧的非 system 消息开始丢弃，直到 token 估算值
// 进入预算。最后一条消息永远保留。
func TrimHistory(messages []openai.ChatCompletionMessage, model string, budget int) []openai.ChatCompletionMessage {
	return trimWithCounter(messages, budget, func(msgs []openai.ChatCompletionMessage) int {
		tokens, err := NumTokens(msgs, model)
		if err != nil {
			return approxTokens(msgs)
		}
		return tokens
	})
}

func trimWithCounter(messages []openai.ChatCompletionMessage, budget int, count func([]openai.ChatCompletionMessage) int) []openai.ChatCompletionMessage {
	if budget <= 0 {
		return messages
	}
	for count(messages) > budget {
		idx := -1
		for i, msg := range messages {
			if msg.Role != openai.ChatMessageRoleSystem {
				idx = i
				break
			}
		}
		if idx < 0 || idx == len(messages)-1 {
			return messages
		}
		messages = append(messages[:idx:idx], messages[idx+1:]...)
	}
	return messages
}

// approxTokens 编码器不可用时的粗略估算
func approxTokens(messages []openai.ChatCompletionMessage) int {
	total := 3
	for _, message := range messages {
		total += 3 + utf8.RuneCountInString(message.Content)/3
	}
	return total
}
