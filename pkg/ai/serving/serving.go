package serving

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	NAME = "serving"
)

// DefaultEndpoint 默认的模型服务端点
const DefaultEndpoint = "databricks-claude-sonnet-4-5"

// Driver 通过工作区的模型服务端点提供 OpenAI 兼容的聊天补全
type Driver struct {
	client *openai.Client
	model  string
}

func New(host, token, endpoint string) *Driver {
	cfg := openai.DefaultConfig(token)
	cfg.BaseURL = strings.TrimRight(host, "/") + "/serving-endpoints"

	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &Driver{
		client: openai.NewClientWithConfig(cfg),
		model:  endpoint,
	}
}

func (s *Driver) Model() string {
	return s.model
}

func (s *Driver) Query(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	req.Model = s.model

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return resp, fmt.Errorf("Completion error: %w", err)
	}

	slog.Debug("Query", slog.String("driver", NAME), slog.String("model", s.model), slog.Int("choices", len(resp.Choices)))

	return resp, nil
}
