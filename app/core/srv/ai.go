package srv

import (
	"log/slog"
	"os"

	"github.com/devkit-ai/devkit-ai/pkg/ai"
	"github.com/devkit-ai/devkit-ai/pkg/ai/serving"
)

type ApplyFunc func(*Srv)

// AIConfig 模型服务配置，平台部署时由环境变量注入
type AIConfig struct {
	Host     string `toml:"host"`
	Token    string `toml:"token"`
	Endpoint string `toml:"endpoint"`
}

func (c *AIConfig) FromENV() {
	c.Host = os.Getenv("DATABRICKS_HOST")
	c.Token = os.Getenv("DATABRICKS_TOKEN")
	c.Endpoint = os.Getenv("LLM_ENDPOINT_NAME")
}

// AI 聊天模型驱动容器
type AI struct {
	chat ai.Query
}

// SetupAI 构建 serving endpoint 驱动，host 为空时返回空容器，
// 聊天接口会提示模型服务未配置
func SetupAI(cfg AIConfig) *AI {
	if cfg.Host == "" {
		slog.Warn("model serving not configured, chat is disabled")
		return &AI{}
	}

	return &AI{
		chat: serving.New(cfg.Host, cfg.Token, cfg.Endpoint),
	}
}

func ApplyAI(cfg AIConfig) ApplyFunc {
	return func(s *Srv) {
		s.ai = SetupAI(cfg)
	}
}

// Chat 返回聊天驱动，未配置时为 nil
func (a *AI) Chat() ai.Query {
	if a == nil {
		return nil
	}
	return a.chat
}
