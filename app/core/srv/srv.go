package srv

type Srv struct {
	ai *AI
}

func SetupSrvs(opts ...ApplyFunc) *Srv {
	a := &Srv{}

	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (s *Srv) AI() *AI {
	return s.ai
}

// GetAIStatus 获取AI系统状态
func (s *Srv) GetAIStatus() map[string]interface{} {
	if s.ai == nil || s.ai.chat == nil {
		return map[string]interface{}{
			"status": "not_initialized",
		}
	}

	return map[string]interface{}{
		"status":         "running",
		"chat_available": true,
		"endpoint":       s.ai.chat.Model(),
	}
}
