package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devkit-ai/devkit-ai/pkg/skills"
)

// RegisterTools 注册所有 MCP 工具
func RegisterTools(server *mcp.Server, library *skills.Library) {
	// 注册 list_skills 工具
	RegisterListSkillsTool(server, library)

	// 注册 get_skill 工具
	RegisterGetSkillTool(server, library)

	// 注册 get_skill_tree 工具
	RegisterGetSkillTreeTool(server, library)

	// 注册 search_skills 工具
	RegisterSearchSkillsTool(server, library)
}

// textResult 把负载序列化成 JSON 文本内容返回给 MCP 客户端
func textResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

// toolError 给技能库错误附上可用技能或文件清单，调用方可据此纠正参数
func toolError(err error) error {
	payload, ok := skills.AsPayload(err)
	if !ok {
		return err
	}

	switch {
	case len(payload.AvailableSkills) > 0:
		return fmt.Errorf("%s. Available skills: %s", payload.Error, strings.Join(payload.AvailableSkills, ", "))
	case len(payload.AvailableFiles) > 0:
		return fmt.Errorf("%s. Available files: %s", payload.Error, strings.Join(payload.AvailableFiles, ", "))
	default:
		return err
	}
}
