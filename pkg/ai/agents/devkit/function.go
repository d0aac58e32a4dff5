package devkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/devkit-ai/devkit-ai/pkg/ai"
	"github.com/devkit-ai/devkit-ai/pkg/skills"
)

const (
	FUNCTION_NAME_LIST_SKILLS    = "list_skills"
	FUNCTION_NAME_GET_SKILL      = "get_skill"
	FUNCTION_NAME_GET_SKILL_TREE = "get_skill_tree"
	FUNCTION_NAME_SEARCH_SKILLS  = "search_skills"
)

var FunctionDefine = lo.Map([]*openai.FunctionDefinition{
	{
		Name:        FUNCTION_NAME_LIST_SKILLS,
		Description: "List all available AI Dev Kit skills for guidance on Databricks tasks.",
		Parameters: jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: map[string]jsonschema.Definition{},
		},
	},
	{
		Name:        FUNCTION_NAME_GET_SKILL,
		Description: "Get detailed documentation for a skill. Use before implementing Databricks features to get correct patterns.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"skill_name": {
					Type:        jsonschema.String,
					Description: "Skill folder name, e.g. databricks-jobs",
				},
				"file_path": {
					Type:        jsonschema.String,
					Description: "Relative path of a file inside the skill, defaults to SKILL.md",
				},
			},
			Required: []string{"skill_name"},
		},
	},
	{
		Name:        FUNCTION_NAME_GET_SKILL_TREE,
		Description: "Get the file tree structure of a skill directory.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"skill_name": {
					Type:        jsonschema.String,
					Description: "Skill folder name, e.g. databricks-jobs",
				},
			},
			Required: []string{"skill_name"},
		},
	},
	{
		Name:        FUNCTION_NAME_SEARCH_SKILLS,
		Description: "Search across all skills for relevant guidance.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"query": {
					Type:        jsonschema.String,
					Description: "Case-insensitive text to look for in skill names and documentation",
				},
			},
			Required: []string{"query"},
		},
	},
}, func(item *openai.FunctionDefinition, _ int) openai.Tool {
	return openai.Tool{
		Type:     openai.ToolTypeFunction,
		Function: item,
	}
})

// GetToolHandlers 将技能库操作绑定为模型可调用的工具
func GetToolHandlers(library *skills.Library) map[string]ai.ToolHandlerFunc {
	return map[string]ai.ToolHandlerFunc{
		FUNCTION_NAME_LIST_SKILLS: func(ctx context.Context, call openai.ToolCall) (openai.ChatCompletionMessage, error) {
			return marshalResult(call, library.List())
		},
		FUNCTION_NAME_GET_SKILL: func(ctx context.Context, call openai.ToolCall) (openai.ChatCompletionMessage, error) {
			var args struct {
				SkillName string `json:"skill_name"`
				FilePath  string `json:"file_path"`
			}
			if err := parseArguments(call, &args); err != nil {
				return openai.ChatCompletionMessage{}, err
			}

			doc, err := library.Get(args.SkillName, args.FilePath)
			if err != nil {
				return libraryError(call, err)
			}
			return marshalResult(call, doc)
		},
		FUNCTION_NAME_GET_SKILL_TREE: func(ctx context.Context, call openai.ToolCall) (openai.ChatCompletionMessage, error) {
			var args struct {
				SkillName string `json:"skill_name"`
			}
			if err := parseArguments(call, &args); err != nil {
				return openai.ChatCompletionMessage{}, err
			}

			tree, err := library.Tree(args.SkillName)
			if err != nil {
				return libraryError(call, err)
			}
			return marshalResult(call, tree)
		},
		FUNCTION_NAME_SEARCH_SKILLS: func(ctx context.Context, call openai.ToolCall) (openai.ChatCompletionMessage, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := parseArguments(call, &args); err != nil {
				return openai.ChatCompletionMessage{}, err
			}

			result, err := library.Search(args.Query)
			if err != nil {
				return marshalResult(call, &skills.ErrorPayload{Error: err.Error()})
			}
			return marshalResult(call, result)
		},
	}
}

func parseArguments(call openai.ToolCall, out any) error {
	raw := strings.TrimSpace(call.Function.Arguments)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}
	return nil
}

func marshalResult(call openai.ToolCall, payload any) (openai.ChatCompletionMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return ai.ToolMessage(call, string(raw)), nil
}

// libraryError 技能库的业务错误以 JSON 负载回传，让模型自行修正参数
func libraryError(call openai.ToolCall, err error) (openai.ChatCompletionMessage, error) {
	if payload, ok := skills.AsPayload(err); ok {
		return marshalResult(call, payload)
	}
	return openai.ChatCompletionMessage{}, err
}
