package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devkit-ai/devkit-ai/pkg/skills"
)

// ListSkillsInput 列出技能的输入参数，无需任何字段
type ListSkillsInput struct{}

// ListSkillsHandler 列出技能的处理器
type ListSkillsHandler struct {
	library *skills.Library
}

// NewListSkillsHandler 创建新的技能列表处理器
func NewListSkillsHandler(library *skills.Library) *ListSkillsHandler {
	return &ListSkillsHandler{library: library}
}

// Handle 处理列出技能请求
func (h *ListSkillsHandler) Handle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	args ListSkillsInput,
) (*mcp.CallToolResult, skills.ListResult, error) {
	result := h.library.List()

	res, err := textResult(result)
	if err != nil {
		return nil, skills.ListResult{}, err
	}

	return res, result, nil
}

// GetSkillInput 读取技能文档的输入参数
type GetSkillInput struct {
	SkillName string `json:"skill_name" jsonschema:"The skill folder name, e.g. 'databricks-jobs'"`
	FilePath  string `json:"file_path,omitempty" jsonschema:"Relative path of a file inside the skill, defaults to SKILL.md"`
}

// GetSkillHandler 读取技能文档的处理器
type GetSkillHandler struct {
	library *skills.Library
}

// NewGetSkillHandler 创建新的技能文档处理器
func NewGetSkillHandler(library *skills.Library) *GetSkillHandler {
	return &GetSkillHandler{library: library}
}

// Handle 处理读取技能文档请求
func (h *GetSkillHandler) Handle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	args GetSkillInput,
) (*mcp.CallToolResult, skills.Document, error) {
	// 验证技能名
	if args.SkillName == "" {
		return nil, skills.Document{}, fmt.Errorf("skill_name is required")
	}

	doc, err := h.library.Get(args.SkillName, args.FilePath)
	if err != nil {
		return nil, skills.Document{}, toolError(err)
	}

	res, err := textResult(doc)
	if err != nil {
		return nil, skills.Document{}, err
	}

	return res, *doc, nil
}

// RegisterListSkillsTool 注册 list_skills 工具
func RegisterListSkillsTool(server *mcp.Server, library *skills.Library) {
	handler := NewListSkillsHandler(library)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_skills",
		Description: "List all available AI Dev Kit skills for guidance on Databricks tasks.",
	}, handler.Handle)
}

// RegisterGetSkillTool 注册 get_skill 工具
func RegisterGetSkillTool(server *mcp.Server, library *skills.Library) {
	handler := NewGetSkillHandler(library)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_skill",
		Description: "Get detailed documentation for a skill. Use before implementing Databricks features to get correct patterns.",
	}, handler.Handle)
}
