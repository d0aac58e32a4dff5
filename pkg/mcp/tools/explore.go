package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devkit-ai/devkit-ai/pkg/skills"
)

// GetSkillTreeInput 获取技能目录树的输入参数
type GetSkillTreeInput struct {
	SkillName string `json:"skill_name" jsonschema:"The skill folder name to inspect"`
}

// GetSkillTreeHandler 获取技能目录树的处理器
type GetSkillTreeHandler struct {
	library *skills.Library
}

// NewGetSkillTreeHandler 创建新的目录树处理器
func NewGetSkillTreeHandler(library *skills.Library) *GetSkillTreeHandler {
	return &GetSkillTreeHandler{library: library}
}

// Handle 处理获取技能目录树请求
// TreeNode 是递归结构，输出类型用 any，不声明输出 schema
func (h *GetSkillTreeHandler) Handle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	args GetSkillTreeInput,
) (*mcp.CallToolResult, any, error) {
	// 验证技能名
	if args.SkillName == "" {
		return nil, nil, fmt.Errorf("skill_name is required")
	}

	tree, err := h.library.Tree(args.SkillName)
	if err != nil {
		return nil, nil, toolError(err)
	}

	res, err := textResult(tree)
	if err != nil {
		return nil, nil, err
	}

	return res, tree, nil
}

// SearchSkillsInput 搜索技能的输入参数
type SearchSkillsInput struct {
	Query string `json:"query" jsonschema:"Search term to match against skill names and documentation"`
}

// SearchSkillsHandler 搜索技能的处理器
type SearchSkillsHandler struct {
	library *skills.Library
}

// NewSearchSkillsHandler 创建新的技能搜索处理器
func NewSearchSkillsHandler(library *skills.Library) *SearchSkillsHandler {
	return &SearchSkillsHandler{library: library}
}

// Handle 处理搜索技能请求
func (h *SearchSkillsHandler) Handle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	args SearchSkillsInput,
) (*mcp.CallToolResult, skills.SearchResult, error) {
	result, err := h.library.Search(args.Query)
	if err != nil {
		return nil, skills.SearchResult{}, err
	}

	res, err := textResult(result)
	if err != nil {
		return nil, skills.SearchResult{}, err
	}

	return res, result, nil
}

// RegisterGetSkillTreeTool 注册 get_skill_tree 工具
func RegisterGetSkillTreeTool(server *mcp.Server, library *skills.Library) {
	handler := NewGetSkillTreeHandler(library)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_skill_tree",
		Description: "Get the file tree structure of a skill directory.",
	}, handler.Handle)
}

// RegisterSearchSkillsTool 注册 search_skills 工具
func RegisterSearchSkillsTool(server *mcp.Server, library *skills.Library) {
	handler := NewSearchSkillsHandler(library)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_skills",
		Description: "Search across all skills for relevant guidance.",
	}, handler.Handle)
}
