package v1

import (
	"context"

	"github.com/samber/lo"

	"github.com/devkit-ai/devkit-ai/app/core"
	"github.com/devkit-ai/devkit-ai/pkg/catalog"
	"github.com/devkit-ai/devkit-ai/pkg/skills"
	"github.com/devkit-ai/devkit-ai/pkg/types"
	"github.com/devkit-ai/devkit-ai/pkg/utils"
)

// 目录条目描述的展示上限
const descriptionLimit = 100

// StatusLogic 服务状态与目录查询逻辑
type StatusLogic struct {
	ctx  context.Context
	core *core.Core
}

// NewStatusLogic 创建新的状态查询逻辑实例
func NewStatusLogic(ctx context.Context, core *core.Core) *StatusLogic {
	return &StatusLogic{
		ctx:  ctx,
		core: core,
	}
}

// Health 健康检查负载
func (l *StatusLogic) Health() types.HealthStatus {
	list := l.core.Skills().List()

	return types.HealthStatus{
		Status:      "healthy",
		Server:      types.ServerName,
		ToolsCount:  catalog.Count(),
		SkillsCount: list.Count,
		MCPEndpoint: types.MCPEndpoint,
	}
}

// Tools 工具目录
func (l *StatusLogic) Tools() types.ToolList {
	briefs := lo.Map(catalog.Tools(), func(t catalog.Tool, _ int) types.ToolBrief {
		return types.ToolBrief{
			Name:        t.Name,
			Description: utils.TruncateRunes(t.Description, descriptionLimit),
		}
	})

	return types.ToolList{Tools: briefs, Count: len(briefs)}
}

// Skills 技能目录
func (l *StatusLogic) Skills() types.SkillList {
	list := l.core.Skills().List()

	briefs := lo.Map(list.Skills, func(s skills.Summary, _ int) types.SkillBrief {
		description := s.Description
		if description == "" {
			description = "No description"
		}

		// 目录里技能以文件夹名呈现
		return types.SkillBrief{
			Name:        s.Folder,
			Description: utils.TruncateRunes(description, descriptionLimit),
		}
	})

	return types.SkillList{Skills: briefs, Count: list.Count}
}
