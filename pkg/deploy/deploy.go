package deploy

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// SourceTree 一棵要镜像到远端的本地源码树。
// Extensions 为扩展名白名单（区分大小写的后缀匹配），空表示不限制；
// ExcludedDirs 按目录基名精确匹配，命中的子树整体跳过。
type SourceTree struct {
	Root            string
	Dest            string
	Extensions      []string
	ExcludedDirs    []string
	RequireNonEmpty bool
}

// Manifest 一次部署要同步的全部内容，构造后不再变化
type Manifest struct {
	RootFiles []string
	Trees     []SourceTree
}

// DefaultExcludedDirs 默认排除的目录基名
var DefaultExcludedDirs = []string{
	".git", ".venv", ".idea", ".vscode", "__pycache__", "TEMPLATE", "node_modules", "testdata",
}

// GoExtensions 代码树只上传 Go 源文件
var GoExtensions = []string{".go"}

// HTMLExtensions 状态页模板
var HTMLExtensions = []string{".html"}

// SkillExtensions 技能树收录文档与配套脚本
var SkillExtensions = []string{".md", ".py", ".sql", ".yaml", ".yml"}

// DefaultManifest 按仓库布局生成默认同步清单。
// skillsDir 为空时使用 skills 目录；技能树要求非空，其余树存在即可。
func DefaultManifest(skillsDir string) Manifest {
	if skillsDir == "" {
		skillsDir = "skills"
	}
	return Manifest{
		RootFiles: []string{"app.yaml", "go.mod", "go.sum"},
		Trees: []SourceTree{
			{Root: "cmd", Dest: "cmd", Extensions: GoExtensions, ExcludedDirs: DefaultExcludedDirs},
			{Root: "app", Dest: "app", Extensions: GoExtensions, ExcludedDirs: DefaultExcludedDirs},
			{Root: "pkg", Dest: "pkg", Extensions: GoExtensions, ExcludedDirs: DefaultExcludedDirs},
			{Root: "tpls", Dest: "tpls", Extensions: HTMLExtensions, ExcludedDirs: DefaultExcludedDirs},
			{
				Root:            skillsDir,
				Dest:            "skills",
				Extensions:      SkillExtensions,
				ExcludedDirs:    DefaultExcludedDirs,
				RequireNonEmpty: true,
			},
		},
	}
}

// Stage 部署状态机的阶段。
// 每次执行严格按 Start → AppEnsured → DestinationReset →
// {TreeSynced}* → DeployTriggered → Done 推进，不落盘、不回滚。
type Stage string

const (
	StageStart            Stage = "start"
	StageAppEnsured       Stage = "app_ensured"
	StageDestinationReset Stage = "destination_reset"
	StageTreeSynced       Stage = "tree_synced"
	StageDeployTriggered  Stage = "deploy_triggered"
	StageDone             Stage = "done"
)

// Action 单个条目的处置结果
type Action string

const (
	ActionImported   Action = "imported"
	ActionDirCreated Action = "dir_created"
	ActionSkippedDir Action = "skipped_excluded_dir"
	ActionSkippedExt Action = "skipped_extension"
	ActionDeleted    Action = "destination_deleted"
	ActionFailed     Action = "failed"
)

// ItemResult 一个条目的同步记录
type ItemResult struct {
	LocalPath  string
	RemotePath string
	Action     Action
	Err        error
}

// Report 一次部署执行的完整记录。
// 可容忍的失败记录在 Items 中，不会中断执行。
type Report struct {
	AppName   string
	DestRoot  string
	StartedAt time.Time
	Duration  time.Duration
	Items     []ItemResult
}

func (r *Report) add(action Action, local, remote string, err error) {
	r.Items = append(r.Items, ItemResult{
		LocalPath:  local,
		RemotePath: remote,
		Action:     action,
		Err:        err,
	})
}

// CountOf 统计指定处置结果的条目数
func (r *Report) CountOf(action Action) int {
	return lo.CountBy(r.Items, func(item ItemResult) bool {
		return item.Action == action
	})
}

// FailedItems 返回全部失败条目
func (r *Report) FailedItems() []ItemResult {
	return lo.Filter(r.Items, func(item ItemResult, _ int) bool {
		return item.Action == ActionFailed
	})
}

// Summary 渲染人类可读的执行摘要
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "app: %s\n", r.AppName)
	fmt.Fprintf(&b, "destination: %s\n", r.DestRoot)
	fmt.Fprintf(&b, "imported: %d, directories: %d, skipped: %d, failed: %d\n",
		r.CountOf(ActionImported),
		r.CountOf(ActionDirCreated),
		r.CountOf(ActionSkippedDir)+r.CountOf(ActionSkippedExt),
		r.CountOf(ActionFailed),
	)
	for _, item := range r.FailedItems() {
		fmt.Fprintf(&b, "  failed: %s -> %s: %v\n", item.LocalPath, item.RemotePath, item.Err)
	}
	fmt.Fprintf(&b, "duration: %s\n", r.Duration.Round(time.Millisecond))
	return b.String()
}
