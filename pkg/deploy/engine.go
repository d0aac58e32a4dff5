package deploy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/devkit-ai/devkit-ai/pkg/workspace"
)

// Workspace 部署引擎依赖的全部远端操作
type Workspace interface {
	CurrentUser(ctx context.Context) (string, error)
	Delete(ctx context.Context, path string, recursive bool) error
	Mkdirs(ctx context.Context, path string) error
	Import(ctx context.Context, path string, content []byte, overwrite bool) error
	List(ctx context.Context, path string) ([]workspace.ObjectInfo, error)
	GetApp(ctx context.Context, name string) (*workspace.App, error)
	CreateApp(ctx context.Context, name, description string) (*workspace.App, error)
	DeployApp(ctx context.Context, name, sourceCodePath string) (*workspace.Deployment, error)
}

// DefaultImportRate 上传接口的默认限速（每秒请求数）
const DefaultImportRate = rate.Limit(10)

// Config 引擎配置
type Config struct {
	AppName     string
	Description string
	Manifest    Manifest
	SkipDeploy  bool
	ImportRate  rate.Limit
	Out         io.Writer
	Logger      *slog.Logger
}

// Engine 把本地源码树镜像到远端工作区并触发托管部署。
// 全程单线程顺序执行，前一个远端调用完成后才发起下一个。
type Engine struct {
	fs      afero.Fs
	ws      Workspace
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
	out     io.Writer
	stage   Stage
}

func NewEngine(fsys afero.Fs, ws Workspace, cfg Config) *Engine {
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	importRate := cfg.ImportRate
	if importRate == 0 {
		importRate = DefaultImportRate
	}
	burst := int(importRate)
	if importRate == rate.Inf || burst < 1 {
		burst = 1
	}
	return &Engine{
		fs:      fsys,
		ws:      ws,
		cfg:     cfg,
		limiter: rate.NewLimiter(importRate, burst),
		logger:  cfg.Logger,
		out:     cfg.Out,
		stage:   StageStart,
	}
}

func (e *Engine) Stage() Stage {
	return e.stage
}

// Run 执行一次完整部署。可容忍的远端失败只记录到 Report，
// 返回的 error 代表不可恢复的失败；中断后的恢复手段就是重跑。
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	report := &Report{AppName: e.cfg.AppName, StartedAt: time.Now()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	// 任何远端调用之前先校验本地清单
	if err := e.preflight(); err != nil {
		return report, err
	}

	e.narrate("Deploying %s", e.cfg.AppName)

	if err := e.ensureApp(ctx); err != nil {
		return report, err
	}
	e.stage = StageAppEnsured

	user, err := e.ws.CurrentUser(ctx)
	if err != nil {
		return report, fmt.Errorf("resolve current user: %w", err)
	}
	destRoot := path.Join("/Users", user, e.cfg.AppName)
	report.DestRoot = destRoot

	if err := e.resetDestination(ctx, destRoot, report); err != nil {
		return report, err
	}
	e.stage = StageDestinationReset

	if err := e.syncRootFiles(ctx, destRoot, report); err != nil {
		return report, err
	}

	for _, tree := range e.cfg.Manifest.Trees {
		if err := e.syncTree(ctx, tree, destRoot, report); err != nil {
			return report, err
		}
		e.stage = StageTreeSynced
		e.narrate("Synced %s/", tree.Root)
	}

	// 同步完成后拉一次目标根目录做轻量核对，失败不影响结果
	if objects, err := e.ws.List(ctx, destRoot); err == nil {
		e.narrate("Destination now holds %d top-level entries", len(objects))
	} else {
		e.logger.Warn("post-sync list failed", slog.String("path", destRoot), slog.String("error", err.Error()))
	}

	if e.cfg.SkipDeploy {
		e.narrate("Skipping deploy trigger")
		e.stage = StageDone
		return report, nil
	}

	sourcePath := path.Join("/Workspace", destRoot)
	deployment, err := e.ws.DeployApp(ctx, e.cfg.AppName, sourcePath)
	if err != nil {
		return report, fmt.Errorf("trigger deploy: %w", err)
	}
	e.stage = StageDeployTriggered
	if deployment.Status != nil {
		e.narrate("Deployment accepted: %s (%s)", deployment.DeploymentID, deployment.Status.State)
	} else {
		e.narrate("Deployment accepted: %s", deployment.DeploymentID)
	}

	app, err := e.ws.GetApp(ctx, e.cfg.AppName)
	if err != nil {
		return report, fmt.Errorf("describe app: %w", err)
	}
	if app.AppStatus != nil {
		e.narrate("App state: %s", app.AppStatus.State)
	}
	if app.URL != "" {
		e.narrate("App URL: %s", app.URL)
	}

	e.stage = StageDone
	return report, nil
}

// preflight 校验本地清单：根文件必须存在，
// 标记 RequireNonEmpty 的树必须含至少一个可上传文件。
func (e *Engine) preflight() error {
	for _, file := range e.cfg.Manifest.RootFiles {
		ok, err := afero.Exists(e.fs, file)
		if err != nil {
			return fmt.Errorf("check %s: %w", file, err)
		}
		if !ok {
			return fmt.Errorf("required file %s not found", file)
		}
	}

	for _, tree := range e.cfg.Manifest.Trees {
		exists, err := afero.DirExists(e.fs, tree.Root)
		if err != nil {
			return fmt.Errorf("check %s: %w", tree.Root, err)
		}
		if !exists {
			return fmt.Errorf("source tree %s not found", tree.Root)
		}
		if tree.RequireNonEmpty && e.countDeployable(tree) == 0 {
			return fmt.Errorf("source tree %s contains no deployable files", tree.Root)
		}
	}
	return nil
}

// ensureApp 确认应用存在，不存在则创建；创建竞态（已存在）可容忍
func (e *Engine) ensureApp(ctx context.Context) error {
	app, err := e.ws.GetApp(ctx, e.cfg.AppName)
	if err == nil {
		if app.AppStatus != nil {
			e.narrate("App %s exists (state: %s)", e.cfg.AppName, app.AppStatus.State)
		} else {
			e.narrate("App %s exists", e.cfg.AppName)
		}
		return nil
	}
	if !workspace.IsNotFound(err) {
		return fmt.Errorf("get app %s: %w", e.cfg.AppName, err)
	}

	e.narrate("App %s not found, creating", e.cfg.AppName)
	if _, err := e.ws.CreateApp(ctx, e.cfg.AppName, e.cfg.Description); err != nil {
		if workspace.IsAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("create app %s: %w", e.cfg.AppName, err)
	}
	return nil
}

// resetDestination 全量重置目标目录。删除失败可容忍（目标可能
// 本就不存在），重建失败中止：后续所有步骤都写这个目录。
func (e *Engine) resetDestination(ctx context.Context, destRoot string, report *Report) error {
	e.narrate("Resetting destination %s", destRoot)

	err := e.ws.Delete(ctx, destRoot, true)
	switch {
	case err == nil:
		report.add(ActionDeleted, "", destRoot, nil)
	case workspace.IsNotFound(err):
		// 首次部署时目标还不存在
	default:
		report.add(ActionFailed, "", destRoot, err)
		e.logger.Warn("destination delete failed", slog.String("path", destRoot), slog.String("error", err.Error()))
	}

	if err := e.ws.Mkdirs(ctx, destRoot); err != nil {
		return fmt.Errorf("recreate destination %s: %w", destRoot, err)
	}
	report.add(ActionDirCreated, "", destRoot, nil)
	return nil
}

// syncRootFiles 上传清单里的根级单文件
func (e *Engine) syncRootFiles(ctx context.Context, destRoot string, report *Report) error {
	for _, file := range e.cfg.Manifest.RootFiles {
		remote := path.Join(destRoot, filepath.Base(file))
		if err := e.importFile(ctx, file, remote, report); err != nil {
			return err
		}
	}
	return nil
}

// syncTree 深度优先镜像一棵源码树，目录先于其子项创建
func (e *Engine) syncTree(ctx context.Context, tree SourceTree, destRoot string, report *Report) error {
	destBase := path.Join(destRoot, tree.Dest)
	e.narrate("Syncing %s/ -> %s", tree.Root, destBase)

	return afero.Walk(e.fs, tree.Root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			report.add(ActionFailed, p, "", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(tree.Root, p)
		if err != nil {
			report.add(ActionFailed, p, "", err)
			return nil
		}
		remote := destBase
		if rel != "." {
			remote = path.Join(destBase, filepath.ToSlash(rel))
		}

		if info.IsDir() {
			if rel != "." && lo.Contains(tree.ExcludedDirs, info.Name()) {
				report.add(ActionSkippedDir, p, remote, nil)
				return filepath.SkipDir
			}
			if err := e.ws.Mkdirs(ctx, remote); err != nil {
				if workspace.IsAlreadyExists(err) {
					report.add(ActionDirCreated, p, remote, nil)
					return nil
				}
				report.add(ActionFailed, p, remote, err)
				e.logger.Warn("mkdirs failed", slog.String("remote", remote), slog.String("error", err.Error()))
				return nil
			}
			report.add(ActionDirCreated, p, remote, nil)
			return nil
		}

		if !allowedExtension(tree.Extensions, info.Name()) {
			report.add(ActionSkippedExt, p, remote, nil)
			return nil
		}
		return e.importFile(ctx, p, remote, report)
	})
}

// importFile 上传单个文件。读取或远端失败只记录，
// 返回非 nil 仅发生在 ctx 取消时。
func (e *Engine) importFile(ctx context.Context, local, remote string, report *Report) error {
	data, err := afero.ReadFile(e.fs, local)
	if err != nil {
		report.add(ActionFailed, local, remote, err)
		e.logger.Warn("read source file failed", slog.String("path", local), slog.String("error", err.Error()))
		return nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}

	if err := e.ws.Import(ctx, remote, data, true); err != nil {
		report.add(ActionFailed, local, remote, err)
		e.logger.Warn("import failed", slog.String("local", local), slog.String("remote", remote), slog.String("error", err.Error()))
		return nil
	}
	report.add(ActionImported, local, remote, nil)
	return nil
}

// allowedExtension 区分大小写的后缀匹配，空白名单放行全部
func allowedExtension(exts []string, name string) bool {
	if len(exts) == 0 {
		return true
	}
	return lo.SomeBy(exts, func(ext string) bool {
		return strings.HasSuffix(name, ext)
	})
}

func (e *Engine) narrate(format string, args ...any) {
	fmt.Fprintf(e.out, format+"\n", args...)
}

// countDeployable 统计树内命中白名单且未被排除的文件数
func (e *Engine) countDeployable(tree SourceTree) int {
	count := 0
	afero.Walk(e.fs, tree.Root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if p != tree.Root && lo.Contains(tree.ExcludedDirs, info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if allowedExtension(tree.Extensions, info.Name()) {
			count++
		}
		return nil
	})
	return count
}
