package deploy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/devkit-ai/devkit-ai/pkg/workspace"
)

// fakeWorkspace 以操作日志的方式记录每一次远端调用，
// 顺序断言都基于 ops 切片。
type fakeWorkspace struct {
	user string
	ops  []string

	files map[string][]byte
	dirs  map[string]bool
	apps  map[string]*workspace.App

	deployments  []string
	failImports  map[string]error
	failMkdirs   map[string]error
	createAppErr error
}

var _ Workspace = (*fakeWorkspace)(nil)

func newFakeWorkspace(user string) *fakeWorkspace {
	return &fakeWorkspace{
		user:  user,
		files: map[string][]byte{},
		dirs:  map[string]bool{},
		apps:  map[string]*workspace.App{},
	}
}

func notFoundErr(msg string) *workspace.APIError {
	return &workspace.APIError{
		StatusCode: http.StatusNotFound,
		ErrorCode:  workspace.ErrCodeResourceDoesNotExist,
		Message:    msg,
	}
}

func internalErr(msg string) *workspace.APIError {
	return &workspace.APIError{
		StatusCode: http.StatusInternalServerError,
		ErrorCode:  "INTERNAL_ERROR",
		Message:    msg,
	}
}

func (f *fakeWorkspace) record(format string, args ...any) {
	f.ops = append(f.ops, fmt.Sprintf(format, args...))
}

func (f *fakeWorkspace) CurrentUser(ctx context.Context) (string, error) {
	f.record("me")
	return f.user, nil
}

func (f *fakeWorkspace) Delete(ctx context.Context, target string, recursive bool) error {
	f.record("delete %s", target)
	removed := false
	for p := range f.dirs {
		if p == target || strings.HasPrefix(p, target+"/") {
			delete(f.dirs, p)
			removed = true
		}
	}
	for p := range f.files {
		if p == target || strings.HasPrefix(p, target+"/") {
			delete(f.files, p)
			removed = true
		}
	}
	if !removed {
		return notFoundErr("Path (" + target + ") doesn't exist.")
	}
	return nil
}

func (f *fakeWorkspace) Mkdirs(ctx context.Context, target string) error {
	f.record("mkdirs %s", target)
	if err, ok := f.failMkdirs[target]; ok {
		return err
	}
	f.dirs[target] = true
	return nil
}

func (f *fakeWorkspace) Import(ctx context.Context, target string, content []byte, overwrite bool) error {
	f.record("import %s", target)
	if err, ok := f.failImports[target]; ok {
		return err
	}
	f.files[target] = content
	return nil
}

func (f *fakeWorkspace) List(ctx context.Context, target string) ([]workspace.ObjectInfo, error) {
	f.record("list %s", target)
	var objects []workspace.ObjectInfo
	for p := range f.dirs {
		if filepath.Dir(p) == target {
			objects = append(objects, workspace.ObjectInfo{Path: p, ObjectType: "DIRECTORY"})
		}
	}
	for p := range f.files {
		if filepath.Dir(p) == target {
			objects = append(objects, workspace.ObjectInfo{Path: p, ObjectType: "FILE"})
		}
	}
	return objects, nil
}

func (f *fakeWorkspace) GetApp(ctx context.Context, name string) (*workspace.App, error) {
	f.record("get_app %s", name)
	app, ok := f.apps[name]
	if !ok {
		return nil, notFoundErr("app " + name + " not found")
	}
	return app, nil
}

func (f *fakeWorkspace) CreateApp(ctx context.Context, name, description string) (*workspace.App, error) {
	f.record("create_app %s", name)
	if f.createAppErr != nil {
		return nil, f.createAppErr
	}
	app := &workspace.App{
		Name:        name,
		Description: description,
		AppStatus:   &workspace.AppStatus{State: "UNAVAILABLE"},
	}
	f.apps[name] = app
	return app, nil
}

func (f *fakeWorkspace) DeployApp(ctx context.Context, name, sourceCodePath string) (*workspace.Deployment, error) {
	f.record("deploy %s %s", name, sourceCodePath)
	if _, ok := f.apps[name]; !ok {
		return nil, notFoundErr("app " + name + " not found")
	}
	f.deployments = append(f.deployments, sourceCodePath)
	return &workspace.Deployment{
		DeploymentID:   fmt.Sprintf("dep-%02d", len(f.deployments)),
		SourceCodePath: sourceCodePath,
		Status:         &workspace.AppStatus{State: "IN_PROGRESS"},
	}, nil
}

func writeTestFile(t *testing.T, fsys afero.Fs, name, content string) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fsys, name, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fixtureFs(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writeTestFile(t, fsys, "app.yaml", "command: [./devkit, service]\n")
	writeTestFile(t, fsys, "go.mod", "module example.com/app\n")
	writeTestFile(t, fsys, "pkg/skills/skills.go", "package skills\n")
	writeTestFile(t, fsys, "pkg/skills/skills_test.go", "package skills\n")
	writeTestFile(t, fsys, "skills/databricks-jobs/SKILL.md", "# jobs\n")
	writeTestFile(t, fsys, "skills/databricks-jobs/scripts/run.py", "print()\n")
	writeTestFile(t, fsys, "skills/__pycache__/cache.pyc", "bin")
	writeTestFile(t, fsys, "skills/notes.txt", "scratch\n")
	return fsys
}

func testManifest() Manifest {
	return Manifest{
		RootFiles: []string{"app.yaml", "go.mod"},
		Trees: []SourceTree{
			{Root: "pkg", Dest: "pkg", Extensions: GoExtensions, ExcludedDirs: DefaultExcludedDirs},
			{Root: "skills", Dest: "skills", Extensions: SkillExtensions, ExcludedDirs: DefaultExcludedDirs, RequireNonEmpty: true},
		},
	}
}

func newTestEngine(fsys afero.Fs, ws Workspace, manifest Manifest, skipDeploy bool) *Engine {
	return NewEngine(fsys, ws, Config{
		AppName:     "ai-dev-kit-mcp",
		Description: "AI dev kit MCP server",
		Manifest:    manifest,
		SkipDeploy:  skipDeploy,
		ImportRate:  rate.Inf,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func remoteFiles(ws *fakeWorkspace) []string {
	files := lo.Keys(ws.files)
	sort.Strings(files)
	return files
}

func mustBefore(t *testing.T, ops []string, first, second string) {
	t.Helper()
	fi := lo.IndexOf(ops, first)
	si := lo.IndexOf(ops, second)
	if fi < 0 || si < 0 {
		t.Fatalf("ops missing %q or %q:\n%s", first, second, strings.Join(ops, "\n"))
	}
	if fi > si {
		t.Errorf("%q happened after %q", first, second)
	}
}

func TestRunMirrorsSourceTree(t *testing.T) {
	fsys := fixtureFs(t)
	ws := newFakeWorkspace("dev@example.com")
	engine := newTestEngine(fsys, ws, testManifest(), false)

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if engine.Stage() != StageDone {
		t.Errorf("stage = %s, want %s", engine.Stage(), StageDone)
	}
	if report.DestRoot != "/Users/dev@example.com/ai-dev-kit-mcp" {
		t.Errorf("DestRoot = %s", report.DestRoot)
	}

	want := []string{
		"/Users/dev@example.com/ai-dev-kit-mcp/app.yaml",
		"/Users/dev@example.com/ai-dev-kit-mcp/go.mod",
		"/Users/dev@example.com/ai-dev-kit-mcp/pkg/skills/skills.go",
		"/Users/dev@example.com/ai-dev-kit-mcp/pkg/skills/skills_test.go",
		"/Users/dev@example.com/ai-dev-kit-mcp/skills/databricks-jobs/SKILL.md",
		"/Users/dev@example.com/ai-dev-kit-mcp/skills/databricks-jobs/scripts/run.py",
	}
	if got := remoteFiles(ws); !reflect.DeepEqual(got, want) {
		t.Errorf("remote files = %v, want %v", got, want)
	}

	if len(ws.deployments) != 1 || ws.deployments[0] != "/Workspace/Users/dev@example.com/ai-dev-kit-mcp" {
		t.Errorf("deployments = %v", ws.deployments)
	}
	if failed := report.FailedItems(); len(failed) != 0 {
		t.Errorf("failed items = %+v", failed)
	}
	if _, ok := ws.apps["ai-dev-kit-mcp"]; !ok {
		t.Error("app was not created")
	}
}

func TestRunRemoteCallOrder(t *testing.T) {
	fsys := fixtureFs(t)
	ws := newFakeWorkspace("dev@example.com")
	ws.apps["ai-dev-kit-mcp"] = &workspace.App{
		Name:      "ai-dev-kit-mcp",
		AppStatus: &workspace.AppStatus{State: "RUNNING"},
		URL:       "https://apps.example.com/ai-dev-kit-mcp",
	}
	engine := newTestEngine(fsys, ws, testManifest(), false)

	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	dest := "/Users/dev@example.com/ai-dev-kit-mcp"
	ops := ws.ops
	if len(ops) < 6 {
		t.Fatalf("too few remote calls: %v", ops)
	}
	if ops[0] != "get_app ai-dev-kit-mcp" {
		t.Errorf("first remote call = %s, want app lookup", ops[0])
	}
	if lo.IndexOf(ops, "create_app ai-dev-kit-mcp") != -1 {
		t.Error("create_app called for an existing app")
	}
	if ops[1] != "me" {
		t.Errorf("second remote call = %s, want identity lookup", ops[1])
	}
	if ops[2] != "delete "+dest {
		t.Errorf("third remote call = %s, want destination delete", ops[2])
	}
	if ops[3] != "mkdirs "+dest {
		t.Errorf("fourth remote call = %s, want destination mkdirs", ops[3])
	}
	if got := ops[len(ops)-2]; got != "deploy ai-dev-kit-mcp /Workspace"+dest {
		t.Errorf("second to last remote call = %s, want deploy trigger", got)
	}
	if got := ops[len(ops)-1]; got != "get_app ai-dev-kit-mcp" {
		t.Errorf("last remote call = %s, want final describe", got)
	}

	// 根文件先于第一棵树
	mustBefore(t, ops, "import "+dest+"/app.yaml", "mkdirs "+dest+"/pkg")
	// 全部同步完成后才触发部署
	mustBefore(t, ops, "import "+dest+"/skills/databricks-jobs/scripts/run.py", "deploy ai-dev-kit-mcp /Workspace"+dest)
}

func TestRunCreatesParentsBeforeChildren(t *testing.T) {
	fsys := fixtureFs(t)
	ws := newFakeWorkspace("dev@example.com")
	engine := newTestEngine(fsys, ws, testManifest(), true)

	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	dest := "/Users/dev@example.com/ai-dev-kit-mcp"
	mustBefore(t, ws.ops, "mkdirs "+dest+"/pkg", "mkdirs "+dest+"/pkg/skills")
	mustBefore(t, ws.ops, "mkdirs "+dest+"/pkg/skills", "import "+dest+"/pkg/skills/skills.go")
	mustBefore(t, ws.ops, "mkdirs "+dest+"/skills/databricks-jobs", "mkdirs "+dest+"/skills/databricks-jobs/scripts")
	mustBefore(t, ws.ops, "mkdirs "+dest+"/skills/databricks-jobs/scripts", "import "+dest+"/skills/databricks-jobs/scripts/run.py")
}

func TestRunFilterAndExclusion(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeTestFile(t, fsys, "a/b.py", "print()\n")
	writeTestFile(t, fsys, "a/notes.txt", "scratch\n")
	writeTestFile(t, fsys, "a/__pycache__/cache.pyc", "bin")

	manifest := Manifest{
		Trees: []SourceTree{{
			Root:         "a",
			Dest:         "a",
			Extensions:   []string{".py"},
			ExcludedDirs: []string{"__pycache__"},
		}},
	}
	ws := newFakeWorkspace("dev@example.com")
	engine := newTestEngine(fsys, ws, manifest, true)

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	dest := "/Users/dev@example.com/ai-dev-kit-mcp/a"
	if _, ok := ws.files[dest+"/b.py"]; !ok {
		t.Error("b.py was not imported")
	}
	if len(ws.files) != 1 {
		t.Errorf("remote files = %v, want only b.py", remoteFiles(ws))
	}
	// 被排除的目录连远端目录都不创建
	if _, ok := ws.dirs[dest+"/__pycache__"]; ok {
		t.Error("excluded directory was created remotely")
	}
	if n := report.CountOf(ActionSkippedExt); n != 1 {
		t.Errorf("skipped extensions = %d, want 1", n)
	}
	if n := report.CountOf(ActionSkippedDir); n != 1 {
		t.Errorf("skipped directories = %d, want 1", n)
	}
}

func TestRunToleratesImportFailure(t *testing.T) {
	fsys := fixtureFs(t)
	ws := newFakeWorkspace("dev@example.com")
	dest := "/Users/dev@example.com/ai-dev-kit-mcp"
	ws.failImports = map[string]error{
		dest + "/pkg/skills/skills.go": internalErr("backend unavailable"),
	}
	engine := newTestEngine(fsys, ws, testManifest(), true)

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want failure tolerated", err)
	}
	if engine.Stage() != StageDone {
		t.Errorf("stage = %s, want %s", engine.Stage(), StageDone)
	}

	failed := report.FailedItems()
	if len(failed) != 1 || failed[0].LocalPath != "pkg/skills/skills.go" {
		t.Errorf("failed items = %+v", failed)
	}
	// 同级文件不受影响
	if _, ok := ws.files[dest+"/pkg/skills/skills_test.go"]; !ok {
		t.Error("sibling file missing after one failed import")
	}
}

func TestRunContinuesAfterDirCreateFailure(t *testing.T) {
	fsys := fixtureFs(t)
	ws := newFakeWorkspace("dev@example.com")
	dest := "/Users/dev@example.com/ai-dev-kit-mcp"
	ws.failMkdirs = map[string]error{
		dest + "/pkg/skills": internalErr("quota exceeded"),
	}
	engine := newTestEngine(fsys, ws, testManifest(), true)

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want failure tolerated", err)
	}
	if len(report.FailedItems()) != 1 {
		t.Errorf("failed items = %+v", report.FailedItems())
	}
	// 目录创建失败后其中的文件仍会尝试上传
	if _, ok := ws.files[dest+"/pkg/skills/skills.go"]; !ok {
		t.Error("files under the failed directory were not attempted")
	}
}

func TestRunPreconditionGate(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, fsys afero.Fs)
	}{
		{"技能目录不存在", func(t *testing.T, fsys afero.Fs) {}},
		{"技能目录没有可上传文件", func(t *testing.T, fsys afero.Fs) {
			writeTestFile(t, fsys, "skills/__pycache__/cache.pyc", "bin")
			writeTestFile(t, fsys, "skills/notes.txt", "scratch")
		}},
		{"缺少根文件", func(t *testing.T, fsys afero.Fs) {
			writeTestFile(t, fsys, "skills/databricks-jobs/SKILL.md", "# jobs")
			if err := fsys.Remove("app.yaml"); err != nil {
				t.Fatal(err)
			}
		}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			writeTestFile(t, fsys, "app.yaml", "command: [./devkit, service]\n")
			writeTestFile(t, fsys, "go.mod", "module example.com/app\n")
			writeTestFile(t, fsys, "pkg/skills/skills.go", "package skills\n")
			tt.setup(t, fsys)

			ws := newFakeWorkspace("dev@example.com")
			engine := newTestEngine(fsys, ws, testManifest(), false)

			if _, err := engine.Run(context.Background()); err == nil {
				t.Fatal("Run() error = nil, want precondition failure")
			}
			// 本地校验不通过时一次远端调用都不能发生
			if len(ws.ops) != 0 {
				t.Errorf("remote calls before precondition check: %v", ws.ops)
			}
			if engine.Stage() != StageStart {
				t.Errorf("stage = %s, want %s", engine.Stage(), StageStart)
			}
		})
	}
}

func TestRunTwiceProducesSameTree(t *testing.T) {
	fsys := fixtureFs(t)
	ws := newFakeWorkspace("dev@example.com")

	first, err := newTestEngine(fsys, ws, testManifest(), true).Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	firstFiles := remoteFiles(ws)
	// 首次部署时目标还不存在，删除失败可容忍且不算失败项
	if n := first.CountOf(ActionDeleted); n != 0 {
		t.Errorf("first run deletions = %d, want 0", n)
	}
	if len(first.FailedItems()) != 0 {
		t.Errorf("first run failed items = %+v", first.FailedItems())
	}

	second, err := newTestEngine(fsys, ws, testManifest(), true).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if n := second.CountOf(ActionDeleted); n != 1 {
		t.Errorf("second run deletions = %d, want 1", n)
	}
	if got := remoteFiles(ws); !reflect.DeepEqual(got, firstFiles) {
		t.Errorf("second run produced a different tree:\n first = %v\nsecond = %v", firstFiles, got)
	}
}

func TestRunToleratesCreateAppRace(t *testing.T) {
	fsys := fixtureFs(t)
	ws := newFakeWorkspace("dev@example.com")
	ws.createAppErr = &workspace.APIError{
		StatusCode: http.StatusConflict,
		ErrorCode:  workspace.ErrCodeResourceAlreadyExists,
		Message:    "app already exists",
	}
	engine := newTestEngine(fsys, ws, testManifest(), true)

	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want create race tolerated", err)
	}
}

func TestRunAbortsWhenDestinationMkdirsFails(t *testing.T) {
	fsys := fixtureFs(t)
	ws := newFakeWorkspace("dev@example.com")
	dest := "/Users/dev@example.com/ai-dev-kit-mcp"
	ws.failMkdirs = map[string]error{dest: internalErr("quota exceeded")}
	engine := newTestEngine(fsys, ws, testManifest(), false)

	if _, err := engine.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want fatal mkdirs failure")
	}
	if engine.Stage() != StageAppEnsured {
		t.Errorf("stage = %s, want %s", engine.Stage(), StageAppEnsured)
	}
	imports := lo.CountBy(ws.ops, func(op string) bool { return strings.HasPrefix(op, "import ") })
	if imports != 0 {
		t.Errorf("imports happened after fatal mkdirs: %v", ws.ops)
	}
}

func TestRunSkipDeploy(t *testing.T) {
	fsys := fixtureFs(t)
	ws := newFakeWorkspace("dev@example.com")
	engine := newTestEngine(fsys, ws, testManifest(), true)

	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(ws.deployments) != 0 {
		t.Errorf("deploy triggered with SkipDeploy set: %v", ws.deployments)
	}
	if engine.Stage() != StageDone {
		t.Errorf("stage = %s, want %s", engine.Stage(), StageDone)
	}
}

func TestAllowedExtension(t *testing.T) {
	cases := []struct {
		name string
		exts []string
		file string
		want bool
	}{
		{"命中白名单", []string{".py"}, "job.py", true},
		{"大小写敏感", []string{".py"}, "JOB.PY", false},
		{"空白名单放行全部", nil, "anything.bin", true},
		{"多后缀白名单", SkillExtensions, "dashboard.sql", true},
		{"不在白名单", []string{".md", ".py"}, "data.csv", false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := allowedExtension(tt.exts, tt.file); got != tt.want {
				t.Errorf("allowedExtension(%v, %s) = %v, want %v", tt.exts, tt.file, got, tt.want)
			}
		})
	}
}

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest("skills")

	if len(m.RootFiles) == 0 {
		t.Fatal("manifest has no root files")
	}
	skillsTree, ok := lo.Find(m.Trees, func(tree SourceTree) bool { return tree.Dest == "skills" })
	if !ok {
		t.Fatal("manifest has no skills tree")
	}
	if !skillsTree.RequireNonEmpty {
		t.Error("skills tree should require at least one deployable file")
	}
	if _, ok := lo.Find(m.Trees, func(tree SourceTree) bool { return tree.Dest == "tpls" }); !ok {
		t.Fatal("manifest has no tpls tree")
	}
	for _, tree := range m.Trees {
		if tree.Dest != "skills" && tree.RequireNonEmpty {
			t.Errorf("tree %s should not require non-empty", tree.Root)
		}
	}
}
