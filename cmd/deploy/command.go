package deploy

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/devkit-ai/devkit-ai/pkg/deploy"
	"github.com/devkit-ai/devkit-ai/pkg/workspace"
)

const (
	DefaultProfile = "dbx_shared_demo"
	DefaultAppName = "ai-dev-kit-mcp"

	defaultDescription = "AI Dev Kit MCP server"
)

type Options struct {
	ConfigPath string
	SkipDeploy bool
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "deploy manifest overrides (toml)")
	flagSet.BoolVar(&o.SkipDeploy, "skip-deploy", false, "sync files without triggering a deployment")
}

func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "deploy [profile] [app-name]",
		Short: "mirror the repository into the workspace and deploy the app",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, appName := resolveTarget(args)
			return Run(cmd.Context(), opts, profile, appName)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func resolveTarget(args []string) (string, string) {
	profile := DefaultProfile
	appName := DefaultAppName
	if len(args) > 0 && args[0] != "" {
		profile = args[0]
	}
	if len(args) > 1 && args[1] != "" {
		appName = args[1]
	}
	return profile, appName
}

// Config 同步清单的可选覆盖项
type Config struct {
	Description string       `toml:"description"`
	SkillsDir   string       `toml:"skills_dir"`
	ImportRate  float64      `toml:"import_rate"`
	RootFiles   []string     `toml:"root_files"`
	Trees       []TreeConfig `toml:"trees"`
}

type TreeConfig struct {
	Root            string   `toml:"root"`
	Dest            string   `toml:"dest"`
	Extensions      []string `toml:"extensions"`
	ExcludedDirs    []string `toml:"excluded_dirs"`
	RequireNonEmpty bool     `toml:"require_non_empty"`
}

func MustLoadConfig(path string) Config {
	var conf Config
	if path == "" {
		return conf
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	if err = toml.Unmarshal(raw, &conf); err != nil {
		panic(err)
	}
	return conf
}

// Manifest 生成同步清单，未覆盖的部分取仓库默认布局
func (c Config) Manifest() deploy.Manifest {
	m := deploy.DefaultManifest(c.SkillsDir)
	if len(c.RootFiles) > 0 {
		m.RootFiles = c.RootFiles
	}
	if len(c.Trees) > 0 {
		m.Trees = lo.Map(c.Trees, func(t TreeConfig, _ int) deploy.SourceTree {
			return deploy.SourceTree{
				Root:            t.Root,
				Dest:            t.Dest,
				Extensions:      t.Extensions,
				ExcludedDirs:    t.ExcludedDirs,
				RequireNonEmpty: t.RequireNonEmpty,
			}
		})
	}
	return m
}

func Run(ctx context.Context, opts *Options, profileName, appName string) error {
	conf := MustLoadConfig(opts.ConfigPath)

	profile, err := workspace.LoadProfile(profileName)
	if err != nil {
		return err
	}

	description := conf.Description
	if description == "" {
		description = defaultDescription
	}

	engine := deploy.NewEngine(afero.NewOsFs(), workspace.NewClientFromProfile(profile), deploy.Config{
		AppName:     appName,
		Description: description,
		Manifest:    conf.Manifest(),
		SkipDeploy:  opts.SkipDeploy,
		ImportRate:  rate.Limit(conf.ImportRate),
		Out:         os.Stdout,
	})

	report, runErr := engine.Run(ctx)
	if len(report.Items) > 0 || runErr == nil {
		fmt.Print(report.Summary())
	}
	return runErr
}
