package core

import (
	"io"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/devkit-ai/devkit-ai/app/core/srv"
	"github.com/devkit-ai/devkit-ai/pkg/skills"
	"github.com/devkit-ai/devkit-ai/pkg/utils"
)

type Core struct {
	cfg CoreConfig
	srv *srv.Srv

	skills *skills.Library

	httpEngine *gin.Engine
	metrics    *Metrics
}

func MustSetupCore(cfg CoreConfig) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28,   //days
				Compress:   true, // disabled by default
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	utils.SetupIDWorker(1)

	core := &Core{
		cfg:        cfg,
		metrics:    NewMetrics("devkit", "core"),
		httpEngine: gin.New(),
	}

	// setup skills library
	setupSkills(core)

	core.srv = srv.SetupSrvs(
		srv.ApplyAI(cfg.AI), // serving endpoint driver
	)

	return core
}

func setupSkills(core *Core) {
	fsys := afero.NewOsFs()
	root := skills.Resolve(fsys, core.cfg.Skills.Candidates()...)
	core.skills = skills.New(fsys, root)
	slog.Info("skills library ready", slog.String("dir", root))
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}

func (s *Core) Skills() *skills.Library {
	return s.skills
}
