package core

import (
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/devkit-ai/devkit-ai/app/core/srv"
	"github.com/devkit-ai/devkit-ai/pkg/skills"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	return c
}

type CoreConfig struct {
	Addr   string       `toml:"addr"`
	Log    Log          `toml:"log"`
	Skills SkillsConfig `toml:"skills"`
	AI     srv.AIConfig `toml:"ai"`
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("DEVKIT_API_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.AI.FromENV()
}

// ListenAddr 监听地址，优先级：addr 配置 → PORT 环境变量 → :8000
func (c CoreConfig) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8000"
}

// SkillsConfig 技能目录配置
type SkillsConfig struct {
	Dir string `toml:"dir"`
}

// Candidates 技能目录候选列表，按优先级排列。
// 平台部署时依次检查 SKILLS_DIR 与应用工作区内的 skills 目录。
func (s SkillsConfig) Candidates() []string {
	candidates := []string{os.Getenv("SKILLS_DIR"), s.Dir}
	if appRoot := os.Getenv("DATABRICKS_APP_ROOT"); appRoot != "" {
		candidates = append(candidates, path.Join("/Workspace", appRoot, "skills"))
	}
	return append(candidates, skills.DefaultDir, "../databricks-skills")
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("DEVKIT_API_LOG_LEVEL")
	l.Path = os.Getenv("DEVKIT_API_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
