package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// Profile 一份工作区访问凭据
type Profile struct {
	Name  string
	Host  string
	Token string
}

// LoadProfile 从 CLI 配置文件中读取指定 profile。
// 配置文件路径取 DATABRICKS_CONFIG_FILE，缺省为 ~/.databrickscfg；
// 文件或字段缺失时回退到 DATABRICKS_HOST / DATABRICKS_TOKEN 环境变量。
func LoadProfile(name string) (Profile, error) {
	p := Profile{Name: name}

	if path, err := configFilePath(); err == nil {
		if cfg, err := ini.Load(path); err == nil {
			if sec, err := cfg.GetSection(name); err == nil {
				p.Host = sec.Key("host").String()
				p.Token = sec.Key("token").String()
			}
		}
	}

	if p.Host == "" {
		p.Host = os.Getenv("DATABRICKS_HOST")
	}
	if p.Token == "" {
		p.Token = os.Getenv("DATABRICKS_TOKEN")
	}

	if p.Host == "" || p.Token == "" {
		return Profile{}, fmt.Errorf("profile %q: host or token not configured (checked config file and DATABRICKS_HOST/DATABRICKS_TOKEN)", name)
	}

	p.Host = strings.TrimRight(p.Host, "/")
	return p, nil
}

func configFilePath() (string, error) {
	if path := os.Getenv("DATABRICKS_CONFIG_FILE"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".databrickscfg"), nil
}
