package skills

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFrontmatter 解析技能文档头部的 YAML frontmatter。
// 返回元数据表和剩余正文，文档未携带 frontmatter 时元数据为 nil。
func ParseFrontmatter(content string) (map[string]string, string) {
	if !strings.HasPrefix(content, "---") {
		return nil, content
	}

	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return nil, content
	}

	meta := make(map[string]string)
	raw := make(map[string]any)
	if err := yaml.Unmarshal([]byte(parts[1]), &raw); err == nil {
		for k, v := range raw {
			switch v := v.(type) {
			case string:
				meta[k] = v
			case nil:
			case int, int64, float64, bool:
				meta[k] = fmt.Sprint(v)
			}
		}
	}

	return meta, strings.TrimSpace(parts[2])
}
