package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
)

// DefaultDir 技能目录的兜底相对路径
const DefaultDir = "skills"

// TemplateDir 模板目录，不作为技能对外暴露
const TemplateDir = "TEMPLATE"

const (
	searchContextRadius = 50
	maxSearchMatches    = 20
)

// ErrPathOutsideSkill 请求的文件路径越出了技能目录
var ErrPathOutsideSkill = errors.New("access denied: path outside skill directory")

// SkillNotFoundError 技能不存在，携带当前可用的技能列表
type SkillNotFoundError struct {
	Skill     string
	Available []string
}

func (e *SkillNotFoundError) Error() string {
	return fmt.Sprintf("skill '%s' not found", e.Skill)
}

// FileNotFoundError 技能内文件不存在，携带该技能的全部文件清单
type FileNotFoundError struct {
	Skill          string
	File           string
	AvailableFiles []string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file '%s' not found in skill '%s'", e.File, e.Skill)
}

// ErrorPayload 工具层的错误响应，附带可选的候选清单
type ErrorPayload struct {
	Error           string   `json:"error"`
	AvailableSkills []string `json:"available_skills,omitempty"`
	AvailableFiles  []string `json:"available_files,omitempty"`
}

// AsPayload 将技能库错误转换为工具响应负载，其他错误返回 false
func AsPayload(err error) (*ErrorPayload, bool) {
	var skillMissing *SkillNotFoundError
	if errors.As(err, &skillMissing) {
		return &ErrorPayload{Error: skillMissing.Error(), AvailableSkills: skillMissing.Available}, true
	}
	var fileMissing *FileNotFoundError
	if errors.As(err, &fileMissing) {
		return &ErrorPayload{Error: fileMissing.Error(), AvailableFiles: fileMissing.AvailableFiles}, true
	}
	if errors.Is(err, ErrPathOutsideSkill) {
		return &ErrorPayload{Error: ErrPathOutsideSkill.Error()}, true
	}
	return nil, false
}

// Resolve 按顺序返回第一个存在的技能目录，空候选会被跳过。
// 所有候选都不存在时回退到 DefaultDir。
func Resolve(fsys afero.Fs, candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if ok, _ := afero.DirExists(fsys, c); ok {
			return c
		}
	}
	return DefaultDir
}

// Library 提供对技能目录的只读查询。
// 目录结构为 <root>/<skill>/SKILL.md 加任意配套文件。
type Library struct {
	fs   afero.Fs
	root string
}

func New(fsys afero.Fs, root string) *Library {
	return &Library{fs: fsys, root: root}
}

func (l *Library) Root() string {
	return l.root
}

// Summary 单个技能的目录信息
type Summary struct {
	Name        string   `json:"name"`
	Folder      string   `json:"folder"`
	Description string   `json:"description"`
	HasSkillMD  bool     `json:"has_skill_md"`
	Files       []string `json:"files"`
}

// ListResult 技能目录扫描结果
type ListResult struct {
	SkillsDir string    `json:"skills_dir"`
	Exists    bool      `json:"exists"`
	Count     int       `json:"count"`
	Skills    []Summary `json:"skills"`
	Message   string    `json:"message,omitempty"`
}

// List 扫描技能目录。隐藏目录与 TEMPLATE 不会出现在结果里，
// 技能名与描述优先取 SKILL.md frontmatter 中的 name / description。
func (l *Library) List() ListResult {
	exists, _ := afero.DirExists(l.fs, l.root)
	if !exists {
		return ListResult{
			SkillsDir: l.root,
			Exists:    false,
			Skills:    []Summary{},
			Message:   "Skills directory not found. Skills may not be deployed.",
		}
	}

	entries, err := afero.ReadDir(l.fs, l.root)
	if err != nil {
		return ListResult{
			SkillsDir: l.root,
			Exists:    true,
			Skills:    []Summary{},
			Message:   err.Error(),
		}
	}

	result := ListResult{
		SkillsDir: l.root,
		Exists:    true,
		Skills:    make([]Summary, 0, len(entries)),
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || entry.Name() == TemplateDir {
			continue
		}

		folder := entry.Name()
		name := folder
		description := ""

		skillMD := filepath.Join(l.root, folder, "SKILL.md")
		hasSkillMD, _ := afero.Exists(l.fs, skillMD)
		if hasSkillMD {
			if content, err := afero.ReadFile(l.fs, skillMD); err == nil {
				meta, _ := ParseFrontmatter(string(content))
				if v := meta["name"]; v != "" {
					name = v
				}
				description = meta["description"]
			}
		}

		result.Skills = append(result.Skills, Summary{
			Name:        name,
			Folder:      folder,
			Description: description,
			HasSkillMD:  hasSkillMD,
			Files:       l.skillFiles(filepath.Join(l.root, folder)),
		})
	}

	result.Count = len(result.Skills)
	return result
}

// Document 技能文件内容
type Document struct {
	SkillName string            `json:"skill_name"`
	FilePath  string            `json:"file_path"`
	Size      int               `json:"size"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Content   string            `json:"content"`
}

// Get 读取技能文件，filePath 为空时返回 SKILL.md。
// markdown 文件会拆出 frontmatter 作为 Metadata。
func (l *Library) Get(skillName, filePath string) (*Document, error) {
	skillDir := filepath.Join(l.root, skillName)
	if ok, _ := afero.DirExists(l.fs, skillDir); !ok {
		return nil, &SkillNotFoundError{Skill: skillName, Available: l.skillDirs(true)}
	}

	if filePath == "" {
		filePath = "SKILL.md"
	}
	target := filepath.Join(skillDir, filePath)

	// 拼接并清理后的路径必须仍位于技能目录内
	if !withinDir(skillDir, target) {
		return nil, ErrPathOutsideSkill
	}

	if exists, _ := afero.Exists(l.fs, target); !exists {
		return nil, &FileNotFoundError{
			Skill:          skillName,
			File:           filePath,
			AvailableFiles: l.allFiles(skillDir),
		}
	}

	raw, err := afero.ReadFile(l.fs, target)
	if err != nil {
		return nil, fmt.Errorf("read skill file: %w", err)
	}

	rel, err := filepath.Rel(skillDir, target)
	if err != nil {
		rel = filePath
	}

	doc := &Document{
		SkillName: skillName,
		FilePath:  filepath.ToSlash(rel),
		Size:      len(raw),
	}

	content := string(raw)
	if filepath.Ext(target) == ".md" {
		meta, body := ParseFrontmatter(content)
		if len(meta) > 0 {
			doc.Metadata = meta
		}
		doc.Content = body
	} else {
		doc.Content = content
	}

	return doc, nil
}

// TreeNode 技能目录树节点，type 为 directory 或 file
type TreeNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Type     string     `json:"type"`
	Children []TreeNode `json:"children,omitempty"`
}

// TreeResult 技能目录树
type TreeResult struct {
	SkillName string     `json:"skill_name"`
	Tree      []TreeNode `json:"tree"`
}

// Tree 返回技能目录的嵌套结构，目录在前、文件在后，
// 同类按名称（忽略大小写）排序。只收录目录与文档类文件。
func (l *Library) Tree(skillName string) (*TreeResult, error) {
	skillDir := filepath.Join(l.root, skillName)
	if ok, _ := afero.DirExists(l.fs, skillDir); !ok {
		return nil, &SkillNotFoundError{Skill: skillName, Available: l.skillDirs(false)}
	}

	nodes := l.buildTree(skillDir, skillDir)
	if nodes == nil {
		nodes = []TreeNode{}
	}
	return &TreeResult{SkillName: skillName, Tree: nodes}, nil
}

// Match 一条搜索命中
type Match struct {
	Skill     string `json:"skill"`
	MatchType string `json:"match_type"`
	File      string `json:"file,omitempty"`
	Context   string `json:"context"`
}

// SearchResult 搜索结果，MatchCount 为命中总数，Matches 截断到上限
type SearchResult struct {
	Query      string  `json:"query"`
	MatchCount int     `json:"match_count"`
	Matches    []Match `json:"matches"`
}

// Search 在技能名与全部 markdown 内容中做大小写不敏感的子串匹配。
// 上下文截取匹配点前后 50 字符，结果最多返回 20 条。
func (l *Library) Search(query string) (SearchResult, error) {
	result := SearchResult{Query: query, Matches: []Match{}}

	exists, _ := afero.DirExists(l.fs, l.root)
	if !exists {
		return result, fmt.Errorf("skills directory not found: %s", l.root)
	}

	entries, err := afero.ReadDir(l.fs, l.root)
	if err != nil {
		return result, fmt.Errorf("read skills directory: %w", err)
	}

	queryLower := strings.ToLower(query)
	var matches []Match

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		name := entry.Name()
		skillDir := filepath.Join(l.root, name)

		if strings.Contains(strings.ToLower(name), queryLower) {
			matches = append(matches, Match{
				Skill:     name,
				MatchType: "skill_name",
				Context:   fmt.Sprintf("Skill name matches: %s", name),
			})
		}

		afero.Walk(l.fs, skillDir, func(p string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || filepath.Ext(info.Name()) != ".md" {
				return nil
			}
			raw, err := afero.ReadFile(l.fs, p)
			if err != nil {
				// 读不了的文件直接跳过
				return nil
			}

			content := string(raw)
			idx := strings.Index(strings.ToLower(content), queryLower)
			if idx < 0 {
				return nil
			}

			rel, err := filepath.Rel(skillDir, p)
			if err != nil {
				return nil
			}
			matches = append(matches, Match{
				Skill:     name,
				MatchType: "content",
				File:      filepath.ToSlash(rel),
				Context:   searchContext(content, idx, len(queryLower)),
			})
			return nil
		})
	}

	result.MatchCount = len(matches)
	if len(matches) > maxSearchMatches {
		matches = matches[:maxSearchMatches]
	}
	result.Matches = append(result.Matches, matches...)
	return result, nil
}

func (l *Library) buildTree(dir, base string) []TreeNode {
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil
	}

	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].IsDir(), entries[j].IsDir()
		if di != dj {
			return di
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	var nodes []TreeNode
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == "__pycache__" {
			continue
		}

		full := filepath.Join(dir, name)
		rel, err := filepath.Rel(base, full)
		if err != nil {
			continue
		}

		if entry.IsDir() {
			children := l.buildTree(full, base)
			if children == nil {
				children = []TreeNode{}
			}
			nodes = append(nodes, TreeNode{
				Name:     name,
				Path:     filepath.ToSlash(rel),
				Type:     "directory",
				Children: children,
			})
			continue
		}

		switch filepath.Ext(name) {
		case ".md", ".py", ".sql", ".yaml", ".yml":
			nodes = append(nodes, TreeNode{
				Name: name,
				Path: filepath.ToSlash(rel),
				Type: "file",
			})
		}
	}
	return nodes
}

// skillFiles 收集技能自带的 .md 与 .py 文件清单
func (l *Library) skillFiles(dir string) []string {
	files := []string{}
	afero.Walk(l.fs, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		switch filepath.Ext(info.Name()) {
		case ".md":
		case ".py":
			if strings.Contains(p, "__pycache__") {
				return nil
			}
		default:
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(files)
	return files
}

// skillDirs 返回一级技能目录名，excludeTemplate 控制是否隐藏 TEMPLATE
func (l *Library) skillDirs(excludeTemplate bool) []string {
	entries, err := afero.ReadDir(l.fs, l.root)
	if err != nil {
		return []string{}
	}
	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if excludeTemplate && entry.Name() == TemplateDir {
			continue
		}
		dirs = append(dirs, entry.Name())
	}
	return dirs
}

// allFiles 列出技能内全部常规文件，用于文件缺失时的提示
func (l *Library) allFiles(skillDir string) []string {
	files := []string{}
	afero.Walk(l.fs, skillDir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") || strings.Contains(p, "__pycache__") {
			return nil
		}
		rel, err := filepath.Rel(skillDir, p)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(files)
	return files
}

// withinDir 判断 target 清理后是否仍位于 dir 内
func withinDir(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// searchContext 截取匹配点附近的文本，换行压成空格，截断处补省略号
func searchContext(content string, idx, matchLen int) string {
	start := idx - searchContextRadius
	if start < 0 {
		start = 0
	}
	end := idx + matchLen + searchContextRadius
	if end > len(content) {
		end = len(content)
	}

	// 避免把多字节字符切成两半
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}

	context := strings.TrimSpace(strings.ReplaceAll(content[start:end], "\n", " "))
	if start > 0 {
		context = "..." + context
	}
	if end < len(content) {
		context = context + "..."
	}
	return context
}
