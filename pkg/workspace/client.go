package workspace

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// 工作区 API 返回的部分错误码，用于判定可容忍的失败
const (
	ErrCodeResourceDoesNotExist  = "RESOURCE_DOES_NOT_EXIST"
	ErrCodeResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeAlreadyExists         = "ALREADY_EXISTS"
)

// APIError 平台返回的结构化错误，Message 原样透出，不做翻译
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.ErrorCode, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// IsNotFound 资源不存在
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode == ErrCodeResourceDoesNotExist ||
		apiErr.ErrorCode == ErrCodeNotFound ||
		apiErr.StatusCode == http.StatusNotFound
}

// IsAlreadyExists 资源已存在
func IsAlreadyExists(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode == ErrCodeResourceAlreadyExists ||
		apiErr.ErrorCode == ErrCodeAlreadyExists
}

// Client 工作区 REST API 客户端
type Client struct {
	host       string
	token      string
	httpClient *http.Client
}

func NewClient(host, token string) *Client {
	return &Client{
		host:       strings.TrimRight(host, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func NewClientFromProfile(p Profile) *Client {
	return NewClient(p.Host, p.Token)
}

func (c *Client) Host() string {
	return c.host
}

// CurrentUser 返回当前令牌对应的用户名
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	var out struct {
		UserName string `json:"userName"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/2.0/preview/scim/v2/Me", nil, nil, &out); err != nil {
		return "", err
	}
	return out.UserName, nil
}

// Delete 删除工作区路径，目标不存在时返回 IsNotFound 可识别的错误
func (c *Client) Delete(ctx context.Context, path string, recursive bool) error {
	body := map[string]any{
		"path":      path,
		"recursive": recursive,
	}
	return c.do(ctx, http.MethodPost, "/api/2.0/workspace/delete", nil, body, nil)
}

// Mkdirs 递归创建工作区目录，目录已存在时平台视为成功
func (c *Client) Mkdirs(ctx context.Context, path string) error {
	body := map[string]any{"path": path}
	return c.do(ctx, http.MethodPost, "/api/2.0/workspace/mkdirs", nil, body, nil)
}

// Import 上传单个文件，format 固定为 AUTO，由平台识别文件类型
func (c *Client) Import(ctx context.Context, path string, content []byte, overwrite bool) error {
	body := map[string]any{
		"path":      path,
		"format":    "AUTO",
		"content":   base64.StdEncoding.EncodeToString(content),
		"overwrite": overwrite,
	}
	return c.do(ctx, http.MethodPost, "/api/2.0/workspace/import", nil, body, nil)
}

// ObjectInfo 工作区对象信息
type ObjectInfo struct {
	Path       string `json:"path"`
	ObjectType string `json:"object_type"`
	ObjectID   int64  `json:"object_id,omitempty"`
}

// List 列出工作区路径下的对象
func (c *Client) List(ctx context.Context, path string) ([]ObjectInfo, error) {
	query := url.Values{}
	query.Set("path", path)

	var out struct {
		Objects []ObjectInfo `json:"objects"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/2.0/workspace/list", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Objects, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	u := c.host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
