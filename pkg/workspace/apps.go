package workspace

import (
	"context"
	"fmt"
	"net/http"
)

// AppStatus 应用或计算资源的状态
type AppStatus struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// App 托管应用描述
type App struct {
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	URL           string     `json:"url,omitempty"`
	AppStatus     *AppStatus `json:"app_status,omitempty"`
	ComputeStatus *AppStatus `json:"compute_status,omitempty"`
}

// Deployment 一次应用部署
type Deployment struct {
	DeploymentID   string     `json:"deployment_id,omitempty"`
	SourceCodePath string     `json:"source_code_path"`
	Status         *AppStatus `json:"status,omitempty"`
}

// GetApp 查询应用，应用不存在时返回 IsNotFound 可识别的错误
func (c *Client) GetApp(ctx context.Context, name string) (*App, error) {
	var app App
	if err := c.do(ctx, http.MethodGet, "/api/2.0/apps/"+name, nil, nil, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// CreateApp 创建应用。创建是异步的，返回时计算资源可能仍在启动。
func (c *Client) CreateApp(ctx context.Context, name, description string) (*App, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
	}
	var app App
	if err := c.do(ctx, http.MethodPost, "/api/2.0/apps", nil, body, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// DeployApp 基于已上传的源码目录触发一次部署。
// 平台受理不代表应用启动成功，最终状态以 GetApp 为准。
func (c *Client) DeployApp(ctx context.Context, name, sourceCodePath string) (*Deployment, error) {
	body := map[string]any{
		"source_code_path": sourceCodePath,
	}
	var deployment Deployment
	path := fmt.Sprintf("/api/2.0/apps/%s/deployments", name)
	if err := c.do(ctx, http.MethodPost, path, nil, body, &deployment); err != nil {
		return nil, err
	}
	return &deployment, nil
}
