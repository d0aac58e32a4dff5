package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/devkit-ai/devkit-ai/pkg/types"
	"github.com/devkit-ai/devkit-ai/pkg/workspace"
)

const (
	defaultProfile = "dbx_shared_demo"
	defaultAppName = "ai-dev-kit-mcp"

	probeTimeout = 10 * time.Second
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [profile] [app-name]",
		Short: "describe the deployed app and probe its health endpoint",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := defaultProfile
			appName := defaultAppName
			if len(args) > 0 && args[0] != "" {
				profile = args[0]
			}
			if len(args) > 1 && args[1] != "" {
				appName = args[1]
			}
			return Run(cmd.Context(), profile, appName)
		},
	}
}

func Run(ctx context.Context, profileName, appName string) error {
	profile, err := workspace.LoadProfile(profileName)
	if err != nil {
		return err
	}

	client := workspace.NewClientFromProfile(profile)
	app, err := client.GetApp(ctx, appName)
	if err != nil {
		return fmt.Errorf("describe app %s: %w", appName, err)
	}

	fmt.Printf("app: %s\n", app.Name)
	if app.AppStatus != nil {
		fmt.Printf("state: %s\n", app.AppStatus.State)
		if app.AppStatus.Message != "" {
			fmt.Printf("message: %s\n", app.AppStatus.Message)
		}
	}
	if app.ComputeStatus != nil {
		fmt.Printf("compute: %s\n", app.ComputeStatus.State)
	}
	if app.URL == "" {
		fmt.Println("app has no URL yet, skipping health probe")
		return nil
	}
	fmt.Printf("url: %s\n", app.URL)

	health, err := probeHealth(ctx, app.URL, profile.Token)
	if err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	fmt.Printf("health: %s (tools: %d, skills: %d)\n", health.Status, health.ToolsCount, health.SkillsCount)
	return nil
}

// probeHealth 访问已部署应用的健康检查接口
func probeHealth(ctx context.Context, baseURL, token string) (*types.HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var health types.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, err
	}
	return &health, nil
}
