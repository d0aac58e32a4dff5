package workspace_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkit-ai/devkit-ai/pkg/workspace"
)

func TestCurrentUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/preview/scim/v2/Me", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"userName": "dev@example.com"})
	}))
	defer srv.Close()

	client := workspace.NewClient(srv.URL, "test-token")
	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", user)
}

func TestImport(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/workspace/import", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := workspace.NewClient(srv.URL, "t")
	err := client.Import(context.Background(), "/Users/dev/app/main.go", []byte("package main"), true)
	require.NoError(t, err)

	assert.Equal(t, "/Users/dev/app/main.go", got["path"])
	assert.Equal(t, "AUTO", got["format"])
	assert.Equal(t, true, got["overwrite"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("package main")), got["content"])
}

func TestDeleteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error_code": "RESOURCE_DOES_NOT_EXIST",
			"message":    "Path (/Users/dev/app) doesn't exist.",
		})
	}))
	defer srv.Close()

	client := workspace.NewClient(srv.URL, "t")
	err := client.Delete(context.Background(), "/Users/dev/app", true)
	require.Error(t, err)
	assert.True(t, workspace.IsNotFound(err))
	// 平台错误信息原样透出
	assert.Contains(t, err.Error(), "Path (/Users/dev/app) doesn't exist.")
}

func TestList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/workspace/list", r.URL.Path)
		assert.Equal(t, "/Users/dev/app", r.URL.Query().Get("path"))
		json.NewEncoder(w).Encode(map[string]any{
			"objects": []map[string]any{
				{"path": "/Users/dev/app/cmd", "object_type": "DIRECTORY"},
				{"path": "/Users/dev/app/go.mod", "object_type": "FILE"},
			},
		})
	}))
	defer srv.Close()

	client := workspace.NewClient(srv.URL, "t")
	objects, err := client.List(context.Background(), "/Users/dev/app")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "DIRECTORY", objects[0].ObjectType)
}

func TestAppLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/2.0/apps/demo-app":
			json.NewEncoder(w).Encode(map[string]any{
				"name":       "demo-app",
				"url":        "https://demo-app.example.cloud",
				"app_status": map[string]string{"state": "RUNNING"},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/2.0/apps":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "demo-app", body["name"])
			json.NewEncoder(w).Encode(map[string]any{"name": "demo-app"})
		case r.Method == http.MethodPost && r.URL.Path == "/api/2.0/apps/demo-app/deployments":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "/Workspace/Users/dev/demo-app", body["source_code_path"])
			json.NewEncoder(w).Encode(map[string]any{
				"deployment_id":    "dep-1",
				"source_code_path": "/Workspace/Users/dev/demo-app",
				"status":           map[string]string{"state": "IN_PROGRESS"},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	client := workspace.NewClient(srv.URL, "t")
	ctx := context.Background()

	app, err := client.GetApp(ctx, "demo-app")
	require.NoError(t, err)
	assert.Equal(t, "RUNNING", app.AppStatus.State)
	assert.Equal(t, "https://demo-app.example.cloud", app.URL)

	_, err = client.CreateApp(ctx, "demo-app", "MCP tool server")
	require.NoError(t, err)

	deployment, err := client.DeployApp(ctx, "demo-app", "/Workspace/Users/dev/demo-app")
	require.NoError(t, err)
	assert.Equal(t, "dep-1", deployment.DeploymentID)
	assert.Equal(t, "IN_PROGRESS", deployment.Status.State)
}

func TestAPIErrorPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	client := workspace.NewClient(srv.URL, "t")
	err := client.Mkdirs(context.Background(), "/Users/dev/app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream unavailable")
	assert.False(t, workspace.IsNotFound(err))
}

func TestIsAlreadyExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error_code": "RESOURCE_ALREADY_EXISTS",
			"message":    "App demo-app already exists.",
		})
	}))
	defer srv.Close()

	client := workspace.NewClient(srv.URL, "t")
	_, err := client.CreateApp(context.Background(), "demo-app", "")
	require.Error(t, err)
	assert.True(t, workspace.IsAlreadyExists(err))
	assert.False(t, workspace.IsNotFound(err))
}
