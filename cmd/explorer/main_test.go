package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RiddheshMore/ros-component-explorer/config"
	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/gateway/http"
	"github.com/RiddheshMore/ros-component-explorer/health"
	"github.com/RiddheshMore/ros-component-explorer/storage"
	"github.com/RiddheshMore/ros-component-explorer/testutil"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func dataArgs(t *testing.T, args ...string) []string {
	t.Helper()
	path := testutil.WriteFile(t, "components.ttl", testutil.ComponentsTurtle)
	return append(args, "--data", path, "--log-level", "error")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Equal(t, "explorer version 0.1.0 (build dev)\n", out)
}

func TestList(t *testing.T) {
	out, _, err := execute(t, context.Background(), dataArgs(t, "list")...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Showing all 4 components", strings.TrimSpace(lines[0]))
	assert.True(t, strings.HasPrefix(lines[2], "AMCL"))
	assert.Contains(t, out, storage.DefaultDescription)
	assert.NotContains(t, out, "TurtleBot")
}

func TestSearch_JSON(t *testing.T) {
	out, _, err := execute(t, context.Background(), dataArgs(t, "search", "lidar", "--json")...)
	require.NoError(t, err)

	var res http.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "lidar", res.Term)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, storage.Record{
		URI:         testutil.LidarDriverIRI,
		Name:        "LidarDriver",
		Class:       "SensorDriver",
		Description: "Front lidar",
	}, res.Components[0])
}

func TestSearch_RequiresTerm(t *testing.T) {
	_, _, err := execute(t, context.Background(), dataArgs(t, "search")...)
	assert.Error(t, err)
}

func TestDetails(t *testing.T) {
	out, _, err := execute(t, context.Background(), dataArgs(t, "details", testutil.AMCLIRI)...)
	require.NoError(t, err)
	assert.Contains(t, out, "LocalizationNode")
	assert.Contains(t, out, "/scan, /map")
	assert.Contains(t, out, "nav2_amcl")

	_, _, err = execute(t, context.Background(), dataArgs(t, "details", testutil.UnlabeledIRI)...)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestCount(t *testing.T) {
	out, _, err := execute(t, context.Background(), dataArgs(t, "count")...)
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestList_MissingFileIsEmpty(t *testing.T) {
	out, _, err := execute(t, context.Background(), "list", "--data", filepath.Join(t.TempDir(), "missing.ttl"), "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing all 0 components")
}

func TestValidate(t *testing.T) {
	out, _, err := execute(t, context.Background(), dataArgs(t, "validate")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	_, _, err = execute(t, context.Background(), dataArgs(t, "validate", "--backend", "sqlite")...)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestConfigFileAndFlagOverride(t *testing.T) {
	path := testutil.WriteFile(t, "explorer.yaml", `
store:
  backend: remote
  query_url: http://localhost:7200/repositories/ros-components
log:
  level: warn
  format: text
`)

	out, _, err := execute(t, context.Background(), "validate", "--config", path, "--backend", "local")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(out, "Configuration is valid\n")), &cfg))
	assert.Equal(t, config.BackendLocal, cfg.Store.Backend)
	assert.Equal(t, "http://localhost:7200/repositories/ros-components", cfg.Store.QueryURL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "explorer.log")

	logger, closeLog := setupLogger(config.LogConfig{Level: "debug", Format: "text", File: file, MaxSizeMB: 1}, &buf)
	logger.Debug("Loaded triple file", "triples", 12)
	require.NoError(t, closeLog())

	assert.Contains(t, buf.String(), "service=explorer")
	assert.Contains(t, buf.String(), "triples=12")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
}

func TestSetupLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := setupLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "explorer", entry["service"])
}

func TestServe_StopsOnCancel(t *testing.T) {
	path := testutil.WriteFile(t, "explorer.json", `{
  "http": {"addr": "127.0.0.1:0"},
  "log": {"level": "error"}
}`)
	args := dataArgs(t, "serve", "--config", path)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := execute(t, ctx, args...)
		done <- err
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestNewNATSClient_AnnouncesServiceName(t *testing.T) {
	cfg := config.Default()
	cfg.NATS.URLs = []string{"nats://127.0.0.1:4222", "nats://127.0.0.1:4223"}
	o := &rootOptions{cfg: cfg, logger: slog.New(slog.DiscardHandler)}

	client, err := o.newNATSClient(health.NewMonitor(), nil)
	require.NoError(t, err)
	assert.Equal(t, appName, client.Name())
	assert.Equal(t, "nats://127.0.0.1:4222,nats://127.0.0.1:4223", client.URL())
	assert.False(t, client.IsHealthy())
}
