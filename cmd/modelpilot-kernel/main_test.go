package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/manthysbr/modelpilot/internal/adapters/runner"
	appconfig "github.com/manthysbr/modelpilot/internal/config"
	"github.com/manthysbr/modelpilot/internal/core/domain"
	"github.com/manthysbr/modelpilot/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestEncryptCommand_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(appconfig.EnvSecretKey, "test-passphrase")

	out, err := executeCommand(t, "encrypt", "sk-live-123")
	require.NoError(t, err)

	enc := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(enc, "enc:"))

	secret, err := appconfig.LoadSecretKey()
	require.NoError(t, err)
	plain, err := secret.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "sk-live-123", plain)
}

func TestEncryptCommand_RequiresArgument(t *testing.T) {
	_, err := executeCommand(t, "encrypt")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(appconfig.EnvSecretKey, "")
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
resources:
  - id: only-one
    provider: acme
    performance:
      speed: fast
      accuracy: 0.9
      latency_ms: 500
`), 0o600))

	out, err := executeCommand(t, "validate", "--config", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (1 resources, runner simulated)")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
resources:
  - id: broken
    performance:
      accuracy: 7
`), 0o600))

	_, err = executeCommand(t, "validate", "-c", bad)
	assert.Error(t, err)
}

func TestNewTaskRunner(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := domain.DefaultConfig().Executor
	_, ok := newTaskRunner(logger, cfg).(*runner.Simulator)
	assert.True(t, ok)

	cfg.Runner = domain.RunnerHTTP
	cfg.Endpoint = "http://localhost:9000/run"
	_, ok = newTaskRunner(logger, cfg).(*runner.HTTPRunner)
	assert.True(t, ok)
}

func TestNewTaskRunner_AppliesDegradeRules(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := domain.DefaultConfig().Executor
	cfg.Jitter = 0
	cfg.Degrade = []domain.DegradeRule{{ResourceID: "slow", Factor: 3}}
	r := newTaskRunner(logger, cfg)

	degraded := domain.Resource{ID: "slow", Performance: domain.PerformanceProfile{Accuracy: 0.9, LatencyMs: 400, Reliability: 1}}
	out, _ := r.Run(context.Background(), degraded, domain.Task{})
	assert.InDelta(t, 1200, out.LatencyMs, 1e-9)

	healthy := degraded
	healthy.ID = "fine"
	out, err := r.Run(context.Background(), healthy, domain.Task{})
	require.NoError(t, err)
	assert.InDelta(t, 400, out.LatencyMs, 1e-9)
}

func TestSelectInitialResource(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine := services.NewEngine(logger, domain.DefaultResources())
	selectInitialResource(logger, engine)

	cur, ok := engine.CurrentResource()
	require.True(t, ok)
	best, _ := engine.SelectBest(domain.SelectionCriteria{Priority: domain.PriorityBalanced})
	assert.Equal(t, best.ResourceID, cur.ID)

	hist := engine.SwitchHistory()
	require.Len(t, hist, 1)
	assert.Equal(t, domain.ActorSystem, hist[0].Actor)

	empty := services.NewEngine(logger, nil)
	selectInitialResource(logger, empty)
	_, ok = empty.CurrentResource()
	assert.False(t, ok)
}
