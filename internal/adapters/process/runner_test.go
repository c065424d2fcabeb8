package process_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refitlabs/refit/internal/adapters/process"
	"github.com/refitlabs/refit/pkg/ports"
)

var _ ports.PhaseExecutor = (*process.Runner)(nil)

// echoScript reads the envelope from stdin and replies with a JSON result
// embedding selected fields, so tests can assert the wiring end to end.
const echoScript = `
input=$(cat)
feedback=$(printf '%s' "$input" | sed -n 's/.*"feedback":"\([^"]*\)".*/\1/p')
printf '{"content":"phase=%s feedback=%s","summary":"done"}' "$REFIT_PHASE_NAME" "$feedback"
`

func TestRunner_Execute(t *testing.T) {
	runner := process.NewRunner()
	runner.Register("scan", "sh", "-c", echoScript)

	result, err := runner.Execute(context.Background(), ports.ExecuteRequest{
		RunID: "run-1",
		Phase: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "phase=scan feedback=", result.Content)
	assert.Equal(t, "done", result.Summary)
}

func TestRunner_FeedbackReachesCommand(t *testing.T) {
	runner := process.NewRunner()
	runner.Register("plan", "sh", "-c", echoScript)

	result, err := runner.Execute(context.Background(), ports.ExecuteRequest{
		RunID:    "run-1",
		Phase:    3,
		Feedback: "add rollback steps",
	})
	require.NoError(t, err)
	assert.Equal(t, "phase=plan feedback=add rollback steps", result.Content)
}

func TestRunner_UnregisteredPhase(t *testing.T) {
	runner := process.NewRunner()

	_, err := runner.Execute(context.Background(), ports.ExecuteRequest{RunID: "run-1", Phase: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no executor registered")
}

func TestRunner_CommandFailure(t *testing.T) {
	runner := process.NewRunner()
	runner.Register("scan", "sh", "-c", "exit 3")

	_, err := runner.Execute(context.Background(), ports.ExecuteRequest{RunID: "run-1", Phase: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
}

func TestRunner_InvalidOutput(t *testing.T) {
	runner := process.NewRunner()
	runner.Register("scan", "sh", "-c", "echo not-json")

	_, err := runner.Execute(context.Background(), ports.ExecuteRequest{RunID: "run-1", Phase: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output")
}

func TestRunner_SummaryDefaultsToFirstLine(t *testing.T) {
	runner := process.NewRunner()
	runner.Register("scan", "sh", "-c", `printf '{"content":"first line\\nsecond line"}'`)

	result, err := runner.Execute(context.Background(), ports.ExecuteRequest{RunID: "run-1", Phase: 1})
	require.NoError(t, err)
	assert.Equal(t, "first line", result.Summary)
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phases.yaml")
	content := `
phases:
  - phase: scan
    command: ./bin/scan.sh
    args: ["--deep"]
    env:
      SCAN_MODE: full
    settings:
      timeout_seconds: 300
  - phase: critique
    command: ./bin/critique.sh
  - phase: ""
    command: ignored
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	registry, err := process.LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, registry, 2)

	scan := registry["scan"]
	assert.Equal(t, "./bin/scan.sh", scan.Command)
	assert.Equal(t, []string{"--deep"}, scan.Args)
	assert.Equal(t, "full", scan.Environment["SCAN_MODE"])

	settings, err := scan.DecodeSettings()
	require.NoError(t, err)
	assert.Equal(t, 300, settings.TimeoutSeconds)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	registry, err := process.LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, registry)
}
