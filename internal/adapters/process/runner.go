package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/refitlabs/refit/internal/logging"
	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/ports"
)

// envelope is the JSON handed to the phase command on stdin.
type envelope struct {
	RunID     string            `json:"run_id"`
	Phase     int               `json:"phase"`
	PhaseName string            `json:"phase_name"`
	Priors    map[string]string `json:"prior_artifacts"`
	Feedback  string            `json:"feedback,omitempty"`
}

// reply is the JSON the phase command must print on stdout.
type reply struct {
	Content string `json:"content"`
	Summary string `json:"summary"`
}

// Runner implements ports.PhaseExecutor by executing one registered local
// process per phase. The command receives a JSON envelope on stdin and must
// print a JSON result on stdout; stderr is passed through to the operator.
type Runner struct {
	registry map[string]PhaseConfig
	baseDir  string
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded registry.
func WithRegistry(registry map[string]PhaseConfig) RunnerOption {
	return func(r *Runner) {
		for name, cfg := range registry {
			r.registry[name] = cfg
		}
	}
}

// WithBaseDir sets the default working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger configures a logger for the runner.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new process-backed phase executor.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]PhaseConfig),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a phase command to the allow-list.
func (r *Runner) Register(phase string, command string, args ...string) {
	r.registry[phase] = PhaseConfig{Phase: phase, Command: command, Args: args}
}

// Execute runs the registered command for the requested phase.
func (r *Runner) Execute(ctx context.Context, req ports.ExecuteRequest) (*ports.ExecuteResult, error) {
	name := domain.PhaseName(req.Phase)
	cfg, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("no executor registered for phase %q", name)
	}

	settings, err := cfg.DecodeSettings()
	if err != nil {
		return nil, err
	}
	if timeout := settings.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	priors := make(map[string]string, len(req.Priors))
	for idx, content := range req.Priors {
		priors[strconv.Itoa(idx)] = content
	}
	input, err := json.Marshal(envelope{
		RunID:     req.RunID,
		Phase:     req.Phase,
		PhaseName: name,
		Priors:    priors,
		Feedback:  req.Feedback,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal executor input: %w", err)
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stderr = os.Stderr
	if settings.WorkDir != "" {
		cmd.Dir = settings.WorkDir
	} else if r.baseDir != "" {
		cmd.Dir = r.baseDir
	}
	cmd.Env = os.Environ()
	for k, v := range cfg.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Env = append(cmd.Env,
		"REFIT_RUN_ID="+req.RunID,
		"REFIT_PHASE="+strconv.Itoa(req.Phase),
		"REFIT_PHASE_NAME="+name,
	)

	r.logger.Debug("executing phase command",
		"phase", name, "command", cfg.Command, "args", strings.Join(cfg.Args, " "))

	stdout, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("phase command %q failed: %w", cfg.Command, err)
	}

	var out reply
	if err := json.Unmarshal(stdout, &out); err != nil {
		return nil, fmt.Errorf("phase command %q produced invalid output: %w", cfg.Command, err)
	}
	if out.Content == "" {
		return nil, fmt.Errorf("phase command %q produced empty content", cfg.Command)
	}
	if out.Summary == "" {
		out.Summary = firstLine(out.Content)
	}

	return &ports.ExecuteResult{Content: out.Content, Summary: out.Summary}, nil
}

// firstLine trims content down to a usable one-line summary.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 120
	if len(s) > max {
		s = s[:max]
	}
	return s
}
