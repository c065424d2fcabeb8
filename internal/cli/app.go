package cli

import (
	"io"
	"log/slog"
	"os"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/refitlabs/refit/internal/adapters/file"
	"github.com/refitlabs/refit/internal/adapters/process"
	"github.com/refitlabs/refit/internal/adapters/redis"
	"github.com/refitlabs/refit/internal/config"
	"github.com/refitlabs/refit/internal/logging"
	"github.com/refitlabs/refit/internal/metrics"
	"github.com/refitlabs/refit/pkg/persistence/middleware"
	"github.com/refitlabs/refit/pkg/pipeline"
	"github.com/refitlabs/refit/pkg/ports"
	"github.com/refitlabs/refit/pkg/runs"
)

// lockTTL bounds how long a crashed invocation can hold a run hostage.
const lockTTL = 5 * time.Minute

// App wires the configured storage backend, the phase executor and the
// pipeline controller behind the cobra commands.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	runs      ports.RunStore
	states    ports.StateStore
	artifacts ports.ArtifactStore
	manager   *runs.Manager
	control   *pipeline.Controller
	locker    ports.DistributedLocker

	executorStub ports.PhaseExecutor
	render       func(string) (string, error)

	jsonOut bool
	stdout  io.Writer
	version string
}

// AppOption configures the App.
type AppOption func(*App)

// WithLogger configures the application logger.
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithJSONOutput switches checkpoint output to machine-readable JSON.
func WithJSONOutput(enabled bool) AppOption {
	return func(a *App) {
		a.jsonOut = enabled
	}
}

// WithStdout redirects output. Intended for tests.
func WithStdout(w io.Writer) AppOption {
	return func(a *App) {
		a.stdout = w
	}
}

// WithStores overrides the storage backend. Intended for tests.
func WithStores(runStore ports.RunStore, states ports.StateStore, artifacts ports.ArtifactStore) AppOption {
	return func(a *App) {
		a.runs = runStore
		a.states = states
		a.artifacts = artifacts
	}
}

// WithVersion stamps the version reported by serve and version commands.
func WithVersion(v string) AppOption {
	return func(a *App) {
		a.version = v
	}
}

// executorOverride swaps the process runner for a stub. Test hook.
func executorOverride(exec ports.PhaseExecutor) AppOption {
	return func(a *App) {
		a.executorStub = exec
	}
}

// NewApp builds the application from configuration. The storage backend is
// file-based unless redis_addr is set; redis also brings a per-run advisory
// lock so concurrent invocations cannot race a run.
func NewApp(cfg config.Config, opts ...AppOption) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: logging.NewNop(),
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.runs == nil {
		if cfg.RedisAddr != "" {
			client := backend.NewClient(&backend.Options{Addr: cfg.RedisAddr})
			store := redis.NewFromClient(client)
			a.runs, a.states, a.artifacts = store, store, store
			a.locker = redis.NewLocker(client, "refit:lock:")
		} else {
			store := file.New(cfg.RunsDir)
			a.runs, a.states, a.artifacts = store, store, store
		}
	}

	if err := a.wrapArtifacts(); err != nil {
		return nil, err
	}

	executor := a.executorStub
	if executor == nil {
		registry, err := process.LoadRegistry(cfg.PhasesFile)
		if err != nil {
			return nil, err
		}
		executor = process.NewRunner(
			process.WithRegistry(registry),
			process.WithLogger(a.logger),
		)
	}

	a.manager = runs.NewManager(a.runs, a.states, runs.WithLogger(a.logger))
	a.control = pipeline.NewController(a.states, a.artifacts, executor,
		pipeline.WithLogger(a.logger),
		pipeline.WithPolicy(pipeline.Policy(cfg.Precedence)),
		pipeline.WithHooks(metrics.Hooks()),
	)
	return a, nil
}

// wrapArtifacts layers the configured redaction and encryption middlewares
// over the artifact store. Redaction runs first so only masked content is
// ever encrypted and persisted.
func (a *App) wrapArtifacts() error {
	var chain []middleware.Middleware
	if a.cfg.Artifacts.Redact || len(a.cfg.Artifacts.RedactPatterns) > 0 {
		chain = append(chain, middleware.NewRedactionMiddleware(a.cfg.Artifacts.RedactPatterns))
	}

	key, err := a.cfg.Artifacts.DecodeKey()
	if err != nil {
		return err
	}
	if key != nil {
		fallbacks, err := a.cfg.Artifacts.DecodeFallbackKeys()
		if err != nil {
			return err
		}
		chain = append(chain, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    key,
			FallbackKeys: fallbacks,
		}))
	}

	if len(chain) > 0 {
		a.artifacts = middleware.Chain(a.artifacts, chain...)
	}
	return nil
}
