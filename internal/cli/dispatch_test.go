package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refitlabs/refit/internal/adapters/memory"
	"github.com/refitlabs/refit/internal/config"
	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/ports"
)

type stubExecutor struct {
	calls    []int
	failures map[int]int
}

func (s *stubExecutor) Execute(ctx context.Context, req ports.ExecuteRequest) (*ports.ExecuteResult, error) {
	s.calls = append(s.calls, req.Phase)
	if s.failures[req.Phase] > 0 {
		s.failures[req.Phase]--
		return nil, errors.New("executor exploded")
	}
	content := "output of " + domain.PhaseName(req.Phase)
	if req.Feedback != "" {
		content += " | feedback: " + req.Feedback
	}
	return &ports.ExecuteResult{Content: content, Summary: content}, nil
}

type fixture struct {
	app   *App
	store *memory.Store
	exec  *stubExecutor
	out   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	exec := &stubExecutor{failures: map[int]int{}}
	out := &bytes.Buffer{}

	app, err := NewApp(config.Default(),
		WithStores(store, store, store),
		executorOverride(exec),
		WithStdout(out),
		WithJSONOutput(true),
	)
	require.NoError(t, err)

	return &fixture{app: app, store: store, exec: exec, out: out}
}

func (f *fixture) latestRecord(t *testing.T) *domain.StateRecord {
	t.Helper()
	ctx := context.Background()
	runID, err := f.store.Latest(ctx)
	require.NoError(t, err)
	rec, err := f.store.Read(ctx, runID)
	require.NoError(t, err)
	return rec
}

func TestRunFull_ParksAtFirstGate(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.app.RunFull(context.Background()))

	rec := f.latestRecord(t)
	assert.Equal(t, domain.StatusAwaitingApproval, rec.Status(1))
	assert.Equal(t, []int{1}, f.exec.calls)
	assert.Contains(t, f.out.String(), "awaiting-approval")
}

func TestRunQuick_TerminalWithSingleArtifact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.RunQuick(ctx))

	rec := f.latestRecord(t)
	assert.True(t, rec.Succeeded())
	assert.Equal(t, domain.StatusApproved, rec.Status(1))
	for i := 2; i <= domain.PhaseCount; i++ {
		assert.Equal(t, domain.StatusSkipped, rec.Status(i), "phase %d", i)
	}

	// Exactly one artifact: phase one's output.
	art, err := f.store.Load(ctx, rec.RunID, 1)
	require.NoError(t, err)
	assert.Equal(t, "output of scan", art.Content)
	for i := 2; i <= domain.PhaseCount; i++ {
		_, err := f.store.Load(ctx, rec.RunID, i)
		assert.ErrorIs(t, err, domain.ErrMissingArtifact)
	}

	// The decision log tells the whole story: one approval, four skips.
	require.Len(t, rec.Decisions, domain.PhaseCount)
	assert.Equal(t, domain.DecisionApprove, rec.Decisions[0].Kind)
	assert.Equal(t, "quick mode", rec.Decisions[0].Feedback)
	for _, d := range rec.Decisions[1:] {
		assert.Equal(t, domain.DecisionSkip, d.Kind)
	}
}

func TestResume_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.RunFull(ctx))
	before := f.latestRecord(t)

	f.out.Reset()
	require.NoError(t, f.app.Resume(ctx, "latest", false))
	first := f.out.String()

	f.out.Reset()
	require.NoError(t, f.app.Resume(ctx, "latest", false))
	second := f.out.String()

	assert.Equal(t, first, second)
	assert.Equal(t, before, f.latestRecord(t))
	assert.Equal(t, []int{1}, f.exec.calls, "resume must not re-execute the gated phase")
}

func TestApprove_AdvancesToNextGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.RunFull(ctx))
	require.NoError(t, f.app.Approve(ctx, "latest", "looks good", true))

	rec := f.latestRecord(t)
	assert.Equal(t, domain.StatusApproved, rec.Status(1))
	assert.Equal(t, domain.StatusAwaitingApproval, rec.Status(2))
	assert.Equal(t, []int{1, 2}, f.exec.calls)
}

func TestApprove_NoAdvanceParksRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.RunFull(ctx))
	require.NoError(t, f.app.Approve(ctx, "latest", "", false))

	rec := f.latestRecord(t)
	assert.Equal(t, domain.StatusApproved, rec.Status(1))
	assert.Equal(t, domain.StatusPending, rec.Status(2))
	assert.Equal(t, 0, rec.ActivePhase())

	// Resume picks up where approve left off.
	require.NoError(t, f.app.Resume(ctx, "latest", false))
	rec = f.latestRecord(t)
	assert.Equal(t, domain.StatusAwaitingApproval, rec.Status(2))
}

func TestApprove_NothingAtGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.app.manager.Create(ctx)
	require.NoError(t, err)

	err = f.app.Approve(ctx, "latest", "", true)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRevise_SupersedesArtifact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.RunFull(ctx))
	require.NoError(t, f.app.Revise(ctx, "latest", "tighter scope"))

	rec := f.latestRecord(t)
	assert.Equal(t, domain.StatusAwaitingApproval, rec.Status(1))

	art, err := f.store.Load(ctx, rec.RunID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, art.Revision)
	assert.Contains(t, art.Content, "feedback: tighter scope")
}

func TestResume_RerunRestartsFailedPhase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.exec.failures[1] = 1
	err := f.app.RunFull(ctx)
	require.ErrorIs(t, err, domain.ErrPhaseExecution)
	assert.Equal(t, domain.StatusFailed, f.latestRecord(t).Status(1))

	// Without rerun the failure is only reported.
	require.NoError(t, f.app.Resume(ctx, "latest", false))
	assert.Equal(t, domain.StatusFailed, f.latestRecord(t).Status(1))

	require.NoError(t, f.app.Resume(ctx, "latest", true))
	assert.Equal(t, domain.StatusAwaitingApproval, f.latestRecord(t).Status(1))
	assert.Equal(t, []int{1, 1}, f.exec.calls)
}

func TestRunPhase_UnknownRun(t *testing.T) {
	f := newFixture(t)

	err := f.app.RunPhase(context.Background(), "20990101T000000.000000000", 1)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRemoveRuns_All(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := f.app.manager.Create(ctx)
		require.NoError(t, err)
	}

	require.NoError(t, f.app.RemoveRuns(ctx, nil, true))

	ids, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListRuns_DescribesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.RunQuick(ctx))

	f.app.jsonOut = false
	f.out.Reset()
	require.NoError(t, f.app.ListRuns(ctx))

	assert.Contains(t, f.out.String(), "complete")
}

func TestResume_RerunRecoversStrandedRunningPhase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.RunFull(ctx))
	require.NoError(t, f.app.Approve(ctx, "latest", "", true))

	// Rewind phase 2 to running, as if the process died mid-execution.
	rec := f.latestRecord(t)
	rec.Phase(2).Status = domain.StatusRunning
	require.NoError(t, f.store.Write(ctx, rec.RunID, rec))

	// Plain resume only reports the stranded state.
	require.NoError(t, f.app.Resume(ctx, "latest", false))
	assert.Equal(t, domain.StatusRunning, f.latestRecord(t).Status(2))

	// With rerun the stranded phase re-executes and parks at its gate.
	require.NoError(t, f.app.Resume(ctx, "latest", true))
	assert.Equal(t, domain.StatusAwaitingApproval, f.latestRecord(t).Status(2))
	assert.Equal(t, []int{1, 2, 2}, f.exec.calls)
}
