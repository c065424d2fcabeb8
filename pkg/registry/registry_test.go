package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refitlabs/refit/pkg/ports"
	"github.com/refitlabs/refit/pkg/registry"
)

func TestRegistry_Execute(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("scan", func(ctx context.Context, req ports.ExecuteRequest) (*ports.ExecuteResult, error) {
		return &ports.ExecuteResult{Content: "scanned " + req.RunID, Summary: "ok"}, nil
	})

	res, err := r.Execute(context.Background(), ports.ExecuteRequest{RunID: "run-a", Phase: 1})
	require.NoError(t, err)
	assert.Equal(t, "scanned run-a", res.Content)
}

func TestRegistry_UnknownPhase(t *testing.T) {
	r := registry.NewRegistry()

	_, err := r.Execute(context.Background(), ports.ExecuteRequest{RunID: "run-a", Phase: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "critique")
}

func TestRegistry_OverwriteWins(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("scan", func(ctx context.Context, req ports.ExecuteRequest) (*ports.ExecuteResult, error) {
		return &ports.ExecuteResult{Content: "first"}, nil
	})
	r.Register("scan", func(ctx context.Context, req ports.ExecuteRequest) (*ports.ExecuteResult, error) {
		return &ports.ExecuteResult{Content: "second"}, nil
	})

	res, err := r.Execute(context.Background(), ports.ExecuteRequest{Phase: 1})
	require.NoError(t, err)
	assert.Equal(t, "second", res.Content)
}
