package refit_test

import (
	"context"
	"fmt"

	refit "github.com/refitlabs/refit"
	"github.com/refitlabs/refit/internal/adapters/memory"
	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/ports"
)

// echoExecutor stands in for the subprocess runner so the example is
// deterministic and self-contained.
type echoExecutor struct{}

func (echoExecutor) Execute(ctx context.Context, req ports.ExecuteRequest) (*ports.ExecuteResult, error) {
	out := "done: " + domain.PhaseName(req.Phase)
	return &ports.ExecuteResult{Content: out, Summary: out}, nil
}

// Example walks one phase through its approval gate using in-memory storage.
func Example() {
	ctx := context.Background()
	store := memory.NewStore()

	p, err := refit.New("",
		refit.WithStores(store, store, store),
		refit.WithExecutor(echoExecutor{}),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	runID, artifact, err := p.Start(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(artifact.Summary)

	rec, err := p.Approve(ctx, runID, "looks right")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(rec.Status(1))

	// Output:
	// done: scan
	// approved
}
