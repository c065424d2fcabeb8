package memory_test

import (
	"testing"

	"github.com/refitlabs/refit/internal/adapters/memory"
	"github.com/refitlabs/refit/pkg/ports"
	"github.com/refitlabs/refit/pkg/ports/tests"
)

var (
	_ ports.StateStore    = (*memory.Store)(nil)
	_ ports.ArtifactStore = (*memory.Store)(nil)
	_ ports.RunStore      = (*memory.Store)(nil)
)

func TestStore_StateContract(t *testing.T) {
	tests.StateStoreContractTest(t, memory.NewStore())
}

func TestStore_ArtifactContract(t *testing.T) {
	tests.ArtifactStoreContractTest(t, memory.NewStore())
}
