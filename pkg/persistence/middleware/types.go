package middleware

import "github.com/refitlabs/refit/pkg/ports"

// Middleware allows wrapping an ArtifactStore to add behavior.
type Middleware func(ports.ArtifactStore) ports.ArtifactStore

// Chain applies middlewares right to left, so the first listed middleware
// sees the call first.
func Chain(store ports.ArtifactStore, middlewares ...Middleware) ports.ArtifactStore {
	for i := len(middlewares) - 1; i >= 0; i-- {
		store = middlewares[i](store)
	}
	return store
}
