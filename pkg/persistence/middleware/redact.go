package middleware

import (
	"context"
	"regexp"

	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/ports"
)

// defaultRedactions cover credential shapes that commonly leak into scan and
// execute output: bearer tokens, AWS access keys, and KEY=value style secrets.
var defaultRedactions = []string{
	`(?i)bearer\s+[a-z0-9._\-]+`,
	`AKIA[0-9A-Z]{16}`,
	`(?i)(api[_-]?key|secret|token|password)\s*[=:]\s*\S+`,
}

type redactMiddleware struct {
	next     ports.ArtifactStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks matches of the given
// patterns before artifact content is persisted. With no patterns the default
// credential set applies.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	if len(patternStrings) == 0 {
		patternStrings = defaultRedactions
	}
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.ArtifactStore) ports.ArtifactStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, runID string, phase int, content, summary string) (*domain.Artifact, error) {
	for _, p := range m.patterns {
		content = p.ReplaceAllString(content, "***")
		summary = p.ReplaceAllString(summary, "***")
	}
	return m.next.Save(ctx, runID, phase, content, summary)
}

func (m *redactMiddleware) Load(ctx context.Context, runID string, phase int) (*domain.Artifact, error) {
	return m.next.Load(ctx, runID, phase)
}
