package ai

import (
	"context"

	"github.com/aaronds650/MovieMeV2/internal/ratelimit"
)

// Limited admits calls through a rate limiter before delegating.
type Limited struct {
	Completer Completer
	Limiter   ratelimit.Limiter
	Identity  string
}

func (l *Limited) Complete(ctx context.Context, req Request) (string, error) {
	if !l.Limiter.Admit(ctx, l.Identity) {
		return "", RateLimitedError()
	}
	return l.Completer.Complete(ctx, req)
}
