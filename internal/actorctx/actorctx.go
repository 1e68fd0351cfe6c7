// Package actorctx carries the verified principal on a request's context.Context,
// so code below the HTTP layer can attribute log lines without seeing gin.
package actorctx

import (
	"context"

	"github.com/geocoder89/lostfound/internal/authz"
)

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *authz.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *authz.Principal {
	p, _ := ctx.Value(ctxKey{}).(*authz.Principal)
	return p
}
