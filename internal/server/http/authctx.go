// Package httpserver exposes the REST API over gorilla/mux.
package httpserver

import (
	"context"

	"secwatch/internal/model"
)

type ctxKey string

const userKey ctxKey = "secwatch.user"

// WithUser stores the authenticated account in the request context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx fetches the authenticated account from the context.
func UserFromCtx(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok
}
