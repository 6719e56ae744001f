package httpapi

import (
	"context"

	"github.com/dmitrijs2005/gophaccount/internal/server/models"
)

type ctxKey string

const (
	principalKey    ctxKey = "principal"
	requestStateKey ctxKey = "requestState"
)

// Principal is the authenticated caller as asserted by the token. Its role
// is a hint only; Authorize re-reads the account.
type Principal struct {
	AccountID int64
	Role      models.Role
}

// ContextWithPrincipal returns a copy of ctx carrying p.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal stored by Authenticate.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// requestState is shared between the outer logging middleware and the inner
// handlers, which see a derived context.
type requestState struct {
	requestID string
	accountID int64
}

func contextWithRequestState(ctx context.Context, st *requestState) context.Context {
	return context.WithValue(ctx, requestStateKey, st)
}

func requestStateFromContext(ctx context.Context) *requestState {
	st, _ := ctx.Value(requestStateKey).(*requestState)
	return st
}

// RequestIDFromContext returns the correlation id of the current request.
func RequestIDFromContext(ctx context.Context) string {
	if st := requestStateFromContext(ctx); st != nil {
		return st.requestID
	}
	return ""
}
