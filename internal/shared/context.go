package shared

import "context"

// Principal is the authenticated actor attached to a session.
type Principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type sessionContextKey struct{}

type principalContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithPrincipal stores the authorised principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal placed by the rbac middleware,
// falling back to the session principal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if p, ok := ctx.Value(principalContextKey{}).(Principal); ok {
		return p, true
	}
	return SessionFromContext(ctx).Principal()
}

// ActorID returns the principal user id or zero for system actions.
func ActorID(ctx context.Context) int64 {
	p, _ := PrincipalFromContext(ctx)
	return p.UserID
}
