package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	apperrors "reservio/pkg/errors"
	httputil "reservio/pkg/http"
	"reservio/pkg/model"
)

// Principal is the verified identity of the current request. Handlers
// trust it completely; services still re-assert ownership and state
// legality on top of it.
type Principal struct {
	UserID int64
	Role   model.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

type principalContextKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// Middleware wraps protected routes: it verifies the bearer token and
// injects the Principal into the request context before the handler
// runs.
type Middleware struct {
	tokens *TokenManager
}

func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

func (m *Middleware) Protect(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token, ok := bearerToken(r)
		if !ok {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Not authenticated"))
			return
		}

		userID, role, err := m.tokens.Parse(token, TokenTypeAccess)
		if err != nil {
			_ = httputil.WriteError(w, err)
			return
		}

		ctx := withPrincipal(r.Context(), Principal{UserID: userID, Role: role})
		next(w, r.WithContext(ctx), ps)
	}
}

// RequirePrincipal fetches the verified identity or fails the request.
// Handlers use this instead of reaching into the context directly.
func RequirePrincipal(r *http.Request) (Principal, error) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		return Principal{}, apperrors.Unauthorized("Not authenticated")
	}
	return p, nil
}

// RequireAdmin is the explicit role predicate evaluated by handlers
// before invoking admin-only operations.
func RequireAdmin(r *http.Request) (Principal, error) {
	p, err := RequirePrincipal(r)
	if err != nil {
		return Principal{}, err
	}
	if !p.IsAdmin() {
		return Principal{}, apperrors.Forbidden("Admin role required")
	}
	return p, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
