package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-warehouse-orders/internal/auth"
	"github.com/ariefcatur/go-warehouse-orders/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders/internal/users"
)

// Gate authenticates bearer tokens and checks roles.
type Gate struct {
	Tokens *auth.TokenManager
	Users  *users.Service
}

// RequireUser rejects requests without a valid bearer token and stores the
// token's email in the request context.
func (g *Gate) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		email, err := g.Tokens.Verify(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithEmail(r.Context(), email)))
	})
}

// RequireAdmin must be mounted after RequireUser.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := auth.EmailFrom(r.Context())
		if !ok {
			writeError(w, r, auth.ErrMissingToken)
			return
		}
		if err := g.Users.VerifyAdmin(r.Context(), email); err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) requester(r *http.Request) (orders.Requester, error) {
	email, ok := auth.EmailFrom(r.Context())
	if !ok {
		return orders.Requester{}, auth.ErrMissingToken
	}
	admin, err := g.Users.IsAdmin(r.Context(), email)
	if err != nil {
		return orders.Requester{}, err
	}
	return orders.Requester{Email: email, Admin: admin}, nil
}
