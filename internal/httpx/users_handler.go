package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/auth"
	"github.com/ariefcatur/go-warehouse-orders/internal/users"
	"github.com/go-chi/chi/v5"
)

type UsersHandler struct {
	Users  *users.Service
	Tokens *auth.TokenManager
	Gate   *Gate
}

type upsertUserReq struct {
	Name string `json:"name"`
}

type upsertUserResp struct {
	User  users.User `json:"user"`
	Token string     `json:"token"`
}

type setRoleReq struct {
	Role string `json:"role"`
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Put("/user/{email}", h.upsert)
	r.Group(func(r chi.Router) {
		r.Use(h.Gate.RequireUser)
		r.Get("/user/admin/{email}", h.isAdmin)
		r.With(h.Gate.RequireAdmin).Get("/user", h.list)
		r.With(h.Gate.RequireAdmin).Put("/user/admin/{email}", h.setRole)
	})
}

// upsert registers the user and hands out a token for the email. There is
// no credential check; identity proofing happens before this service.
func (h *UsersHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertUserReq
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Register(ctx, chi.URLParam(r, "email"), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.Tokens.Issue(u.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, upsertUserResp{User: u, Token: token})
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Users.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *UsersHandler) setRole(w http.ResponseWriter, r *http.Request) {
	req := setRoleReq{Role: string(users.RoleAdmin)}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.SetRole(ctx, chi.URLParam(r, "email"), req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// isAdmin answers for the caller themself, or for anyone when the caller
// is an admin.
func (h *UsersHandler) isAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	target := strings.ToLower(chi.URLParam(r, "email"))
	caller, _ := auth.EmailFrom(ctx)
	if caller != target {
		if err := h.Users.VerifyAdmin(ctx, caller); err != nil {
			writeError(w, r, err)
			return
		}
	}

	admin, err := h.Users.IsAdmin(ctx, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"admin": admin})
}
