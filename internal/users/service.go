package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Store interface {
	Upsert(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	SetRole(ctx context.Context, email string, role Role) (User, error)
}

// Service manages users and answers role questions for the access gate.
type Service struct {
	Store Store
}

func (s *Service) Register(ctx context.Context, email, name string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: email %q", ErrInvalidUser, email)
	}
	return s.Store.Upsert(ctx, User{Email: email, Name: strings.TrimSpace(name)})
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.Store.List(ctx)
}

func (s *Service) SetRole(ctx context.Context, email, role string) (User, error) {
	r, err := ParseRole(role)
	if err != nil {
		return User{}, err
	}
	return s.Store.SetRole(ctx, strings.ToLower(email), r)
}

// IsAdmin reports whether email holds the admin role. Unknown users are
// not admins.
func (s *Service) IsAdmin(ctx context.Context, email string) (bool, error) {
	u, err := s.Store.Get(ctx, strings.ToLower(email))
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role == RoleAdmin, nil
}

// VerifyAdmin returns ErrForbidden unless email belongs to an admin.
func (s *Service) VerifyAdmin(ctx context.Context, email string) error {
	ok, err := s.IsAdmin(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
