package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/users"
)

type Users struct {
	mu   sync.Mutex
	rows map[string]users.User
}

func NewUsers() *Users {
	return &Users{rows: map[string]users.User{}}
}

// Upsert creates the user with the default role, or refreshes the name of
// an existing one. The role is never touched.
func (s *Users) Upsert(ctx context.Context, u users.User) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	cur, ok := s.rows[u.Email]
	if !ok {
		cur = users.User{Email: u.Email, Role: users.RoleUser, CreatedAt: now}
	}
	cur.Name = u.Name
	cur.UpdatedAt = now
	s.rows[u.Email] = cur
	return cur, nil
}

func (s *Users) Get(ctx context.Context, email string) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[email]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	return u, nil
}

func (s *Users) List(ctx context.Context) ([]users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]users.User, 0, len(s.rows))
	for _, u := range s.rows {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Users) SetRole(ctx context.Context, email string, role users.Role) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[email]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	s.rows[email] = u
	return u, nil
}
