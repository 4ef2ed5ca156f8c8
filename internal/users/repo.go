package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const userColumns = `email, name, role, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var (
		u    User
		role string
	)
	err := row.Scan(&u.Email, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	u.Role = Role(role)
	return u, err
}

// Upsert creates the user or refreshes its profile. The role of an
// existing user is never touched here.
func (r *Repo) Upsert(ctx context.Context, u User) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `
		INSERT INTO users(email, name, role) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
		RETURNING `+userColumns, u.Email, u.Name, string(RoleUser)))
}

func (r *Repo) Get(ctx context.Context, email string) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *Repo) List(ctx context.Context) ([]User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) SetRole(ctx context.Context, email string, role Role) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `
		UPDATE users SET role = $2, updated_at = NOW() WHERE email = $1
		RETURNING `+userColumns, email, string(role)))
}
