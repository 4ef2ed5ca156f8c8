package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidReview = errors.New("invalid review")

type Review struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (r Review) Validate() error {
	if strings.TrimSpace(r.Comment) == "" {
		return fmt.Errorf("%w: comment is required", ErrInvalidReview)
	}
	if r.Rating < 0 || r.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidReview)
	}
	return nil
}

// Store is append-only: reviews are never updated or deleted.
type Store interface {
	Append(ctx context.Context, r Review) (Review, error)
	// List returns every review, oldest first.
	List(ctx context.Context) ([]Review, error)
}

// Add validates and appends a review.
func Add(ctx context.Context, s Store, r Review) (Review, error) {
	if err := r.Validate(); err != nil {
		return Review{}, err
	}
	r.ID = uuid.NewString()
	return s.Append(ctx, r)
}

type Repo struct{ DB *pgxpool.Pool }

const reviewColumns = `id, name, email, rating, comment, created_at`

func (p *Repo) Append(ctx context.Context, r Review) (Review, error) {
	var out Review
	err := p.DB.QueryRow(ctx, `
		INSERT INTO reviews(id, name, email, rating, comment) VALUES ($1, $2, $3, $4, $5)
		RETURNING `+reviewColumns, r.ID, r.Name, r.Email, r.Rating, r.Comment).
		Scan(&out.ID, &out.Name, &out.Email, &out.Rating, &out.Comment, &out.CreatedAt)
	return out, err
}

func (p *Repo) List(ctx context.Context) ([]Review, error) {
	rows, err := p.DB.Query(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
