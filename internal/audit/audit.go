package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one order event as received by the auditor.
type Record struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OrderID    string          `json:"order_id"`
	Producer   string          `json:"producer"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type Store interface {
	// Insert stores r unless its event id was already recorded.
	Insert(ctx context.Context, r Record) (bool, error)
	// ListByOrder returns an order's trail, oldest event first.
	ListByOrder(ctx context.Context, orderID string) ([]Record, error)
}

type Repo struct{ DB *pgxpool.Pool }

func (p *Repo) Insert(ctx context.Context, r Record) (bool, error) {
	ct, err := p.DB.Exec(ctx, `
		INSERT INTO order_events(event_id, event_type, order_id, producer, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING`,
		r.EventID, r.EventType, r.OrderID, r.Producer, r.OccurredAt, []byte(r.Payload))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (p *Repo) ListByOrder(ctx context.Context, orderID string) ([]Record, error) {
	rows, err := p.DB.Query(ctx, `
		SELECT event_id, event_type, order_id, producer, occurred_at, payload, recorded_at
		FROM order_events WHERE order_id = $1
		ORDER BY occurred_at, recorded_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var (
			r       Record
			payload []byte
		)
		if err := rows.Scan(&r.EventID, &r.EventType, &r.OrderID, &r.Producer, &r.OccurredAt, &payload, &r.RecordedAt); err != nil {
			return nil, err
		}
		r.Payload = payload
		out = append(out, r)
	}
	return out, rows.Err()
}

// Owner returns the user named by the trail's events, or "" when none
// carries one.
func Owner(trail []Record) string {
	for _, r := range trail {
		var ref struct {
			User string `json:"user"`
		}
		if err := json.Unmarshal(r.Payload, &ref); err == nil && ref.User != "" {
			return ref.User
		}
	}
	return ""
}
