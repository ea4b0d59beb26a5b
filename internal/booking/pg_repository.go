package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the slice of *pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgEventRepository struct {
	db Querier
}

func NewPgEventRepository(db Querier) *PgEventRepository {
	return &PgEventRepository{db: db}
}

func (r *PgEventRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO booking_events (event_type, form_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.FormID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert booking event: %w", err)
	}
	return nil
}

func (r *PgEventRepository) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM booking_events
		WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete booking events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
