package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgEventRepositoryInsertEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	formID := uuid.New()
	mock.ExpectExec("INSERT INTO booking_events").
		WithArgs(EventFormOpened, pgxmock.AnyArg(), []byte(`{"allow_photo":false}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPgEventRepository(mock)
	err = repo.InsertEvent(context.Background(), EventLog{
		EventType: EventFormOpened,
		FormID:    &formID,
		Payload:   []byte(`{"allow_photo":false}`),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgEventRepositoryInsertEventWrapsError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("relation does not exist")
	mock.ExpectExec("INSERT INTO booking_events").WillReturnError(boom)

	err = NewPgEventRepository(mock).InsertEvent(context.Background(), EventLog{EventType: EventFormClosed})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "insert booking event")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgEventRepositoryDeleteEventsBefore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cutoff := time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM booking_events").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 42))

	n, err := NewPgEventRepository(mock).DeleteEventsBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNopEvents(t *testing.T) {
	var repo EventRepository = NopEvents{}
	assert.NoError(t, repo.InsertEvent(context.Background(), EventLog{}))
	n, err := repo.DeleteEventsBefore(context.Background(), time.Now())
	assert.NoError(t, err)
	assert.Zero(t, n)
}
