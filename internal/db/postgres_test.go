package db

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS booking_events").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, EnsureSchema(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = EnsureSchema(context.Background(), mock)
	assert.ErrorContains(t, err, "ensure schema")
}

func TestConnectPostgresRejectsBadDSN(t *testing.T) {
	_, err := ConnectPostgres(context.Background(), "postgres://%zz")
	assert.ErrorContains(t, err, "parse postgres dsn")
}
