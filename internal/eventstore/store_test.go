package eventstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/ordersaga/internal/apperrors"
)

func TestStore_Append_Success(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	store := NewWithQuerier(mockPool, zerolog.Nop())

	aggregateID := uuid.New()
	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO event_store").
		WithArgs(aggregateID, "order", "OrderCreated", pgxmock.AnyArg(), 1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	tx, err := mockPool.Begin(context.Background())
	require.NoError(t, err)

	version, err := store.Append(context.Background(), tx, aggregateID, "order", "OrderCreated", map[string]string{"foo": "bar"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestStore_Append_ConcurrencyConflict(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	store := NewWithQuerier(mockPool, zerolog.Nop())

	aggregateID := uuid.New()
	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO event_store").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mockPool.ExpectRollback()

	tx, err := mockPool.Begin(context.Background())
	require.NoError(t, err)

	_, err = store.Append(context.Background(), tx, aggregateID, "order", "OrderCreated", map[string]string{}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConcurrencyConflict))

	require.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestStore_Load_OrdersByVersion(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	store := NewWithQuerier(mockPool, zerolog.Nop())

	aggregateID := uuid.New()
	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"aggregate_id", "aggregate_type", "event_type", "event_data", "version", "created_at"}).
		AddRow(aggregateID, "order", "OrderCreated", []byte(`{"foo":"bar"}`), 1, now).
		AddRow(aggregateID, "order", "OrderConfirmed", []byte(`{}`), 2, now)

	mockPool.ExpectQuery("SELECT aggregate_id, aggregate_type, event_type, event_data, version, created_at").
		WithArgs(aggregateID).
		WillReturnRows(rows)

	records, err := store.Load(context.Background(), aggregateID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "OrderCreated", records[0].EventType)
	assert.Equal(t, 1, records[0].Version)
	assert.Equal(t, "OrderConfirmed", records[1].EventType)
	assert.Equal(t, 2, records[1].Version)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
