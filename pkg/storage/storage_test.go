package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryStore_GetMissing(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemoryStore(logger)

	value, ok, err := store.Get(context.Background(), KeyOrders)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestMemoryStore_PutGet(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemoryStore(logger)
	ctx := context.Background()

	err := store.Put(ctx, KeyOrders, []byte(`{"a":1}`))
	require.NoError(t, err)

	value, ok, err := store.Get(ctx, KeyOrders)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(value))
}

func TestMemoryStore_PutReplaces(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemoryStore(logger)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, KeyPositions, []byte(`[1]`)))
	require.NoError(t, store.Put(ctx, KeyPositions, []byte(`[2]`)))

	value, ok, err := store.Get(ctx, KeyPositions)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[2]`, string(value))
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewMemoryStore(logger)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, KeyOrders, []byte(`abc`)))

	value, _, err := store.Get(ctx, KeyOrders)
	require.NoError(t, err)
	value[0] = 'x'

	again, _, err := store.Get(ctx, KeyOrders)
	require.NoError(t, err)
	assert.Equal(t, `abc`, string(again))
}

func TestPostgresStore_Get(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}

	rows := sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"orders":[]}`))
	mock.ExpectQuery("SELECT value FROM agent_state").
		WithArgs(KeyOrders).
		WillReturnRows(rows)

	value, ok, err := store.Get(context.Background(), KeyOrders)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"orders":[]}`, string(value))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}

	mock.ExpectQuery("SELECT value FROM agent_state").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Put(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}

	mock.ExpectExec("INSERT INTO agent_state").
		WithArgs(KeyPositions, []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.Put(context.Background(), KeyPositions, []byte(`[]`))
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutError(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}

	mock.ExpectExec("INSERT INTO agent_state").
		WithArgs(KeyOrders, []byte(`{}`)).
		WillReturnError(sqlmock.ErrCancelled)

	err = store.Put(context.Background(), KeyOrders, []byte(`{}`))
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS agent_state").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.EnsureSchema(context.Background())
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store := &PostgresStore{db: db, logger: logger}

	mock.ExpectClose()

	require.NoError(t, store.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Interface(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	var _ Store = NewMemoryStore(logger)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var _ Store = &PostgresStore{db: db, logger: logger}
}
