package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

func TestLazy_ConnectsOnFirstUse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	opens := 0
	l := newLazy(func(ctx context.Context) (*Store, error) {
		opens++
		return New(db), nil
	})
	assert.False(t, l.Connected())
	assert.Zero(t, opens, "nothing is opened before the first load call")

	stats, err := l.LoadProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Submitted)
	assert.True(t, l.Connected())

	_, err = l.LoadSales(context.Background(), nil, ConflictSkip)
	require.NoError(t, err)
	assert.Equal(t, 1, opens, "the connection is reused")

	mock.ExpectClose()
	require.NoError(t, l.Close())
	assert.False(t, l.Connected())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLazy_ConnectFailure(t *testing.T) {
	refused := &types.StoreError{Op: "connect", Err: errors.New("connection refused")}
	opens := 0
	l := newLazy(func(ctx context.Context) (*Store, error) {
		opens++
		return nil, refused
	})

	err := l.EnsureSchema(context.Background())
	require.ErrorIs(t, err, refused)
	assert.Equal(t, types.PhaseLoad, types.Phase(err))

	stats, err := l.LoadProducts(context.Background(), []types.Product{product("P1", "1")})
	require.ErrorIs(t, err, refused)
	assert.Equal(t, 1, stats.Submitted)
	assert.Equal(t, 2, opens, "a failed connect is retried")

	assert.NoError(t, l.Close(), "closing an unopened store is a no-op")
}
