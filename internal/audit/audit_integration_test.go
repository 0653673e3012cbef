//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/cburgosro9303/vortex-config/internal/source"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("vortex_config"),
		postgres.WithUsername("vortex"),
		postgres.WithPassword("vortex"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, ctr.Terminate(context.Background()))
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	t.Cleanup(pool.Close)

	store := New(pool)
	require.NoError(t, store.Migrate(ctx))

	return store
}

func TestRecordAndHistory(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	result := source.ConfigResult{Name: "myapp", Label: "main", Version: "deadbeef"}
	require.NoError(t, store.Record(ctx, "dev", result))

	time.Sleep(10 * time.Millisecond)

	result2 := source.ConfigResult{Name: "myapp", Label: "main", Version: "c0ffee"}
	require.NoError(t, store.Record(ctx, "dev", result2))

	history, err := store.History(ctx, "myapp", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	require.Equal(t, "c0ffee", history[0].Version)
	require.Equal(t, "deadbeef", history[1].Version)
}
