//go:build integration

package cache

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/cburgosro9303/vortex-config/internal/log"
	"github.com/cburgosro9303/vortex-config/internal/source"
	"github.com/cburgosro9303/vortex-config/internal/value"
)

func setupRedis(t *testing.T) *Redis {
	t.Helper()

	ctx := context.Background()

	ctr, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, ctr.Terminate(context.Background()))
	})

	addr, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := goredis.ParseURL(addr)
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	return NewRedis(client, 0, log.Nop{})
}

func TestRedisL2RoundTrip(t *testing.T) {
	r := setupRedis(t)
	ctx := context.Background()

	obj := value.NewOrderedMap()
	obj.Set("server", objOf("port", value.Int(8080)))

	result := source.ConfigResult{
		Name:            "myapp",
		Profiles:        []string{"dev"},
		Label:           "main",
		Version:         "deadbeef",
		PropertySources: source.PropertySourceList{{Name: "git:main:application.yml", Properties: obj}},
	}

	key := NewKey("myapp", []string{"dev"}, "main")

	r.Set(ctx, key, result)

	got, ok := r.Get(ctx, key)
	require.True(t, ok)
	require.Equal(t, result.Version, got.Version)
	require.Len(t, got.PropertySources, 1)
}

func TestRedisL2InvalidateByApplication(t *testing.T) {
	r := setupRedis(t)
	ctx := context.Background()

	key := NewKey("myapp", []string{"dev"}, "main")
	r.Set(ctx, key, source.ConfigResult{Name: "myapp", Label: "main", Version: "v1"})

	other := NewKey("other", nil, "main")
	r.Set(ctx, other, source.ConfigResult{Name: "other", Label: "main", Version: "v1"})

	r.Invalidate(ctx, source.InvalidateSelector{Application: "myapp"})

	_, ok := r.Get(ctx, key)
	require.False(t, ok)

	_, ok = r.Get(ctx, other)
	require.True(t, ok)
}
