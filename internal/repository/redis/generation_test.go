package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-core-go/internal/repository/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *database.Redis {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rdb, err := database.NewRedis(context.Background(), database.RedisOptions{
		Addr:   addr,
		Prefix: "attendance_test:" + uuid.NewString(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestGenerationPublisher_PublishAndCurrent(t *testing.T) {
	rdb := newTestRedis(t)
	pub := redis.NewGenerationPublisher(rdb)
	ctx := context.Background()
	t.Cleanup(func() { rdb.Del(context.Background(), rdb.Key("office_timings", "generation")) })

	gen, err := pub.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	gen, err = pub.Publish(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	other := redis.NewGenerationPublisher(rdb)
	gen, err = other.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}
