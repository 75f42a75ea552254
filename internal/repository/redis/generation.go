package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/database"
	goredis "github.com/redis/go-redis/v9"
)

type generationPublisherImpl struct {
	rdb *database.Redis
	key string
}

// NewGenerationPublisher stores the shared office timing generation in a
// single redis counter.
func NewGenerationPublisher(rdb *database.Redis) timing.GenerationPublisher {
	return &generationPublisherImpl{
		rdb: rdb,
		key: rdb.Key("office_timings", "generation"),
	}
}

// Publish implements timing.GenerationPublisher.
func (p *generationPublisherImpl) Publish(ctx context.Context) (int64, error) {
	gen, err := p.rdb.Incr(ctx, p.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish office timing generation: %w", err)
	}
	return gen, nil
}

// Current implements timing.GenerationPublisher.
func (p *generationPublisherImpl) Current(ctx context.Context) (int64, error) {
	gen, err := p.rdb.Get(ctx, p.key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read office timing generation: %w", err)
	}
	return gen, nil
}
