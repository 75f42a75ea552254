package timing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

type ResolverImpl struct {
	repo    timing.PolicyRepository
	cache   *PolicyCache
	group   singleflight.Group
	metrics *metrics.Instruments
}

func NewResolver(repo timing.PolicyRepository, cache *PolicyCache) *ResolverImpl {
	return &ResolverImpl{
		repo:    repo,
		cache:   cache,
		metrics: metrics.Default(),
	}
}

// Resolve implements timing.Resolver.
func (r *ResolverImpl) Resolve(ctx context.Context, department string) (timing.OfficeTimingPolicy, error) {
	department = strings.TrimSpace(department)

	if p, ok := r.cache.Get(department); ok {
		r.metrics.RecordCacheLookup(ctx, true)
		return p, nil
	}
	r.metrics.RecordCacheLookup(ctx, false)

	gen := r.cache.Generation()
	key := strconv.FormatUint(gen, 10) + "|" + department

	// The shared lookup outlives any single caller; each caller stops waiting
	// on its own context.
	lookupCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		p, err := r.lookup(lookupCtx, department)
		if err != nil {
			return nil, err
		}
		r.cache.Put(department, p, gen)
		return p, nil
	})

	select {
	case <-ctx.Done():
		return timing.OfficeTimingPolicy{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return timing.OfficeTimingPolicy{}, res.Err
		}
		return res.Val.(timing.OfficeTimingPolicy), nil
	}
}

// lookup reads the store: department policy first, then the global default.
func (r *ResolverImpl) lookup(ctx context.Context, department string) (timing.OfficeTimingPolicy, error) {
	if department != "" {
		p, err := r.repo.GetActiveByDepartment(ctx, department)
		switch {
		case err == nil && p.IsActive:
			return p, nil
		case err == nil, errors.Is(err, timing.ErrPolicyNotFound):
			// inactive or missing, fall back to global
		default:
			return timing.OfficeTimingPolicy{}, fmt.Errorf("failed to get policy for department %q: %w", department, err)
		}
	}

	p, err := r.repo.GetActiveGlobal(ctx)
	if err != nil {
		if errors.Is(err, timing.ErrPolicyNotFound) {
			return timing.OfficeTimingPolicy{}, timing.ErrPolicyNotConfigured
		}
		return timing.OfficeTimingPolicy{}, fmt.Errorf("failed to get global policy: %w", err)
	}
	if !p.IsActive {
		return timing.OfficeTimingPolicy{}, timing.ErrPolicyNotConfigured
	}

	return p, nil
}
