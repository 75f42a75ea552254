package timing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/validator"
	"github.com/google/uuid"
)

type PolicyServiceImpl struct {
	*ResolverImpl
	repo      timing.PolicyRepository
	cache     *PolicyCache
	publisher timing.GenerationPublisher
	metrics   *metrics.Instruments
}

// NewPolicyService wires the resolver and the write path over one cache.
// publisher may be nil when only one instance serves policies.
func NewPolicyService(repo timing.PolicyRepository, cache *PolicyCache, publisher timing.GenerationPublisher) timing.PolicyService {
	return &PolicyServiceImpl{
		ResolverImpl: NewResolver(repo, cache),
		repo:         repo,
		cache:        cache,
		publisher:    publisher,
		metrics:      metrics.Default(),
	}
}

// List implements timing.PolicyService.
func (s *PolicyServiceImpl) List(ctx context.Context, filter timing.PolicyFilter) ([]timing.PolicyResponse, error) {
	policies, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list office timing policies: %w", err)
	}

	responses := make([]timing.PolicyResponse, 0, len(policies))
	for _, p := range policies {
		responses = append(responses, timing.NewPolicyResponse(p))
	}
	return responses, nil
}

// Save implements timing.PolicyService.
func (s *PolicyServiceImpl) Save(ctx context.Context, req timing.SavePolicyRequest) (timing.PolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return timing.PolicyResponse{}, err
	}

	policy, err := req.ToPolicy()
	if err != nil {
		return timing.PolicyResponse{}, err
	}
	if err := policy.Validate(); err != nil {
		return timing.PolicyResponse{}, err
	}

	if policy.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return timing.PolicyResponse{}, fmt.Errorf("failed to generate policy id: %w", err)
		}
		policy.ID = id.String()
	}

	saved, err := s.repo.Save(ctx, policy)
	if err != nil {
		return timing.PolicyResponse{}, fmt.Errorf("failed to save office timing policy: %w", err)
	}

	s.invalidate(ctx, "write")

	slog.Info("Office timing policy saved",
		"policy_id", saved.ID,
		"scope", saved.Scope(),
		"active", saved.IsActive,
	)
	return timing.NewPolicyResponse(saved), nil
}

// Deactivate implements timing.PolicyService.
func (s *PolicyServiceImpl) Deactivate(ctx context.Context, id string) error {
	if !validator.IsValidUUID(id) {
		return validator.ValidationErrors{{Field: "id", Message: "id must be a valid UUIDv7"}}
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, timing.ErrPolicyNotFound) {
			return timing.ErrPolicyNotFound
		}
		return fmt.Errorf("failed to deactivate office timing policy: %w", err)
	}

	s.invalidate(ctx, "write")

	slog.Info("Office timing policy deactivated", "policy_id", id)
	return nil
}

// invalidate drops cached resolutions before the write returns, then tells
// other instances. A failed publish is logged; the local cache is already correct.
func (s *PolicyServiceImpl) invalidate(ctx context.Context, source string) {
	gen := s.cache.Invalidate()
	s.metrics.RecordInvalidation(ctx, source)
	slog.Debug("Office timing cache invalidated", "generation", gen, "source", source)

	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx); err != nil {
		slog.Warn("Failed to publish office timing generation", "error", err)
	}
}

// GenerationSync invalidates the local cache when another instance has
// published a newer policy generation.
type GenerationSync struct {
	publisher timing.GenerationPublisher
	cache     *PolicyCache
	lastSeen  atomic.Int64
	metrics   *metrics.Instruments
}

func NewGenerationSync(publisher timing.GenerationPublisher, cache *PolicyCache) *GenerationSync {
	return &GenerationSync{
		publisher: publisher,
		cache:     cache,
		metrics:   metrics.Default(),
	}
}

// Sync is run periodically by the cron scheduler.
func (g *GenerationSync) Sync(ctx context.Context) error {
	remote, err := g.publisher.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to read shared policy generation: %w", err)
	}

	if prev := g.lastSeen.Swap(remote); prev != remote {
		gen := g.cache.Invalidate()
		g.metrics.RecordInvalidation(ctx, "sync")
		slog.Info("Office timing cache invalidated by shared generation",
			"shared_generation", remote,
			"previous_shared_generation", prev,
			"local_generation", gen,
		)
	}
	return nil
}
