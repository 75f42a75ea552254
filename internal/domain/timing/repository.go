package timing

import "context"

// PolicyRepository reads and writes office timing policies.
type PolicyRepository interface {
	// GetActiveByDepartment returns the active policy scoped to department, or ErrPolicyNotFound.
	GetActiveByDepartment(ctx context.Context, department string) (OfficeTimingPolicy, error)

	// GetActiveGlobal returns the active policy with no department, or ErrPolicyNotFound.
	GetActiveGlobal(ctx context.Context) (OfficeTimingPolicy, error)

	GetByID(ctx context.Context, id string) (OfficeTimingPolicy, error)
	List(ctx context.Context, filter PolicyFilter) ([]OfficeTimingPolicy, error)

	// Save inserts or updates a policy. When the saved policy is active, any other
	// active policy in the same scope is deactivated in the same transaction.
	Save(ctx context.Context, policy OfficeTimingPolicy) (OfficeTimingPolicy, error)

	Deactivate(ctx context.Context, id string) error
}

// GenerationPublisher shares the policy generation between service instances.
type GenerationPublisher interface {
	// Publish bumps the shared generation and returns the new value.
	Publish(ctx context.Context) (int64, error)

	// Current returns the shared generation (0 when never published).
	Current(ctx context.Context) (int64, error)
}
