package timing

import "context"

// Resolver finds the effective policy for a department.
type Resolver interface {
	// Resolve returns the active department policy, falling back to the active
	// global policy. An empty department resolves the global policy only.
	Resolve(ctx context.Context, department string) (OfficeTimingPolicy, error)
}

// PolicyService is the admin-facing surface over policies.
type PolicyService interface {
	Resolver

	List(ctx context.Context, filter PolicyFilter) ([]PolicyResponse, error)

	// Save persists the policy and invalidates cached resolutions before returning.
	Save(ctx context.Context, req SavePolicyRequest) (PolicyResponse, error)

	// Deactivate marks the policy inactive and invalidates cached resolutions.
	Deactivate(ctx context.Context, id string) error
}
