package timing

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
	"github.com/stretchr/testify/mock"
)

type mockPolicyRepository struct {
	mock.Mock
}

func (m *mockPolicyRepository) GetActiveByDepartment(ctx context.Context, department string) (timing.OfficeTimingPolicy, error) {
	args := m.Called(ctx, department)
	return args.Get(0).(timing.OfficeTimingPolicy), args.Error(1)
}

func (m *mockPolicyRepository) GetActiveGlobal(ctx context.Context) (timing.OfficeTimingPolicy, error) {
	args := m.Called(ctx)
	return args.Get(0).(timing.OfficeTimingPolicy), args.Error(1)
}

func (m *mockPolicyRepository) GetByID(ctx context.Context, id string) (timing.OfficeTimingPolicy, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(timing.OfficeTimingPolicy), args.Error(1)
}

func (m *mockPolicyRepository) List(ctx context.Context, filter timing.PolicyFilter) ([]timing.OfficeTimingPolicy, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]timing.OfficeTimingPolicy), args.Error(1)
}

func (m *mockPolicyRepository) Save(ctx context.Context, policy timing.OfficeTimingPolicy) (timing.OfficeTimingPolicy, error) {
	args := m.Called(ctx, policy)
	return args.Get(0).(timing.OfficeTimingPolicy), args.Error(1)
}

func (m *mockPolicyRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// memoryPolicyRepository keeps policies in insertion order and enforces one
// active policy per scope on Save, like the postgres repository.
type memoryPolicyRepository struct {
	mu       sync.Mutex
	policies []timing.OfficeTimingPolicy
}

func (r *memoryPolicyRepository) insert(p timing.OfficeTimingPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies = append(r.policies, p)
}

func (r *memoryPolicyRepository) find(match func(timing.OfficeTimingPolicy) bool) (timing.OfficeTimingPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.policies {
		if match(p) {
			return p, nil
		}
	}
	return timing.OfficeTimingPolicy{}, timing.ErrPolicyNotFound
}

func (r *memoryPolicyRepository) GetActiveByDepartment(_ context.Context, department string) (timing.OfficeTimingPolicy, error) {
	return r.find(func(p timing.OfficeTimingPolicy) bool {
		return p.IsActive && p.Department != nil && *p.Department == department
	})
}

func (r *memoryPolicyRepository) GetActiveGlobal(_ context.Context) (timing.OfficeTimingPolicy, error) {
	return r.find(func(p timing.OfficeTimingPolicy) bool {
		return p.IsActive && p.Department == nil
	})
}

func (r *memoryPolicyRepository) GetByID(_ context.Context, id string) (timing.OfficeTimingPolicy, error) {
	return r.find(func(p timing.OfficeTimingPolicy) bool { return p.ID == id })
}

func (r *memoryPolicyRepository) List(_ context.Context, filter timing.PolicyFilter) ([]timing.OfficeTimingPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []timing.OfficeTimingPolicy
	for _, p := range r.policies {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Scope() < out[j].Scope() })
	return out, nil
}

func (r *memoryPolicyRepository) Save(_ context.Context, policy timing.OfficeTimingPolicy) (timing.OfficeTimingPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	replaced := false
	for i := range r.policies {
		if policy.IsActive && r.policies[i].Scope() == policy.Scope() {
			r.policies[i].IsActive = false
		}
		if r.policies[i].ID == policy.ID {
			r.policies[i] = policy
			replaced = true
		}
	}
	if !replaced {
		r.policies = append(r.policies, policy)
	}
	return policy, nil
}

func (r *memoryPolicyRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.policies {
		if r.policies[i].ID == id {
			r.policies[i].IsActive = false
			return nil
		}
	}
	return timing.ErrPolicyNotFound
}

type fakePublisher struct {
	mu         sync.Mutex
	generation int64
	err        error
}

func (f *fakePublisher) Publish(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.generation++
	return f.generation, nil
}

func (f *fakePublisher) Current(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.generation, nil
}

func (f *fakePublisher) set(gen int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation = gen
}

func strPtr(s string) *string { return &s }

func policyFor(id string, department *string, start, end timing.ClockTime) timing.OfficeTimingPolicy {
	return timing.OfficeTimingPolicy{
		ID:         id,
		Department: department,
		StartTime:  start,
		EndTime:    end,
		IsActive:   true,
	}
}
