package timing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolve_DepartmentPolicyWins(t *testing.T) {
	repo := &memoryPolicyRepository{}
	repo.insert(policyFor("global", nil, timing.NewClockTime(10, 0), timing.NewClockTime(19, 0)))
	repo.insert(policyFor("eng", strPtr("Engineering"), timing.NewClockTime(9, 0), timing.NewClockTime(18, 0)))

	r := NewResolver(repo, NewPolicyCache())

	p, err := r.Resolve(context.Background(), "Engineering")
	require.NoError(t, err)
	assert.Equal(t, "eng", p.ID)
	assert.Equal(t, timing.NewClockTime(9, 0), p.StartTime)
}

func TestResolve_FallsBackToGlobal(t *testing.T) {
	repo := &memoryPolicyRepository{}
	repo.insert(policyFor("global", nil, timing.NewClockTime(10, 0), timing.NewClockTime(19, 0)))
	repo.insert(policyFor("eng", strPtr("Engineering"), timing.NewClockTime(9, 0), timing.NewClockTime(18, 0)))

	r := NewResolver(repo, NewPolicyCache())

	p, err := r.Resolve(context.Background(), "Sales")
	require.NoError(t, err)
	assert.Equal(t, "global", p.ID)
}

func TestResolve_EmptyDepartmentUsesGlobalOnly(t *testing.T) {
	repo := &mockPolicyRepository{}
	global := policyFor("global", nil, timing.NewClockTime(10, 0), timing.NewClockTime(19, 0))
	repo.On("GetActiveGlobal", mock.Anything).Return(global, nil).Once()

	r := NewResolver(repo, NewPolicyCache())

	p, err := r.Resolve(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "global", p.ID)
	repo.AssertNotCalled(t, "GetActiveByDepartment", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestResolve_InactiveDepartmentPolicyIgnored(t *testing.T) {
	repo := &mockPolicyRepository{}
	inactive := policyFor("eng", strPtr("Engineering"), timing.NewClockTime(9, 0), timing.NewClockTime(18, 0))
	inactive.IsActive = false
	global := policyFor("global", nil, timing.NewClockTime(10, 0), timing.NewClockTime(19, 0))

	repo.On("GetActiveByDepartment", mock.Anything, "Engineering").Return(inactive, nil)
	repo.On("GetActiveGlobal", mock.Anything).Return(global, nil)

	r := NewResolver(repo, NewPolicyCache())

	p, err := r.Resolve(context.Background(), "Engineering")
	require.NoError(t, err)
	assert.Equal(t, "global", p.ID)
}

func TestResolve_NotConfigured(t *testing.T) {
	repo := &memoryPolicyRepository{}
	inactive := policyFor("global", nil, timing.NewClockTime(10, 0), timing.NewClockTime(19, 0))
	inactive.IsActive = false
	repo.insert(inactive)

	r := NewResolver(repo, NewPolicyCache())

	_, err := r.Resolve(context.Background(), "Engineering")
	assert.ErrorIs(t, err, timing.ErrPolicyNotConfigured)
}

func TestResolve_NotConfiguredIsNotCached(t *testing.T) {
	repo := &memoryPolicyRepository{}
	cache := NewPolicyCache()
	r := NewResolver(repo, cache)

	_, err := r.Resolve(context.Background(), "")
	require.ErrorIs(t, err, timing.ErrPolicyNotConfigured)
	assert.Equal(t, 0, cache.Len())

	repo.insert(policyFor("global", nil, timing.NewClockTime(10, 0), timing.NewClockTime(19, 0)))

	p, err := r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "global", p.ID)
}

func TestResolve_StoreErrorWrapped(t *testing.T) {
	repo := &mockPolicyRepository{}
	boom := errors.New("connection refused")
	repo.On("GetActiveByDepartment", mock.Anything, "Engineering").
		Return(timing.OfficeTimingPolicy{}, boom)

	r := NewResolver(repo, NewPolicyCache())

	_, err := r.Resolve(context.Background(), "Engineering")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, timing.ErrPolicyNotConfigured)
	repo.AssertNotCalled(t, "GetActiveGlobal", mock.Anything)
}

func TestResolve_CacheHitSkipsStore(t *testing.T) {
	repo := &mockPolicyRepository{}
	eng := policyFor("eng", strPtr("Engineering"), timing.NewClockTime(9, 0), timing.NewClockTime(18, 0))
	repo.On("GetActiveByDepartment", mock.Anything, "Engineering").Return(eng, nil).Once()

	r := NewResolver(repo, NewPolicyCache())

	for range 5 {
		p, err := r.Resolve(context.Background(), "Engineering")
		require.NoError(t, err)
		assert.Equal(t, "eng", p.ID)
	}
	repo.AssertNumberOfCalls(t, "GetActiveByDepartment", 1)
}

func TestResolve_ConcurrentMissesReturnSamePolicy(t *testing.T) {
	repo := &memoryPolicyRepository{}
	repo.insert(policyFor("eng", strPtr("Engineering"), timing.NewClockTime(9, 0), timing.NewClockTime(18, 0)))

	r := NewResolver(repo, NewPolicyCache())

	var wg sync.WaitGroup
	ids := make([]string, 32)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := r.Resolve(context.Background(), "Engineering")
			if err == nil {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, "eng", id)
	}
}

// gatedPolicyRepository holds department lookups until release is closed and
// fails them when the lookup context is done by then, as pgx would.
type gatedPolicyRepository struct {
	*memoryPolicyRepository
	entered chan struct{}
	release chan struct{}
}

func (r *gatedPolicyRepository) GetActiveByDepartment(ctx context.Context, department string) (timing.OfficeTimingPolicy, error) {
	r.entered <- struct{}{}
	<-r.release
	if err := ctx.Err(); err != nil {
		return timing.OfficeTimingPolicy{}, err
	}
	return r.memoryPolicyRepository.GetActiveByDepartment(ctx, department)
}

func TestResolve_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	mem := &memoryPolicyRepository{}
	mem.insert(policyFor("eng", strPtr("Engineering"), timing.NewClockTime(9, 0), timing.NewClockTime(18, 0)))
	repo := &gatedPolicyRepository{
		memoryPolicyRepository: mem,
		entered:                make(chan struct{}, 1),
		release:                make(chan struct{}),
	}
	cache := NewPolicyCache()
	r := NewResolver(repo, cache)

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()

	first := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx1, "Engineering")
		first <- err
	}()
	<-repo.entered

	type result struct {
		policy timing.OfficeTimingPolicy
		err    error
	}
	second := make(chan result, 1)
	go func() {
		p, err := r.Resolve(context.Background(), "Engineering")
		second <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel1()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared lookup")
	}

	close(repo.release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, "eng", res.policy.ID)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, 1, cache.Len())
}
