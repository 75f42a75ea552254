package timing

import (
	"testing"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
	"github.com/stretchr/testify/assert"
)

func TestPolicyCache_PutAndGet(t *testing.T) {
	c := NewPolicyCache()
	p := policyFor("p1", nil, timing.NewClockTime(9, 0), timing.NewClockTime(17, 0))

	assert.True(t, c.Put("", p, c.Generation()))

	got, ok := c.Get("")
	assert.True(t, ok)
	assert.Equal(t, "p1", got.ID)
}

func TestPolicyCache_InvalidateHidesEntries(t *testing.T) {
	c := NewPolicyCache()
	p := policyFor("p1", nil, timing.NewClockTime(9, 0), timing.NewClockTime(17, 0))
	c.Put("", p, c.Generation())

	gen := c.Invalidate()

	assert.Equal(t, uint64(1), gen)
	_, ok := c.Get("")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestPolicyCache_StalePutDropped(t *testing.T) {
	c := NewPolicyCache()
	p := policyFor("p1", nil, timing.NewClockTime(9, 0), timing.NewClockTime(17, 0))

	gen := c.Generation()
	c.Invalidate()

	assert.False(t, c.Put("", p, gen))
	_, ok := c.Get("")
	assert.False(t, ok)
}
