package location

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/location"
)

// step is one scripted sensor event, delivered at offset `at` after Subscribe.
type step struct {
	at       time.Duration
	accuracy float64
	err      error
}

type fakeSensor struct {
	mu           sync.Mutex
	steps        []step
	subscribeErr error
	onceSample   location.Sample
	onceErr      error
	onceOpts     []location.SensorOptions
	subOpts      []location.SensorOptions
	subscribed   int
	unsubscribed int
	active       map[location.SubscriptionHandle]chan struct{}
}

func newFakeSensor(steps ...step) *fakeSensor {
	return &fakeSensor{
		steps:  steps,
		active: make(map[location.SubscriptionHandle]chan struct{}),
	}
}

func (f *fakeSensor) GetOnce(ctx context.Context, opts location.SensorOptions) (location.Sample, error) {
	f.mu.Lock()
	f.onceOpts = append(f.onceOpts, opts)
	sample, err := f.onceSample, f.onceErr
	f.mu.Unlock()

	if err != nil {
		return location.Sample{}, err
	}
	if sample.CapturedAt.IsZero() {
		// block until cancelled, like a sensor that never answers
		<-ctx.Done()
		return location.Sample{}, ctx.Err()
	}
	return sample, nil
}

func (f *fakeSensor) Subscribe(opts location.SensorOptions, onReading func(location.Sample), onError func(error)) (location.SubscriptionHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.subOpts = append(f.subOpts, opts)
	if f.subscribeErr != nil {
		return "", f.subscribeErr
	}

	f.subscribed++
	handle := location.SubscriptionHandle("sub-" + strconv.Itoa(f.subscribed))
	stop := make(chan struct{})
	f.active[handle] = stop

	steps := append([]step(nil), f.steps...)
	go func() {
		start := time.Now()
		for _, s := range steps {
			timer := time.NewTimer(s.at - time.Since(start))
			select {
			case <-timer.C:
			case <-stop:
				timer.Stop()
				return
			}
			if s.err != nil {
				onError(s.err)
				continue
			}
			onReading(location.Sample{
				Latitude:       -6.2,
				Longitude:      106.8,
				AccuracyMeters: s.accuracy,
				CapturedAt:     time.Now(),
			})
		}
	}()

	return handle, nil
}

func (f *fakeSensor) Unsubscribe(handle location.SubscriptionHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stop, ok := f.active[handle]
	if !ok {
		return
	}
	close(stop)
	delete(f.active, handle)
	f.unsubscribed++
}

func (f *fakeSensor) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

func (f *fakeSensor) counts() (subscribed, unsubscribed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribed, f.unsubscribed
}

type fakeProvider struct {
	mu      sync.Mutex
	sensors map[string]*fakeSensor
	errors  map[string][]error
	pushed  map[string][]location.Sample
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		sensors: make(map[string]*fakeSensor),
		errors:  make(map[string][]error),
		pushed:  make(map[string][]location.Sample),
	}
}

func (p *fakeProvider) Sensor(deviceID string) location.Sensor {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sensors[deviceID]
	if !ok {
		s = newFakeSensor()
		p.sensors[deviceID] = s
	}
	return s
}

func (p *fakeProvider) PushReading(deviceID string, sample location.Sample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed[deviceID] = append(p.pushed[deviceID], sample)
}

func (p *fakeProvider) PushError(deviceID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors[deviceID] = append(p.errors[deviceID], err)
}

// fakeClock only moves on Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	c       chan time.Time
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now.Add(d), c: make(chan time.Time, 1)}
	c.timers = append(c.timers, t)
	c.fireDue()
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	c.fireDue()
}

// fireDue is called with c.mu held.
func (c *fakeClock) fireDue() {
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			t.c <- c.now
		}
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) C() <-chan time.Time { return t.c }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// manualSensor hands its subscription callbacks to the test, which delivers
// readings on its own goroutine.
type manualSensor struct {
	mu         sync.Mutex
	onReading  func(location.Sample)
	onError    func(error)
	subscribed bool
}

func (m *manualSensor) GetOnce(ctx context.Context, _ location.SensorOptions) (location.Sample, error) {
	<-ctx.Done()
	return location.Sample{}, ctx.Err()
}

func (m *manualSensor) Subscribe(_ location.SensorOptions, onReading func(location.Sample), onError func(error)) (location.SubscriptionHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReading, m.onError = onReading, onError
	m.subscribed = true
	return "manual", nil
}

func (m *manualSensor) Unsubscribe(location.SubscriptionHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed = false
}

func (m *manualSensor) isSubscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribed
}

// deliver returns once the sampler has taken the reading.
func (m *manualSensor) deliver(accuracy float64) {
	m.mu.Lock()
	onReading := m.onReading
	m.mu.Unlock()

	onReading(location.Sample{
		Latitude:       -6.2,
		Longitude:      106.8,
		AccuracyMeters: accuracy,
		CapturedAt:     time.Now(),
	})
}
