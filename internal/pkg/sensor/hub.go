package sensor

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/location"
	"github.com/google/uuid"
)

// event is a reading or an error pushed by a device.
type event struct {
	sample location.Sample
	err    error
}

// Hub fans device-pushed readings out to sensor subscribers. It implements
// location.SensorProvider and location.ReadingSink.
type Hub struct {
	mu         sync.RWMutex
	devices    map[string]*device
	bufferSize int
}

type device struct {
	last        *location.Sample
	subscribers map[location.SubscriptionHandle]*subscriber
	waiters     map[chan event]struct{}
}

type subscriber struct {
	events chan event
	done   chan struct{}
}

// NewHub creates a hub. bufferSize bounds the events queued per subscriber;
// events beyond it are dropped.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{
		devices:    make(map[string]*device),
		bufferSize: bufferSize,
	}
}

// device returns the entry for id. Caller holds h.mu for writing.
func (h *Hub) device(id string) *device {
	d, ok := h.devices[id]
	if !ok {
		d = &device{
			subscribers: make(map[location.SubscriptionHandle]*subscriber),
			waiters:     make(map[chan event]struct{}),
		}
		h.devices[id] = d
	}
	return d
}

// dropIfIdle removes the entry for id when nothing references it and it holds
// no reading. Caller holds h.mu for writing.
func (h *Hub) dropIfIdle(id string, d *device) {
	if d.last == nil && d.idle() && h.devices[id] == d {
		delete(h.devices, id)
	}
}

func (d *device) idle() bool {
	return len(d.subscribers) == 0 && len(d.waiters) == 0
}

// Prune removes idle devices whose last reading is older than maxAge and
// returns how many were removed.
func (h *Hub) Prune(maxAge time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, d := range h.devices {
		if !d.idle() {
			continue
		}
		if d.last == nil || time.Since(d.last.CapturedAt) > maxAge {
			delete(h.devices, id)
			removed++
		}
	}
	return removed
}

// DeviceCount returns the devices currently tracked.
func (h *Hub) DeviceCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.devices)
}

// Sensor implements location.SensorProvider.
func (h *Hub) Sensor(deviceID string) location.Sensor {
	return &deviceSensor{hub: h, deviceID: deviceID}
}

// PushReading implements location.ReadingSink.
func (h *Hub) PushReading(deviceID string, sample location.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	d := h.device(deviceID)
	s := sample
	d.last = &s
	d.publish(event{sample: sample})
}

// PushError implements location.ReadingSink.
func (h *Hub) PushError(deviceID string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	d := h.device(deviceID)
	d.publish(event{err: err})
	h.dropIfIdle(deviceID, d)
}

// publish delivers ev without blocking. Caller holds the hub lock.
func (d *device) publish(ev event) {
	for _, sub := range d.subscribers {
		select {
		case sub.events <- ev:
		default:
			// Skip if channel is full
		}
	}
	for ch := range d.waiters {
		select {
		case ch <- ev:
		default:
		}
		delete(d.waiters, ch)
	}
}

// SubscriberCount returns the open subscriptions of one device.
func (h *Hub) SubscriberCount(deviceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if d, ok := h.devices[deviceID]; ok {
		return len(d.subscribers)
	}
	return 0
}

// ActiveSubscriptions returns the open subscriptions across all devices.
func (h *Hub) ActiveSubscriptions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, d := range h.devices {
		total += len(d.subscribers)
	}
	return total
}

type deviceSensor struct {
	hub      *Hub
	deviceID string
}

// GetOnce returns the last reading when it is younger than opts.MaxCachedAge,
// otherwise waits for the next reading or error pushed by the device.
func (s *deviceSensor) GetOnce(ctx context.Context, opts location.SensorOptions) (location.Sample, error) {
	h := s.hub
	wait := make(chan event, 1)

	h.mu.Lock()
	d := h.device(s.deviceID)
	if d.last != nil && opts.MaxCachedAge > 0 && time.Since(d.last.CapturedAt) <= opts.MaxCachedAge {
		sample := *d.last
		h.mu.Unlock()
		return sample, nil
	}
	d.waiters[wait] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(d.waiters, wait)
		h.dropIfIdle(s.deviceID, d)
		h.mu.Unlock()
	}()

	var timeout <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ev := <-wait:
		if ev.err != nil {
			return location.Sample{}, ev.err
		}
		return ev.sample, nil
	case <-timeout:
		return location.Sample{}, location.ErrSensorTimeout
	case <-ctx.Done():
		return location.Sample{}, ctx.Err()
	}
}

// Subscribe delivers every reading and error pushed after the call until
// Unsubscribe. Callbacks run on a dedicated goroutine, one at a time.
func (s *deviceSensor) Subscribe(_ location.SensorOptions, onReading func(location.Sample), onError func(error)) (location.SubscriptionHandle, error) {
	h := s.hub
	handle := location.SubscriptionHandle(uuid.NewString())
	sub := &subscriber{
		events: make(chan event, h.bufferSize),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.device(s.deviceID).subscribers[handle] = sub
	h.mu.Unlock()

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case ev := <-sub.events:
				select {
				case <-sub.done:
					return
				default:
				}
				if ev.err != nil {
					onError(ev.err)
				} else {
					onReading(ev.sample)
				}
			}
		}
	}()

	return handle, nil
}

func (s *deviceSensor) Unsubscribe(handle location.SubscriptionHandle) {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	d, ok := h.devices[s.deviceID]
	if !ok {
		return
	}
	sub, ok := d.subscribers[handle]
	if !ok {
		return
	}
	delete(d.subscribers, handle)
	close(sub.done)
	h.dropIfIdle(s.deviceID, d)
}
