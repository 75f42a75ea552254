package cron

import (
	"context"
	"log/slog"
	"time"
)

// SensorPruner forgets devices that have gone quiet.
type SensorPruner interface {
	Prune(maxAge time.Duration) int
}

type SensorJobs struct {
	pruner   SensorPruner
	maxAge   time.Duration
	interval time.Duration
}

// NewSensorJobs prunes devices whose last reading is older than maxAge.
func NewSensorJobs(pruner SensorPruner, maxAge, interval time.Duration) *SensorJobs {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SensorJobs{pruner: pruner, maxAge: maxAge, interval: interval}
}

func (j *SensorJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     "prune_device_sensors",
		Interval: j.interval,
		Timeout:  j.interval,
		Fn:       j.prune,
	})
}

func (j *SensorJobs) prune(_ context.Context) error {
	if removed := j.pruner.Prune(j.maxAge); removed > 0 {
		slog.Debug("Pruned idle device sensors", "removed", removed)
	}
	return nil
}
