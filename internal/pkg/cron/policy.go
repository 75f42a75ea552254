package cron

import (
	"context"
	"time"
)

// GenerationSyncer pulls the shared policy generation and invalidates local
// caches when it moved.
type GenerationSyncer interface {
	Sync(ctx context.Context) error
}

type PolicyJobs struct {
	syncer   GenerationSyncer
	interval time.Duration
}

func NewPolicyJobs(syncer GenerationSyncer, interval time.Duration) *PolicyJobs {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &PolicyJobs{syncer: syncer, interval: interval}
}

func (j *PolicyJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     "sync_policy_generation",
		Interval: j.interval,
		Timeout:  j.interval,
		Fn:       j.syncer.Sync,
	})
}
