package tristate

import "context"

// Scheduler runs the monitoring task of a Condition. The task must return
// once ctx is cancelled.
type Scheduler interface {
	Launch(ctx context.Context, task func(ctx context.Context))
}

// GoScheduler runs each task on its own goroutine. It is the default.
type GoScheduler struct{}

// Launch starts task on a new goroutine.
func (GoScheduler) Launch(ctx context.Context, task func(ctx context.Context)) {
	go task(ctx)
}

// SyncScheduler runs each task inline on the goroutine that subscribed.
// Combined conditions use it so their value is seeded before AddCallback
// returns; tests use it for deterministic ordering. A task that blocks
// blocks the subscriber.
type SyncScheduler struct{}

// Launch runs task before returning.
func (SyncScheduler) Launch(ctx context.Context, task func(ctx context.Context)) {
	task(ctx)
}

var (
	_ Scheduler = GoScheduler{}
	_ Scheduler = SyncScheduler{}
)
