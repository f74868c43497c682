// Package sleep defines the deep-sleep capability the scheduler hands control to.
package sleep

import (
	"context"
	"time"
)

// Actuator suspends the node. DeepSleep returns once the node is running
// again. DeepSleepForever does not return on hardware that powers down; on a
// host it returns when ctx ends or the hand-off completes.
type Actuator interface {
	DeepSleep(ctx context.Context, d time.Duration) error
	DeepSleepForever(ctx context.Context) error
}
