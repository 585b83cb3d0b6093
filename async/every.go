// Package async contains helpers for running periodic functions and for
// fanning work out across processors.
package async

import (
	"context"
	"reflect"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

// RunEvery spawns a goroutine that invokes f once per period until the
// context is done.
func RunEvery(ctx context.Context, period time.Duration, f func()) {
	taskName := runtime.FuncForPC(reflect.ValueOf(f).Pointer()).Name()
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				log.WithField("task", taskName).Trace("Running periodic task")
				f()
			case <-ctx.Done():
				log.WithField("task", taskName).Debug("Stopping periodic task")
				return
			}
		}
	}()
}
