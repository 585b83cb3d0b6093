package async_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prysmaticlabs/lumen/async"
)

func TestRunEvery_TicksThenStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	async.RunEvery(ctx, 50*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})

	time.Sleep(200 * time.Millisecond)
	if atomic.LoadInt32(&calls) == 0 {
		t.Fatal("Periodic task never ran")
	}

	cancel()
	// Give the cancellation time to propagate before sampling the counter.
	time.Sleep(100 * time.Millisecond)
	before := atomic.LoadInt32(&calls)

	time.Sleep(200 * time.Millisecond)
	if after := atomic.LoadInt32(&calls); after != before {
		t.Errorf("Task ran %d more times after cancellation", after-before)
	}
}
