package docstore

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscriptionNotifyNeverBlocks(t *testing.T) {
	sub := newSubscription(C("jobs"), func([]Document, error) {})

	// No pump is draining kicks, so every send must hit the coalescing
	// default branch instead of blocking the notifier.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			sub.notify()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notify blocked without a pump draining kicks")
	}
}

func TestSubscriptionPumpStopsOnClose(t *testing.T) {
	var calls int32
	sub := newSubscription(C("jobs"), func([]Document, error) {
		atomic.AddInt32(&calls, 1)
	})

	stopped := make(chan struct{})
	go func() {
		sub.pump(func(Query) ([]Document, error) { return nil, nil })
		close(stopped)
	}()

	sub.notify()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, time.Second, 5*time.Millisecond)

	sub.close()
	sub.close()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("pump kept running after close")
	}

	// Late kicks after close must stay inert.
	sub.notify()
	delivered := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, delivered, atomic.LoadInt32(&calls))
}
