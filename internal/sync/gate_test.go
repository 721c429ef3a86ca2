package sync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
)

func intent() domain.SyncIntent {
	return domain.SyncIntent{Source: domain.SourceManual, Scope: domain.FullSyncScope()}
}

func TestGate_ExcludesConcurrentHolders(t *testing.T) {
	g := NewGate(nil)
	var inFlight int32
	var maxObserved int32

	release1, err := g.Acquire(context.Background(), intent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	atomic.AddInt32(&inFlight, 1)
	if atomic.LoadInt32(&inFlight) > maxObserved {
		maxObserved = atomic.LoadInt32(&inFlight)
	}

	done := make(chan struct{})
	go func() {
		release2, err := g.Acquire(context.Background(), intent())
		if err != nil {
			t.Errorf("unexpected error on second acquire: %v", err)
			close(done)
			return
		}
		if atomic.LoadInt32(&inFlight) != 0 {
			t.Errorf("second holder observed inFlight=%d, want 0", atomic.LoadInt32(&inFlight))
		}
		release2()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	atomic.AddInt32(&inFlight, -1)
	release1()
	<-done
}

func TestGate_TimesOut(t *testing.T) {
	g := NewGate(nil)
	g.timeout = 50 * time.Millisecond

	release, err := g.Acquire(context.Background(), intent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	_, err = g.Acquire(context.Background(), intent())
	if err == nil {
		t.Fatal("expected gate timeout error")
	}
}

func TestGate_ReleaseIsIdempotent(t *testing.T) {
	g := NewGate(nil)
	release, err := g.Acquire(context.Background(), intent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()
	release() // must not panic or double-unlock the semaphore

	release2, err := g.Acquire(context.Background(), intent())
	if err != nil {
		t.Fatalf("gate should be free after release: %v", err)
	}
	release2()
}
