package progress

import (
	"testing"
	"time"

	"github.com/rjboer/goadb/adb/syncproto"
)

func TestHubReportDeliversToSubscribers(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Report(syncproto.Progress{Received: 50, Total: 100})

	select {
	case p := <-ch:
		if p.Received != 50 || p.Total != 100 {
			t.Fatalf("got %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for progress")
	}
}

func TestHubReportDoesNotBlockOnFullSubscriber(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Report(syncproto.Progress{Received: int64(i), Total: 100})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Report blocked on an unread subscriber channel")
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after cancel")
	}
}

func TestHubRateAndETA(t *testing.T) {
	h := NewHub()
	h.Report(syncproto.Progress{Received: 0, Total: 1000})
	time.Sleep(10 * time.Millisecond)
	h.Report(syncproto.Progress{Received: 500, Total: 1000})

	if rate := h.Rate(); rate <= 0 {
		t.Fatalf("expected positive rate, got %v", rate)
	}
	if eta := h.ETA(); eta <= 0 {
		t.Fatalf("expected positive ETA, got %v", eta)
	}
}

func TestHubETAZeroWithoutTotal(t *testing.T) {
	h := NewHub()
	h.Report(syncproto.Progress{Received: 100, Total: 0})
	if eta := h.ETA(); eta != 0 {
		t.Fatalf("expected zero ETA with unknown total, got %v", eta)
	}
}
