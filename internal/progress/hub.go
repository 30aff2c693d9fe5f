// Package progress implements the progress hub (C9): a pull-style
// pub/sub broadcaster for transfer progress, adapted from the teacher's
// telemetry hub down to its essential Report/Subscribe shape with the
// SDR-specific config persistence and HTTP dashboard dropped (see
// DESIGN.md).
package progress

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/rjboer/goadb/adb/syncproto"
)

// sampleWindow bounds how many recent (received,Δt) pairs feed the
// moving-average rate used by Rate/ETA.
const sampleWindow = 16

type rateSample struct {
	bytes int64
	dt    time.Duration
}

// Hub fans out transfer progress to any number of subscribers. Reporting
// never blocks on a slow subscriber: a full subscriber channel drops the
// update rather than stalling the transfer.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan syncproto.Progress]struct{}
	last        syncproto.Progress
	lastAt      time.Time
	samples     []rateSample
}

// NewHub constructs an empty progress hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan syncproto.Progress]struct{})}
}

// Report broadcasts p to every live subscriber and records it for
// Rate/ETA. Intended to be passed as a syncproto.ProgressFunc, e.g.
// device.Push(path, mode, mtime, size, r, hub.Report).
func (h *Hub) Report(p syncproto.Progress) {
	h.mu.Lock()
	now := time.Now()
	if !h.lastAt.IsZero() {
		delta := p.Received - h.last.Received
		if delta > 0 {
			h.samples = append(h.samples, rateSample{bytes: delta, dt: now.Sub(h.lastAt)})
			if len(h.samples) > sampleWindow {
				h.samples = h.samples[len(h.samples)-sampleWindow:]
			}
		}
	}
	h.last = p
	h.lastAt = now
	for ch := range h.subscribers {
		select {
		case ch <- p:
		default:
		}
	}
	h.mu.Unlock()
}

// Subscribe registers a listener for live progress updates. cancel must
// be called exactly once to release the subscriber; the channel is
// closed at that point.
func (h *Hub) Subscribe() (<-chan syncproto.Progress, func()) {
	ch := make(chan syncproto.Progress, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Rate returns the mean throughput in bytes/sec over the trailing sample
// window, computed with gonum/stat rather than a hand-rolled average.
func (h *Hub) Rate() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.samples) == 0 {
		return 0
	}
	rates := make([]float64, len(h.samples))
	for i, s := range h.samples {
		secs := s.dt.Seconds()
		if secs <= 0 {
			rates[i] = 0
			continue
		}
		rates[i] = float64(s.bytes) / secs
	}
	return stat.Mean(rates, nil)
}

// ETA returns the estimated time remaining given the last reported
// progress and the current Rate. Returns 0 if the rate is unknown or the
// total is not yet known (total <= 0).
func (h *Hub) ETA() time.Duration {
	h.mu.Lock()
	last := h.last
	h.mu.Unlock()
	rate := h.Rate()
	if rate <= 0 || last.Total <= 0 {
		return 0
	}
	remaining := last.Total - last.Received
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining) / rate * float64(time.Second))
}
