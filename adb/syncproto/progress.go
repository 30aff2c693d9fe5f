package syncproto

// Progress is the (received, total) pair reported after each successful
// chunk transferred in either direction. Percent is 0 when Total is 0 —
// this happens on PULL when the caller didn't pre-STAT the remote file, so
// the total size isn't known until the transfer completes.
type Progress struct {
	Received int64
	Total    int64
}

// Percent returns 100*Received/Total, or 0 if Total <= 0.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return 100 * float64(p.Received) / float64(p.Total)
}

// ProgressFunc is the pull-style observer passed into Push/Pull. It
// replaces the source's event/delegate pattern (spec §9): the codec calls
// it synchronously after each chunk, never buffering or dropping.
type ProgressFunc func(Progress)

func report(fn ProgressFunc, received, total int64) {
	if fn == nil {
		return
	}
	fn(Progress{Received: received, Total: total})
}
