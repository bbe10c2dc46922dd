// Package globe owns the selection state of the climate globe and turns
// selection changes into overlay textures and per-frame render input.
package globe

import (
	"sync"
	"sync/atomic"

	"climateglobe/core"
)

// Selection is what the globe highlights: a region and its display metrics
type Selection struct {
	Region  core.RegionID  `json:"region"`
	Metrics core.MetricSet `json:"metrics"`
}

// Source labels where a selection change came from
type Source string

const (
	SourceConfig   Source = "config"
	SourceViewport Source = "viewport"
	SourceSocket   Source = "ws"
	SourceFeed     Source = "feed"
)

// Update is a queued selection change
type Update struct {
	Selection
	Source Source

	// MetricsOnly updates the stored metrics of Region without moving the
	// highlight there, unless Region is already selected.
	MetricsOnly bool
}

// Inbox carries selection changes from any goroutine to the render loop.
// When full the oldest entry is dropped; only the newest change matters.
type Inbox struct {
	ch      chan Update
	dropped atomic.Int64

	// Metric-only updates bypass the queue so latest-wins never loses
	// them; the newest per region is kept.
	mu      sync.Mutex
	pending map[core.RegionID]Update
}

// NewInbox creates an inbox holding up to size pending changes
func NewInbox(size int) *Inbox {
	if size < 1 {
		size = 1
	}
	return &Inbox{
		ch:      make(chan Update, size),
		pending: make(map[core.RegionID]Update),
	}
}

// Submit queues u without blocking. It reports false if an older entry had
// to be discarded to make room.
func (in *Inbox) Submit(u Update) bool {
	if u.MetricsOnly {
		in.mu.Lock()
		in.pending[u.Region] = u
		in.mu.Unlock()
		return true
	}
	clean := true
	for {
		select {
		case in.ch <- u:
			return clean
		default:
		}
		select {
		case <-in.ch:
			clean = false
			in.dropped.Add(1)
		default:
		}
	}
}

// Drain empties the queue and returns the newest change
func (in *Inbox) Drain() (Update, bool) {
	var (
		last Update
		ok   bool
	)
	for {
		select {
		case u := <-in.ch:
			last, ok = u, true
		default:
			return last, ok
		}
	}
}

// TakeMetrics returns and clears the metric-only updates seen since the
// last call
func (in *Inbox) TakeMetrics() map[core.RegionID]Update {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.pending) == 0 {
		return nil
	}
	out := in.pending
	in.pending = make(map[core.RegionID]Update)
	return out
}

// Dropped counts changes superseded before the render loop read them
func (in *Inbox) Dropped() int64 {
	return in.dropped.Load()
}
