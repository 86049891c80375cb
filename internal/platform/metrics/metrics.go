package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64
	authFailures    uint64
	liveStreams     int64

	mu      sync.Mutex
	denials map[string]uint64
}

func New() *Collector {
	return &Collector{denials: map[string]uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordDenial counts an authorization denial for a policy category.
func (c *Collector) RecordDenial(category string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.denials[category]++
	c.mu.Unlock()
}

func (c *Collector) RecordAuthFailure() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.authFailures, 1)
}

// StreamOpened and StreamClosed track live websocket connections.
func (c *Collector) StreamOpened() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.liveStreams, 1)
}

func (c *Collector) StreamClosed() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.liveStreams, -1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	keys := make([]string, 0, len(c.denials))
	for key := range c.denials {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	denials := make(map[string]uint64, len(keys))
	var deniedTotal uint64
	for _, key := range keys {
		denials[key] = c.denials[key]
		deniedTotal += c.denials[key]
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":     total,
		"errorsTotal":       errs,
		"rateLimitedTotal":  limited,
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"authFailuresTotal": atomic.LoadUint64(&c.authFailures),
		"deniedTotal":       deniedTotal,
		"deniedByCategory":  denials,
		"liveStreams":       atomic.LoadInt64(&c.liveStreams),
	}
}
