package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64
	remindersSent   uint64

	mu           sync.Mutex
	clockActions map[string]uint64
}

func New() *Collector {
	return &Collector{clockActions: map[string]uint64{}}
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

// RecordClock counts a committed clock action by name.
func (c *Collector) RecordClock(action string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.clockActions[action]++
	c.mu.Unlock()
}

func (c *Collector) RecordReminder() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.remindersSent, 1)
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
	actions := make(map[string]uint64, len(c.clockActions))
	for k, v := range c.clockActions {
		actions[k] = v
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":      total,
		"errorsTotal":        errs,
		"rateLimitedTotal":   limited,
		"avgDurationMs":      avg,
		"totalDurationMs":    totalMs,
		"clockActionsTotal":  actions,
		"remindersSentTotal": atomic.LoadUint64(&c.remindersSent),
	}
}
