// Package status tracks the outcome of every scheduled job run for the
// health and status endpoints.
package status

import (
	"sort"
	"sync"
	"time"
)

// JobStatus is the latest known state of one job.
type JobStatus struct {
	Name          string     `json:"name"`
	PeriodSeconds int64      `json:"period_seconds"`
	LastStarted   *time.Time `json:"last_started,omitempty"`
	LastDuration  float64    `json:"last_duration_seconds"`
	LastRecords   int        `json:"last_records"`
	LastError     string     `json:"last_error,omitempty"`
	Runs          uint64     `json:"runs"`
	Failures      uint64     `json:"failures"`
}

// Tracker records job outcomes. It implements scheduler.Observer.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	jobs    map[string]*JobStatus
	pending map[string]int
	started time.Time
	now     func() time.Time
}

// NewTracker creates an empty tracker; uptime counts from now.
func NewTracker() *Tracker {
	return &Tracker{
		jobs:    make(map[string]*JobStatus),
		pending: make(map[string]int),
		started: time.Now(),
		now:     time.Now,
	}
}

// Register adds a job so it is listed before its first run.
func (t *Tracker) Register(name string, period time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.job(name).PeriodSeconds = int64(period / time.Second)
}

// RecordsCollected notes how many records the in-flight run of name
// produced. The count is attached when the run finishes.
func (t *Tracker) RecordsCollected(name string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[name] = n
}

// JobFinished implements scheduler.Observer.
func (t *Tracker) JobFinished(name string, started time.Time, took time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	js := t.job(name)
	js.LastStarted = &started
	js.LastDuration = took.Seconds()
	js.LastRecords = t.pending[name]
	delete(t.pending, name)
	js.Runs++
	js.LastError = ""
	if err != nil {
		js.Failures++
		js.LastError = err.Error()
	}
}

// Jobs returns a copy of every job's status, sorted by name.
func (t *Tracker) Jobs() []JobStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]JobStatus, 0, len(t.jobs))
	for _, js := range t.jobs {
		c := *js
		if js.LastStarted != nil {
			ts := *js.LastStarted
			c.LastStarted = &ts
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Uptime returns how long the tracker has existed.
func (t *Tracker) Uptime() time.Duration {
	return t.now().Sub(t.started)
}

// job returns the entry for name, creating it. Callers hold mu.
func (t *Tracker) job(name string) *JobStatus {
	js, ok := t.jobs[name]
	if !ok {
		js = &JobStatus{Name: name}
		t.jobs[name] = js
	}
	return js
}
