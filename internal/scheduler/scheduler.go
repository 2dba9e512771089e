// Package scheduler runs named periodic jobs that belong to one view and die with it.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Job is the body of a periodic task. It must honour ctx cancellation.
type Job func(ctx context.Context)

type entry struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler owns a set of interval jobs keyed by name.
// Runs of the same job never overlap: ticks arriving during a run are dropped.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*entry
}

func New(parent context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{ctx: ctx, cancel: cancel, jobs: make(map[string]*entry)}
}

// Every runs fn immediately and then every interval until cancelled.
// Registering a name twice replaces the previous job.
func (s *Scheduler) Every(name string, interval time.Duration, fn Job) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	old := s.jobs[name]

	ctx, cancel := context.WithCancel(s.ctx)
	e := &entry{cancel: cancel, done: make(chan struct{})}
	s.jobs[name] = e
	s.mu.Unlock()

	if old != nil {
		old.cancel()
		<-old.done
	}

	go func() {
		defer close(e.done)
		loop(ctx, interval, fn)
	}()
}

func loop(ctx context.Context, interval time.Duration, fn Job) {
	if ctx.Err() != nil {
		return
	}
	fn(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	drive(ctx, t.C, fn)
}

// drive runs fn once per tick. A tick that queued while fn was running is
// discarded, so a slow run never triggers an immediate catch-up run.
func drive(ctx context.Context, ticks <-chan time.Time, fn Job) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			if ctx.Err() != nil {
				return
			}
			fn(ctx)
			select {
			case <-ticks:
			default:
			}
		}
	}
}

// Cancel stops the named job and waits for its current run to return.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	e, ok := s.jobs[name]
	if ok {
		delete(s.jobs, name)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	e.cancel()
	<-e.done
	return true
}

// Jobs lists the names of live jobs, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Stop cancels every job and waits for them. The scheduler cannot be reused.
func (s *Scheduler) Stop() {
	s.cancel()

	s.mu.Lock()
	jobs := s.jobs
	s.jobs = make(map[string]*entry)
	s.mu.Unlock()

	for _, e := range jobs {
		<-e.done
	}
}
