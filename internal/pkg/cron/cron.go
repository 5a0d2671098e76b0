// Package cron runs the periodic cache refresh jobs. Each job runs on its own
// ticker; a run that is still in flight when the next tick fires is skipped.
package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrUnknownJob = errors.New("unknown job")

type JobStatus string

const (
	StatusIdle    JobStatus = "idle"
	StatusRunning JobStatus = "running"
	StatusFulfill JobStatus = "fulfill"
	StatusReject  JobStatus = "reject"
)

type Job struct {
	Name        string
	Description string
	Interval    time.Duration
	Fn          func(ctx context.Context) error
}

// ListItem is the JSON view of a job served by /health/cron.
type ListItem struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Interval    string        `json:"interval"`
	Status      JobStatus     `json:"status"`
	Message     string        `json:"message,omitempty"`
	Runs        int           `json:"runs"`
	Skipped     int           `json:"skipped"`
	LastRunAt   *time.Time    `json:"lastRunAt,omitempty"`
	LastTook    time.Duration `json:"lastTookNs,omitempty"`
	NextDate    time.Time     `json:"nextDate"`
}

type entry struct {
	job Job

	mu      sync.Mutex
	status  JobStatus
	message string
	runs    int
	skipped int
	lastRun *time.Time
	took    time.Duration
	next    time.Time
}

type Scheduler struct {
	mu     sync.RWMutex
	jobs   map[string]*entry
	logger *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{jobs: make(map[string]*entry), logger: logger.Named("Scheduler")}
}

// Register adds a job; call before Start. A non-positive interval disables it.
func (s *Scheduler) Register(job Job) {
	if job.Interval <= 0 {
		s.logger.Info("job disabled", zap.String("job", job.Name))
		return
	}
	s.mu.Lock()
	s.jobs[job.Name] = &entry{job: job, status: StatusIdle, next: time.Now().Add(job.Interval)}
	s.mu.Unlock()
}

// Start launches one goroutine per job; they stop when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.jobs {
		go s.loop(ctx, e)
	}
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	ticker := time.NewTicker(e.job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.mu.Lock()
			e.next = now.Add(e.job.Interval)
			e.mu.Unlock()
			_ = s.run(ctx, e)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, e *entry) error {
	e.mu.Lock()
	if e.status == StatusRunning {
		e.skipped++
		e.mu.Unlock()
		s.logger.Debug("job still running, tick skipped", zap.String("job", e.job.Name))
		return nil
	}
	e.status = StatusRunning
	e.mu.Unlock()

	started := time.Now()
	err := e.job.Fn(ctx)
	took := time.Since(started)

	e.mu.Lock()
	e.runs++
	e.lastRun = &started
	e.took = took
	e.status, e.message = StatusFulfill, ""
	if err != nil {
		e.status, e.message = StatusReject, err.Error()
	}
	e.mu.Unlock()

	if err != nil {
		s.logger.Warn("job failed", zap.String("job", e.job.Name), zap.Duration("took", took), zap.Error(err))
	}
	return err
}

// RunNow runs a job synchronously and returns its error. Unknown names
// yield ErrUnknownJob.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	e, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	if err := s.run(ctx, e); err != nil {
		return fmt.Errorf("job %q: %w", name, err)
	}
	return nil
}

// List returns the jobs sorted by name.
func (s *Scheduler) List() []ListItem {
	s.mu.RLock()
	items := make([]ListItem, 0, len(s.jobs))
	for _, e := range s.jobs {
		e.mu.Lock()
		items = append(items, ListItem{
			Name:        e.job.Name,
			Description: e.job.Description,
			Interval:    e.job.Interval.String(),
			Status:      e.status,
			Message:     e.message,
			Runs:        e.runs,
			Skipped:     e.skipped,
			LastRunAt:   e.lastRun,
			LastTook:    e.took,
			NextDate:    e.next,
		})
		e.mu.Unlock()
	}
	s.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}
