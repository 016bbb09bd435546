// Package preview keeps a PNG snapshot of the weekly schedule fresh by
// running a capture job on a cron schedule.
package preview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "tutorpage/internal/log"
)

const defaultJobTimeout = 60 * time.Second

// Job produces one snapshot.
type Job func(ctx context.Context) error

// Status describes the most recent run.
type Status struct {
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
	Runs      int       `json:"runs"`
	Next      time.Time `json:"next"`
}

// Scheduler runs a Job on a standard five-field cron spec. Overlapping runs
// are skipped.
type Scheduler struct {
	spec    string
	job     Job
	timeout time.Duration
	cron    *cron.Cron
	entry   cron.EntryID

	mu     sync.Mutex
	status Status
	ctx    context.Context
}

// NewScheduler parses spec in loc and prepares the scheduler. Nothing runs
// until Run is called.
func NewScheduler(spec string, loc *time.Location, job Job) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("preview: job is required")
	}
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		spec:    spec,
		job:     job,
		timeout: defaultJobTimeout,
		ctx:     context.Background(),
	}
	logger := cronLogger{}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, err
	}
	s.entry = id
	return s, nil
}

// SetTimeout bounds each job run.
func (s *Scheduler) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Run captures once immediately, then on every tick until ctx is done. It
// waits for an in-flight job before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	appLog.Info("preview scheduler started", "cron", s.spec)
	_ = s.RunOnce(ctx)

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()

	appLog.Info("preview scheduler stopped")
	return nil
}

// RunOnce runs the job now and records the result.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.job(ctx)

	s.mu.Lock()
	s.status.LastRun = start
	s.status.Runs++
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		appLog.Error("preview capture failed", err, "elapsed", time.Since(start).String())
		return err
	}
	appLog.Info("preview captured", "elapsed", time.Since(start).String())
	return nil
}

// Status returns a copy of the latest run state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	st := s.status
	s.mu.Unlock()
	st.Next = s.cron.Entry(s.entry).Next
	return st
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	_ = s.RunOnce(ctx)
}

// cronLogger routes cron's internal messages to the app log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
