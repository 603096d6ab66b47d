package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var (
	ErrDuplicateJob = errors.New("job already scheduled")
	ErrUnknownJob   = errors.New("unknown job")
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Job is a named function run on a five-field cron schedule.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// JobInfo describes a scheduled job.
type JobInfo struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	NextRun     *time.Time `json:"nextRun,omitempty"`
}

// Scheduler runs jobs on cron schedules until stopped.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]Job
	entries map[string]cron.EntryID

	mu         sync.RWMutex
	isRunning  bool
	ctx        context.Context
	cancelFunc context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithParser(parser)),
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Add registers a job. It may be called before or after Start.
func (s *Scheduler) Add(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %q has no run function", job.Name)
	}
	if err := ValidateSchedule(job.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}

	entryID, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
	}
	s.jobs[job.Name] = job
	s.entries[job.Name] = entryID

	logrus.WithFields(logrus.Fields{
		"job":      job.Name,
		"schedule": job.Schedule,
		"every":    Describe(job.Schedule),
	}).Info("job scheduled")
	return nil
}

// Start begins firing jobs. Cancelling ctx stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}
	if s.ctx.Err() != nil {
		s.ctx, s.cancelFunc = context.WithCancel(context.Background())
	}
	stopped := s.ctx
	s.cron.Start()
	s.isRunning = true
	logrus.WithField("jobs", len(s.jobs)).Info("scheduler started")

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopped.Done():
		}
	}()
}

// Stop waits for running jobs to finish and stops firing new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.cancelFunc()
	<-s.cron.Stop().Done()
	s.isRunning = false

	logrus.Info("scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunNow runs a registered job immediately on the calling goroutine.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return job.Run(ctx)
}

// Jobs lists registered jobs by name with their next run time when running.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, job := range s.jobs {
		info := JobInfo{
			Name:        name,
			Schedule:    job.Schedule,
			Description: Describe(job.Schedule),
		}
		if s.isRunning {
			if next := s.cron.Entry(s.entries[name]).Next; !next.IsZero() {
				info.NextRun = &next
			}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (s *Scheduler) run(job Job) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	start := time.Now()
	entry := logrus.WithField("job", job.Name)
	if err := job.Run(ctx); err != nil {
		entry.WithError(err).Error("scheduled job failed")
		return
	}
	entry.WithField("duration", time.Since(start).Round(time.Millisecond)).Debug("scheduled job finished")
}

// ValidateSchedule validates a five-field cron schedule string.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRunTime returns the first activation of schedule after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// Describe returns a human-readable description of a cron schedule.
func Describe(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 3 * * *":
		return "Daily at 03:00"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}
