package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
	"github.com/noah-isme/sma-timetable-portal/pkg/jobs"
)

// Maintenance job types.
const (
	JobRefreshReferences = "references.refresh"
	JobSweepFeeds        = "feeds.sweep"
)

type referenceRefresher interface {
	Refresh(ctx context.Context) (*models.References, error)
}

type feedSweeper interface {
	Sweep(ttl time.Duration) int
}

// MaintenanceConfig schedules background work. Specs use the five field cron
// syntax.
type MaintenanceConfig struct {
	RefreshSpec string
	SweepSpec   string
	FeedTTL     time.Duration
	Workers     int
	RetryDelay  time.Duration
}

// MaintenanceService refreshes reference lists and drops idle session feeds
// on a cron schedule. Scheduled ticks only enqueue; the job queue runs them.
type MaintenanceService struct {
	cron    *cron.Cron
	queue   *jobs.Queue
	refs    referenceRefresher
	feeds   feedSweeper
	cfg     MaintenanceConfig
	logger  *zap.Logger
	entries []cron.EntryID
}

// NewMaintenanceService validates the schedules and builds the service.
func NewMaintenanceService(refs referenceRefresher, feeds feedSweeper, cfg MaintenanceConfig, logger *zap.Logger) (*MaintenanceService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SweepSpec == "" {
		cfg.SweepSpec = "*/10 * * * *"
	}
	if cfg.FeedTTL <= 0 {
		cfg.FeedTTL = time.Hour
	}
	for _, spec := range []string{cfg.RefreshSpec, cfg.SweepSpec} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
		}
	}

	m := &MaintenanceService{
		cron:   cron.New(),
		refs:   refs,
		feeds:  feeds,
		cfg:    cfg,
		logger: logger,
	}
	m.queue = jobs.NewQueue("maintenance", m.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: 2,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return m, nil
}

// Start runs the workers and the schedule.
func (m *MaintenanceService) Start(ctx context.Context) error {
	m.queue.Start(ctx)
	if m.cfg.RefreshSpec != "" {
		id, err := m.cron.AddFunc(m.cfg.RefreshSpec, func() { m.enqueue(JobRefreshReferences) })
		if err != nil {
			return err
		}
		m.entries = append(m.entries, id)
	}
	id, err := m.cron.AddFunc(m.cfg.SweepSpec, func() { m.enqueue(JobSweepFeeds) })
	if err != nil {
		return err
	}
	m.entries = append(m.entries, id)
	m.cron.Start()
	m.logger.Info("maintenance scheduled", zap.String("refresh", m.cfg.RefreshSpec), zap.String("sweep", m.cfg.SweepSpec))
	return nil
}

// Stop waits for running cron callbacks and drains the workers.
func (m *MaintenanceService) Stop() {
	<-m.cron.Stop().Done()
	m.queue.Stop()
}

// Trigger enqueues a job out of schedule.
func (m *MaintenanceService) Trigger(jobType string) error {
	switch jobType {
	case JobRefreshReferences, JobSweepFeeds:
	default:
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown maintenance job %q", jobType))
	}
	return m.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobType, Key: jobType})
}

// Next reports the next scheduled run of every entry.
func (m *MaintenanceService) Next() []time.Time {
	out := make([]time.Time, 0, len(m.entries))
	for _, id := range m.entries {
		out = append(out, m.cron.Entry(id).Next)
	}
	return out
}

func (m *MaintenanceService) enqueue(jobType string) {
	if err := m.Trigger(jobType); err != nil {
		if errors.Is(err, jobs.ErrPending) {
			m.logger.Debug("maintenance job still pending", zap.String("type", jobType))
			return
		}
		m.logger.Warn("maintenance job not enqueued", zap.String("type", jobType), zap.Error(err))
	}
}

func (m *MaintenanceService) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case JobRefreshReferences:
		_, err := m.refs.Refresh(ctx)
		return err
	case JobSweepFeeds:
		m.feeds.Sweep(m.cfg.FeedTTL)
		return nil
	default:
		return fmt.Errorf("unknown maintenance job %q", job.Type)
	}
}
