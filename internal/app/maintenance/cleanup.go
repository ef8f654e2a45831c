package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eduleads/authcore/internal/services"
	"github.com/eduleads/authcore/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultAssignmentGrace    = 30 * 24 * time.Hour
	defaultAuditSpec          = "@daily"
	defaultAssignmentSpec     = "@daily"
)

// Cleaner coordinates background maintenance tasks: enforcing the audit
// retention window and pruning long-expired role assignments. Expired
// assignments are already inert, pruning only keeps the table small.
type Cleaner struct {
	audit       *services.AuditService
	assignments *services.AssignmentService
	cron        *cron.Cron
	log         *zap.Logger
	enabled     bool

	retention int
	grace     time.Duration

	auditSchedule      string
	assignmentSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithAssignmentGrace adjusts how long expired assignments are kept
// before being pruned.
func WithAssignmentGrace(grace time.Duration) Option {
	return func(cleaner *Cleaner) {
		if grace > 0 {
			cleaner.grace = grace
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// WithAssignmentSchedule overrides the cron specification for assignment pruning.
func WithAssignmentSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.assignmentSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency results in
// the corresponding cleanup job being skipped.
func NewCleaner(audit *services.AuditService, assignments *services.AssignmentService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		audit:              audit,
		assignments:        assignments,
		retention:          defaultAuditRetentionDays,
		grace:              defaultAssignmentGrace,
		auditSchedule:      defaultAuditSpec,
		assignmentSchedule: defaultAssignmentSpec,
		log:                logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.audit != nil || cleaner.assignments != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			ctx := context.Background()
			if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.assignments != nil {
		if _, err := c.cron.AddFunc(c.assignmentSchedule, func() {
			ctx := context.Background()
			if _, err := c.assignments.PruneExpired(ctx, c.grace); err != nil {
				c.log.Warn("assignment pruning failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.assignments != nil {
		if _, err := c.assignments.PruneExpired(ctx, c.grace); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
