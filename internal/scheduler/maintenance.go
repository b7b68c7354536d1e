package scheduler

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookkinder/internal/tasks"
)

const (
	JobPruneExpiredTokens = "prune_expired_tokens"
	JobCleanupAuditEvents = "cleanup_audit_events"
)

// Enqueuer hands a task to the background queue. *tasks.Client satisfies it.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// MaintenanceConfig wires the maintenance jobs. With a nil Queue the jobs
// run inline on the scheduler goroutine.
type MaintenanceConfig struct {
	Queue Enqueuer

	TokenPruner          tasks.TokenPruner
	PruneRecorder        tasks.PruneRecorder // optional
	TokenCleanupSchedule string

	AuditCleaner         tasks.AuditEventCleaner // optional
	AuditRetentionDays   int                     // zero disables audit cleanup
	AuditCleanupSchedule string
}

// NewTokenCleanupScheduler registers the token prune job and, when
// configured, the audit cleanup job.
func NewTokenCleanupScheduler(cfg MaintenanceConfig) (*Scheduler, error) {
	s := New()

	err := s.Add(JobPruneExpiredTokens, cfg.TokenCleanupSchedule,
		TokenCleanupJob(cfg.Queue, cfg.TokenPruner, cfg.PruneRecorder))
	if err != nil {
		return nil, err
	}

	if cfg.AuditCleaner != nil && cfg.AuditRetentionDays > 0 {
		err := s.Add(JobCleanupAuditEvents, cfg.AuditCleanupSchedule,
			AuditCleanupJob(cfg.Queue, cfg.AuditCleaner, cfg.AuditRetentionDays))
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// TokenCleanupJob enqueues a prune task, or prunes directly without a queue.
func TokenCleanupJob(queue Enqueuer, pruner tasks.TokenPruner, recorder tasks.PruneRecorder) Job {
	process := tasks.PruneExpiredTokensProcessor(pruner, recorder)
	return func(ctx context.Context) error {
		task := tasks.PruneExpiredTokensTask{RequestedAt: nowFunc()}
		if queue == nil {
			return process(ctx, task)
		}
		_, err := queue.Enqueue(task)
		return err
	}
}

// AuditCleanupJob enqueues an audit cleanup task, or cleans up directly
// without a queue.
func AuditCleanupJob(queue Enqueuer, cleaner tasks.AuditEventCleaner, retentionDays int) Job {
	process := tasks.CleanupAuditEventsProcessor(cleaner)
	return func(ctx context.Context) error {
		task := tasks.CleanupAuditEventsTask{RetentionDays: retentionDays}
		if queue == nil {
			return process(ctx, task)
		}
		_, err := queue.Enqueue(task)
		return err
	}
}
