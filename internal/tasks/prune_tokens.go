package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookkinder/internal/logger"
)

// TokenPruner deletes session tokens whose expiry has passed.
type TokenPruner interface {
	PruneExpiredTokens() (int64, error)
}

// PruneRecorder receives the outcome of each prune run. audit.Service
// satisfies it.
type PruneRecorder interface {
	LogTokenPrune(removed int64, err error)
}

// PruneExpiredTokensTask removes expired rows from session_tokens.
type PruneExpiredTokensTask struct {
	RequestedAt time.Time `json:"requested_at"`
}

// Config returns the queue configuration for token pruning tasks.
func (t PruneExpiredTokensTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_expired_tokens",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PruneExpiredTokensProcessor creates a processor function for
// PruneExpiredTokensTask. recorder may be nil.
func PruneExpiredTokensProcessor(pruner TokenPruner, recorder PruneRecorder) backlite.QueueProcessor[PruneExpiredTokensTask] {
	return func(ctx context.Context, task PruneExpiredTokensTask) error {
		if pruner == nil {
			return fmt.Errorf("token pruner not configured")
		}

		removed, err := pruner.PruneExpiredTokens()
		if recorder != nil {
			recorder.LogTokenPrune(removed, err)
		}
		if err != nil {
			return fmt.Errorf("prune expired tokens: %w", err)
		}

		logger.L.Info().Int64("removed", removed).Msg("Pruned expired session tokens")
		return nil
	}
}

// NewPruneExpiredTokensQueue creates a backlite queue for token pruning tasks.
func NewPruneExpiredTokensQueue(pruner TokenPruner, recorder PruneRecorder) backlite.Queue {
	return backlite.NewQueue(PruneExpiredTokensProcessor(pruner, recorder))
}
