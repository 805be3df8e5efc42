package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
	"github.com/lueurxax/telegram-feed-connector/internal/platform/observability"
	db "github.com/lueurxax/telegram-feed-connector/internal/storage"
)

// Runner runs one sync pass.
type Runner interface {
	Run(ctx context.Context) (Report, error)
}

// Locker takes cross-instance advisory locks.
type Locker interface {
	TryAcquireAdvisoryLock(ctx context.Context, lockID int64) (func(), bool, error)
}

var (
	_ Runner = (*Syncer)(nil)
	_ Runner = (*Guard)(nil)
	_ Locker = (*db.DB)(nil)
)

// Guard lets at most one pass run at a time, within the process and across
// instances sharing the database. A pass that cannot start returns ErrSyncInProgress.
type Guard struct {
	runner  Runner
	locker  Locker
	lockID  int64
	running atomic.Bool
	logger  *zerolog.Logger
}

// NewGuard wraps runner. locker may be nil to guard only within the process.
func NewGuard(runner Runner, locker Locker, logger *zerolog.Logger) *Guard {
	return &Guard{runner: runner, locker: locker, lockID: db.SyncLockID, logger: logger}
}

// Run starts a pass unless one is already running.
func (g *Guard) Run(ctx context.Context) (Report, error) {
	if !g.running.CompareAndSwap(false, true) {
		return Report{}, g.busy("in process")
	}
	defer g.running.Store(false)

	if g.locker != nil {
		release, acquired, err := g.locker.TryAcquireAdvisoryLock(ctx, g.lockID)
		if err != nil {
			return Report{}, fmt.Errorf("acquire sync lock: %w", err)
		}

		if !acquired {
			return Report{}, g.busy("another instance")
		}
		defer release()
	}

	return g.runner.Run(ctx)
}

func (g *Guard) busy(holder string) error {
	observability.SyncRunsTotal.WithLabelValues(observability.RunStatusBusy).Inc()
	g.logger.Info().Str("holder", holder).Msg("sync pass already running, skipping")

	return apperrors.ErrSyncInProgress
}
