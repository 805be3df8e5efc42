package db

import (
	"context"
	"fmt"
	"time"
)

const unlockTimeout = 5 * time.Second

// TryAcquireAdvisoryLock takes a session-level advisory lock on a dedicated connection.
// When acquired, the returned release func must be called to unlock and return the connection.
func (db *DB) TryAcquireAdvisoryLock(ctx context.Context, lockID int64) (func(), bool, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool

	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		conn.Release()

		return nil, false, fmt.Errorf("try acquire advisory lock: %w", err)
	}

	if !acquired {
		conn.Release()

		return nil, false, nil
	}

	release := func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()

		if _, err := conn.Exec(unlockCtx, "SELECT pg_advisory_unlock($1)", lockID); err != nil {
			db.Logger.Warn().Err(err).Int64("lock_id", lockID).Msg("failed to release advisory lock")
		}

		conn.Release()
	}

	return release, true, nil
}
