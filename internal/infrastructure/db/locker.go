package db

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryInterval = 100 * time.Millisecond

// AcquireFileLock takes an exclusive cross-process lock on path+".lock".
// The returned function releases the lock.
func AcquireFileLock(ctx context.Context, path string) (unlock func() error, err error) {
	fl := flock.New(path + ".lock")

	// TryLockContext retries until the context is cancelled or the lock is acquired
	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to acquire lock: %v", ctx.Err())
	}

	return fl.Unlock, nil
}
