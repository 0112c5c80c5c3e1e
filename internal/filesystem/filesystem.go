// Package filesystem provides small filesystem helpers with retry logic
// for removals on network-mounted libraries.
package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
	"time"

	"media-indexer/internal/logging"
)

// RetryConfig configures retry behavior for filesystem operations.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for transient NFS errors.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isTransientError checks for errors worth retrying: NFS stale file
// handles and EBUSY from files still held open by a child process.
func isTransientError(err error) bool {
	return errors.Is(err, syscall.ESTALE) || errors.Is(err, syscall.EBUSY)
}

// Exists reports whether the path exists. Errors other than
// fs.ErrNotExist are treated as existing so callers do not clobber
// files they cannot stat.
func Exists(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	return !errors.Is(err, fs.ErrNotExist)
}

// EnsureDir creates the directory (and parents) if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// RemoveIfExists removes the file when present, retrying transient
// errors with exponential backoff. A missing file is not an error.
func RemoveIfExists(path string, config RetryConfig) error {
	backoff := config.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := os.Remove(path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		lastErr = err
		if !isTransientError(err) {
			return err
		}

		logging.Debug("transient error removing %s (attempt %d/%d): %v",
			path, attempt+1, config.MaxRetries, err)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	return lastErr
}

// BestEffortRemoveAll removes a whole tree and only logs on failure.
func BestEffortRemoveAll(path string) {
	if err := os.RemoveAll(path); err != nil {
		logging.Warn("failed to remove %s: %v", path, err)
	}
}

// BestEffortRemove removes the file if present and only logs on failure.
// Used for temporary artifacts whose leakage must never fail the caller.
func BestEffortRemove(path string) {
	if err := RemoveIfExists(path, DefaultRetryConfig()); err != nil {
		logging.Warn("failed to remove %s: %v", path, err)
	}
}
