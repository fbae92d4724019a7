// Package filelock provides an exclusive advisory lock on a lock file,
// shared between processes working on the same brag document.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultTimeout bounds how long Acquire waits for a held lock.
const DefaultTimeout = 5 * time.Second

const retryInterval = 10 * time.Millisecond

// ErrTimeout is returned when the lock could not be acquired in time.
var ErrTimeout = errors.New("lock timeout")

// Lock is a held lock. Release it when done.
type Lock struct {
	path string
	file *os.File
}

// Acquire takes an exclusive lock on path, creating the file if needed.
// It retries until timeout elapses; a zero timeout means DefaultTimeout.
func Acquire(path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := lockFileExclusiveNonBlocking(file)
		if err == nil {
			return &Lock{path: path, file: file}, nil
		}
		if !isWouldBlockError(err) {
			_ = file.Close()
			return nil, fmt.Errorf("acquire lock %s: %w", path, err)
		}
		if time.Now().After(deadline) {
			_ = file.Close()
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		time.Sleep(retryInterval)
	}
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release unlocks and closes the lock file. The file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
