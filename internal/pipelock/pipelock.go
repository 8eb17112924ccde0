// Package pipelock provides the file-scoped advisory lock that serializes
// pipeline mutations across independent processes. The lock is a sentinel
// file next to the pipeline (<pipeline>.lock) held for the whole
// read-modify-write-audit sequence of one mutation and released on every
// exit path.
//
// The locking strategy is injectable so tests (and embedders that already
// serialize access) can run without real filesystem locks.
package pipelock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrLockBusy indicates another process holds the lock.
var ErrLockBusy = errors.New("pipeline lock held by another process")

// Lock is a held lock. Release is idempotent.
type Lock interface {
	Release()
}

// Locker acquires an exclusive lock scoped to a single pipeline file.
// A zero timeout blocks indefinitely; a positive timeout returns an error
// wrapping ErrLockBusy once it expires.
type Locker interface {
	Acquire(path string, timeout time.Duration) (Lock, error)
}

// FileLocker locks via a sentinel file (<path>.lock) with an exclusive
// flock, polling with exponential backoff while the lock is busy.
type FileLocker struct{}

// fileLock holds the open sentinel file for the duration of the lock.
type fileLock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive advisory flock on the sentinel file next to
// the pipeline, creating it as needed. Because Release unlinks the
// sentinel, each attempt re-opens the path and, after flock succeeds,
// confirms the locked fd still names the live sentinel: a lock held on an
// unlinked inode excludes nobody, while a newcomer flocks a fresh file at
// the same path. The sentinel records the holder's pid for debugging a
// stranded lock after a crash.
func (FileLocker) Acquire(path string, timeout time.Duration) (Lock, error) {
	lockPath := path + ".lock"
	var held *os.File

	try := func() error {
		// #nosec G304 - sentinel path derived from the pipeline path
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("open lock sentinel: %w", err))
		}
		if err := flockExclusiveNonBlock(f); err != nil {
			_ = f.Close()
			if errors.Is(err, ErrLockBusy) {
				return err // retryable
			}
			return backoff.Permanent(err)
		}
		live, err := sentinelLive(f, lockPath)
		if err != nil {
			_ = flockUnlock(f)
			_ = f.Close()
			return backoff.Permanent(err)
		}
		if !live {
			// The prior holder unlinked the sentinel between our open and
			// flock; the path now names a different (or no) inode.
			_ = flockUnlock(f)
			_ = f.Close()
			return ErrLockBusy
		}
		held = f
		return nil
	}

	policy := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(25*time.Millisecond),
		backoff.WithMaxInterval(500*time.Millisecond),
		backoff.WithMaxElapsedTime(timeout), // 0 means retry forever
	)
	if err := backoff.Retry(try, policy); err != nil {
		if errors.Is(err, ErrLockBusy) {
			return nil, fmt.Errorf("pipeline lock timeout after %v: %w", timeout, ErrLockBusy)
		}
		return nil, fmt.Errorf("acquire pipeline lock: %w", err)
	}

	_ = held.Truncate(0)
	_, _ = held.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	return &fileLock{file: held, path: lockPath}, nil
}

// sentinelLive reports whether the locked fd and the sentinel path still
// name the same inode. A missing path means the sentinel was unlinked out
// from under us.
func sentinelLive(f *os.File, path string) (bool, error) {
	fdInfo, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat lock sentinel: %w", err)
	}
	pathInfo, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat lock sentinel: %w", err)
	}
	return os.SameFile(fdInfo, pathInfo), nil
}

// Release unlocks, closes, and removes the sentinel. Safe to call more
// than once.
func (l *fileLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = os.Remove(l.path)
	_ = flockUnlock(l.file)
	_ = l.file.Close()
	l.file = nil
}

// MemLocker serializes within one process using per-path mutexes. Intended
// for tests and embedders that never share the pipeline across processes.
type MemLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMemLocker creates an in-process locker.
func NewMemLocker() *MemLocker {
	return &MemLocker{locks: make(map[string]*sync.Mutex)}
}

type memLock struct {
	mu   *sync.Mutex
	once sync.Once
}

// Acquire blocks on the per-path mutex. The timeout is ignored: contention
// within one process is momentary by construction.
func (m *MemLocker) Acquire(path string, _ time.Duration) (Lock, error) {
	m.mu.Lock()
	pathMu, ok := m.locks[path]
	if !ok {
		pathMu = &sync.Mutex{}
		m.locks[path] = pathMu
	}
	m.mu.Unlock()

	pathMu.Lock()
	return &memLock{mu: pathMu}, nil
}

func (l *memLock) Release() {
	l.once.Do(l.mu.Unlock)
}
