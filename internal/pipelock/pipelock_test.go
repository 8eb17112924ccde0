package pipelock

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFileLocker_AcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.dot")
	lock, err := FileLocker{}.Acquire(path, time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	sentinel := path + ".lock"
	data, err := os.ReadFile(sentinel)
	if err != nil {
		t.Fatalf("sentinel should exist while held: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != strconv.Itoa(os.Getpid()) {
		t.Errorf("sentinel pid = %q, want %d", got, os.Getpid())
	}

	lock.Release()
	if _, err := os.Stat(sentinel); !os.IsNotExist(err) {
		t.Error("sentinel should be removed on release")
	}
}

func TestFileLocker_ReleaseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.dot")
	lock, err := FileLocker{}.Acquire(path, time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	lock.Release()
	lock.Release() // must not panic or disturb anything
}

func TestFileLocker_ReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.dot")
	for i := 0; i < 3; i++ {
		lock, err := FileLocker{}.Acquire(path, time.Second)
		if err != nil {
			t.Fatalf("Acquire #%d: %v", i, err)
		}
		lock.Release()
	}
}

func TestFileLocker_BusyWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.dot")
	lock, err := FileLocker{}.Acquire(path, time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	_, err = FileLocker{}.Acquire(path, 150*time.Millisecond)
	if !errors.Is(err, ErrLockBusy) {
		t.Errorf("second Acquire err = %v, want ErrLockBusy", err)
	}
}

func TestFileLocker_MutualExclusion(t *testing.T) {
	// Each release unlinks the sentinel while other goroutines are
	// mid-poll, some holding fds to the unlinked inode. Flocking a stale
	// inode excludes nobody, so without the liveness check two holders
	// can overlap: one on the old inode, one on a fresh sentinel.
	path := filepath.Join(t.TempDir(), "pipeline.dot")
	var holders int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				lock, err := FileLocker{}.Acquire(path, 30*time.Second)
				if err != nil {
					t.Errorf("Acquire: %v", err)
					return
				}
				if n := atomic.AddInt32(&holders, 1); n != 1 {
					t.Errorf("%d lock holders at once", n)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&holders, -1)
				lock.Release()
			}
		}()
	}
	wg.Wait()
}

func TestMemLocker_Serializes(t *testing.T) {
	locker := NewMemLocker()
	const workers = 8
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := locker.Acquire("p.dot", 0)
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer lock.Release()
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Errorf("counter = %d, want %d (lost update means no mutual exclusion)", counter, workers)
	}
}

func TestMemLocker_ReleaseIdempotent(t *testing.T) {
	locker := NewMemLocker()
	lock, err := locker.Acquire("p.dot", 0)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	lock.Release()
	lock.Release() // second call is a no-op, not a double unlock

	// Path is lockable again.
	lock, err = locker.Acquire("p.dot", 0)
	if err != nil {
		t.Fatalf("re-Acquire: %v", err)
	}
	lock.Release()
}

func TestMemLocker_IndependentPaths(t *testing.T) {
	locker := NewMemLocker()
	a, err := locker.Acquire("a.dot", 0)
	if err != nil {
		t.Fatalf("Acquire a: %v", err)
	}
	defer a.Release()

	done := make(chan struct{})
	go func() {
		b, err := locker.Acquire("b.dot", 0)
		if err == nil {
			b.Release()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("holding a.dot must not block b.dot")
	}
}
