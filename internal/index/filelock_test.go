package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func releaseLock(t *testing.T, lock *BuildLock) {
	t.Helper()
	if err := lock.Release(); err != nil {
		t.Logf("Warning: Release failed: %v", err)
	}
}

func TestBuildLock_Acquire_Success(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock := NewBuildLock(lockPath)
	defer releaseLock(t, lock)

	if err := lock.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
}

func TestBuildLock_Acquire_Timeout(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock1 := NewBuildLock(lockPath)
	if err := lock1.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("First Acquire failed: %v", err)
	}
	defer releaseLock(t, lock1)

	lock2 := NewBuildLock(lockPath)
	start := time.Now()
	err := lock2.Acquire(context.Background(), 100*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("Expected ErrLockTimeout, got: %v", err)
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("Expected at least 100ms to elapse, got %v", elapsed)
	}
}

func TestBuildLock_Acquire_AfterRelease(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock1 := NewBuildLock(lockPath)
	lock2 := NewBuildLock(lockPath)

	if err := lock1.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("First Acquire failed: %v", err)
	}

	var wg sync.WaitGroup
	var lock2Err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		lock2Err = lock2.Acquire(context.Background(), 2*time.Second)
	}()

	time.Sleep(100 * time.Millisecond)
	if err := lock1.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	wg.Wait()

	if lock2Err != nil {
		t.Errorf("Expected second Acquire to succeed after release, got: %v", lock2Err)
	}
	releaseLock(t, lock2)
}

func TestBuildLock_Acquire_ContextCancellation(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock1 := NewBuildLock(lockPath)
	if err := lock1.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("First Acquire failed: %v", err)
	}
	defer releaseLock(t, lock1)

	ctx, cancel := context.WithCancel(context.Background())
	lock2 := NewBuildLock(lockPath)

	var wg sync.WaitGroup
	var lock2Err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		lock2Err = lock2.Acquire(ctx, 10*time.Second)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	wg.Wait()

	if !errors.Is(lock2Err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", lock2Err)
	}
}

func TestBuildLock_Release_NoOp(t *testing.T) {
	lock := NewBuildLock(filepath.Join(t.TempDir(), "test.lock"))
	if err := lock.Release(); err != nil {
		t.Errorf("Expected no error for no-op release, got: %v", err)
	}
}

func TestBuildLock_CreatesDirectories(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "nested", "dirs", "test.lock")

	lock := NewBuildLock(lockPath)
	defer releaseLock(t, lock)

	if err := lock.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	info, err := os.Stat(filepath.Dir(lockPath))
	if err != nil {
		t.Fatalf("Parent directory should exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected parent path to be a directory")
	}
}

func TestBuildLock_Path(t *testing.T) {
	lockPath := "/some/path/to/lock.file"
	lock := NewBuildLock(lockPath)
	if lock.Path() != lockPath {
		t.Errorf("Path() = %q, want %q", lock.Path(), lockPath)
	}
}

func TestBuildLock_ConcurrentGoroutines(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "concurrent.lock")

	const numGoroutines = 10

	var wg sync.WaitGroup
	acquired := make(chan int, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock := NewBuildLock(lockPath)
			if err := lock.Acquire(context.Background(), 5*time.Second); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			time.Sleep(time.Millisecond)
			acquired <- 1
			if err := lock.Release(); err != nil {
				t.Errorf("Release failed: %v", err)
			}
		}()
	}

	wg.Wait()
	close(acquired)

	total := 0
	for range acquired {
		total++
	}
	if total != numGoroutines {
		t.Errorf("Expected %d acquisitions, got %d", numGoroutines, total)
	}
}
