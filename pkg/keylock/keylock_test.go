package keylock

import (
	"sync"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	m := NewManager()

	release, err := m.Acquire("a", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	release()

	// Key is free again.
	release, err = m.Acquire("a", time.Second)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	release()
}

func TestAcquireTimesOutWhileHeld(t *testing.T) {
	m := NewManager()

	release, err := m.Acquire("a", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	if _, err := m.Acquire("a", 20*time.Millisecond); err != ErrWaitTimeout {
		t.Errorf("expected ErrWaitTimeout, got %v", err)
	}
}

func TestDifferentKeysAreIndependent(t *testing.T) {
	m := NewManager()

	releaseA, err := m.Acquire("a", time.Second)
	if err != nil {
		t.Fatalf("Acquire a: %v", err)
	}
	defer releaseA()

	releaseB, err := m.Acquire("b", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Acquire b while a held: %v", err)
	}
	releaseB()
}

func TestWaiterAcquiresAfterRelease(t *testing.T) {
	m := NewManager()

	release, err := m.Acquire("a", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		r, err := m.Acquire("a", time.Second)
		if err == nil {
			r()
		}
		close(acquired)
	}()

	time.Sleep(10 * time.Millisecond)
	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := NewManager()

	release, err := m.Acquire("a", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	release()
	release()

	release, err = m.Acquire("a", time.Second)
	if err != nil {
		t.Fatalf("Acquire after double release: %v", err)
	}
	release()
}

func TestMutualExclusion(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire("counter", 5*time.Second)
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer release()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestEntriesEvicted(t *testing.T) {
	m := NewManager()

	release, err := m.Acquire("a", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	release()

	m.mu.Lock()
	n := len(m.locks)
	m.mu.Unlock()
	if n != 0 {
		t.Errorf("expected empty lock table, got %d entries", n)
	}
}
