package booking

import (
	"sync"
	"testing"
)

func TestSlotLocksSerializesPerKey(t *testing.T) {
	locks := newSlotLocks()

	const goroutines = 32
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("doc1|2024-06-01")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != goroutines {
		t.Fatalf("counter %d, want %d", counter, goroutines)
	}
}

func TestSlotLocksReleasesEntries(t *testing.T) {
	locks := newSlotLocks()

	unlock := locks.Lock("a|b")
	unlock()

	locks.mu.Lock()
	remaining := len(locks.locks)
	locks.mu.Unlock()

	if remaining != 0 {
		t.Fatalf("expected empty lock table, %d entries left", remaining)
	}
}

func TestSlotLocksIndependentKeys(t *testing.T) {
	locks := newSlotLocks()

	unlockA := locks.Lock("doc1|2024-06-01")
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("doc2|2024-06-01")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
