package userlock

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestDoSerializesPerUser(t *testing.T) {
	reg := NewRegistry()
	userID := uuid.New()

	const workers = 16
	const iterations = 50

	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				err := reg.Do(userID, func() error {
					// Non-atomic update; only safe if Do serializes.
					v := counter
					counter = v + 1
					return nil
				})
				if err != nil {
					t.Errorf("Do: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if counter != workers*iterations {
		t.Fatalf("counter = %d, want %d", counter, workers*iterations)
	}
}

func TestDoDistinctUsersDoNotBlock(t *testing.T) {
	reg := NewRegistry()
	a := uuid.New()
	b := uuid.New()

	release := make(chan struct{})
	holding := make(chan struct{})
	go func() {
		_ = reg.Do(a, func() error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	// Another user's lock must still be free while a's is held.
	done := make(chan struct{})
	go func() {
		_ = reg.Do(b, func() error { return nil })
		close(done)
	}()
	<-done
	close(release)
}

func TestDoPropagatesError(t *testing.T) {
	reg := NewRegistry()
	want := errSentinel
	if got := reg.Do(uuid.New(), func() error { return want }); got != want {
		t.Fatalf("Do returned %v, want %v", got, want)
	}
}

var errSentinel = &lockErr{}

type lockErr struct{}

func (*lockErr) Error() string { return "boom" }
