package userlock

import (
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
)

// Registry serializes ledger mutations per user. All writes to a user's
// progress events, completion records and award ledger must run under
// Do for that user, so no two mutations interleave.
type Registry struct {
	locks *xsync.Map[uuid.UUID, *sync.Mutex]
}

func NewRegistry() *Registry {
	return &Registry{locks: xsync.NewMap[uuid.UUID, *sync.Mutex]()}
}

func (r *Registry) Do(userID uuid.UUID, fn func() error) error {
	mu, _ := r.locks.LoadOrStore(userID, &sync.Mutex{})
	mu.Lock()
	defer mu.Unlock()
	return fn()
}
