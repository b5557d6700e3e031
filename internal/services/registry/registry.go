package registry

import (
	"context"
	"sync"

	"github.com/mcoot/realmledger/internal/model"
)

// Registry serializes work per owner so a session record is only ever
// mutated by one actor at a time within the process
type Registry struct {
	mu    sync.Mutex
	slots map[model.OwnerID]*slot
}

type slot struct {
	token chan struct{}
	refs  int
}

// New creates a new Registry
func New() *Registry {
	return &Registry{
		slots: make(map[model.OwnerID]*slot),
	}
}

// Acquire blocks until the owner's slot is free or ctx is done. The
// returned release func must be called exactly once.
func (r *Registry) Acquire(ctx context.Context, owner model.OwnerID) (func(), error) {
	r.mu.Lock()
	s, ok := r.slots[owner]
	if !ok {
		s = &slot{token: make(chan struct{}, 1)}
		r.slots[owner] = s
	}
	s.refs++
	r.mu.Unlock()

	select {
	case s.token <- struct{}{}:
	case <-ctx.Done():
		r.drop(owner, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.token
			r.drop(owner, s)
		})
	}, nil
}

// Held reports how many callers hold or wait on owner's slot
func (r *Registry) Held(owner model.OwnerID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.slots[owner]; ok {
		return s.refs
	}
	return 0
}

func (r *Registry) drop(owner model.OwnerID, s *slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(r.slots, owner)
	}
}
