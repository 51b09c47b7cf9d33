package session

import (
	"context"
	"fmt"
	"sync"
)

// AttributeStore serves a single webhook request. The front end sends the
// session attributes with every turn and expects the updated set back, so the
// store lives exactly as long as the request.
type AttributeStore struct {
	id string

	mu      sync.Mutex
	state   State
	cleared bool
}

func NewAttributeStore(id string, attrs State) *AttributeStore {
	return &AttributeStore{id: id, state: attrs}
}

func (a *AttributeStore) check(id string) error {
	if id != a.id {
		return fmt.Errorf("%w: %q", ErrForeignSession, id)
	}
	return nil
}

func (a *AttributeStore) Get(_ context.Context, id string) (State, error) {
	if err := a.check(id); err != nil {
		return State{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, nil
}

func (a *AttributeStore) Set(_ context.Context, id string, u Update) error {
	if err := a.check(id); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = a.state.Merge(u)
	a.cleared = false
	return nil
}

func (a *AttributeStore) Clear(_ context.Context, id string) error {
	if err := a.check(id); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = State{}
	a.cleared = true
	return nil
}

// Snapshot is the attribute set to return to the front end. cleared is true
// when the conversation was ended during this request.
func (a *AttributeStore) Snapshot() (state State, cleared bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.cleared
}
