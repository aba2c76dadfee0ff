package models

import (
	"sync"

	"inpaint-masker/internal/logger"
)

// StateListener receives every state produced by Dispatch, together with the action
// that produced it.
type StateListener func(state EditorState, action Action)

// EditorStore owns the editor state and serialises all transitions through Reduce.
type EditorStore struct {
	mu        sync.RWMutex
	state     EditorState
	listeners []StateListener
	logger    logger.Logger
}

func NewEditorStore(log logger.Logger) *EditorStore {
	return &EditorStore{state: NewEditorState(), logger: log}
}

// State returns a snapshot of the current state.
func (s *EditorStore) State() EditorState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers l for all future transitions.
func (s *EditorStore) Subscribe(l StateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Dispatch reduces action into the store and notifies listeners if the state changed.
// Listeners run on the calling goroutine, outside the store lock.
func (s *EditorStore) Dispatch(action Action) EditorState {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, action)
	s.state = next
	listeners := make([]StateListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if next.Revision == prev.Revision {
		return next
	}

	s.logger.Debug("EditorStore", "action applied", map[string]interface{}{
		"action":   ActionName(action),
		"phase":    next.Phase().String(),
		"revision": next.Revision,
	})
	for _, l := range listeners {
		l(next, action)
	}
	return next
}
