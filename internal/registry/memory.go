// Package registry provides the in-memory activity registry.
package registry

import (
	"context"
	"slices"
	"sync"

	"example.com/roster/internal/domain"
)

// InMemory stores activities in process memory. State lives for the lifetime
// of the value; a new process starts again from its seed.
type InMemory struct {
	mu         sync.RWMutex
	activities map[string]domain.Activity
}

// NewInMemory constructs a registry populated with a copy of seed.
func NewInMemory(seed []domain.Activity) *InMemory {
	r := &InMemory{activities: make(map[string]domain.Activity, len(seed))}
	for _, activity := range seed {
		r.activities[activity.Name] = activity.Clone()
	}
	return r
}

// List implements domain.Registry. The returned map is a deep copy.
func (r *InMemory) List(ctx context.Context) (map[string]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Activity, len(r.activities))
	for name, activity := range r.activities {
		out[name] = activity.Clone()
	}
	return out, nil
}

// AddParticipant implements domain.Registry.
func (r *InMemory) AddParticipant(ctx context.Context, name, email string) (domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[name]
	if !ok {
		return domain.Activity{}, domain.ErrActivityNotFound
	}
	if activity.HasParticipant(email) {
		return domain.Activity{}, domain.ErrAlreadySignedUp
	}

	activity.Participants = append(activity.Participants, email)
	r.activities[name] = activity
	return activity.Clone(), nil
}

// RemoveParticipant implements domain.Registry.
func (r *InMemory) RemoveParticipant(ctx context.Context, name, email string) (domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[name]
	if !ok {
		return domain.Activity{}, domain.ErrActivityNotFound
	}
	idx := slices.Index(activity.Participants, email)
	if idx < 0 {
		return domain.Activity{}, domain.ErrParticipantNotFound
	}

	activity.Participants = slices.Delete(activity.Participants, idx, idx+1)
	r.activities[name] = activity
	return activity.Clone(), nil
}
