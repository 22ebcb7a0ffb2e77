package remote

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"

	"example.com/timetracker/internal/domain"
)

// InMemoryStore implements the remote store contract in process, for local
// development and tests that do not need an HTTP endpoint.
type InMemoryStore struct {
	mu   sync.RWMutex
	days map[string]map[string]domain.Activity
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{days: make(map[string]map[string]domain.Activity)}
}

// List returns the scope's snapshot ordered by creation time, ties by ID.
func (s *InMemoryStore) List(ctx context.Context, scope domain.Scope) ([]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := s.days[scope.String()]
	activities := make([]domain.Activity, 0, len(day))
	for _, a := range day {
		activities = append(activities, a)
	}
	sort.Slice(activities, func(i, j int) bool {
		if activities[i].CreatedAt != activities[j].CreatedAt {
			return activities[i].CreatedAt < activities[j].CreatedAt
		}
		return activities[i].ID < activities[j].ID
	})
	return activities, nil
}

// Create assigns a generated key and stores the activity.
func (s *InMemoryStore) Create(ctx context.Context, scope domain.Scope, activity domain.Activity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scope.String()
	if s.days[key] == nil {
		s.days[key] = make(map[string]domain.Activity)
	}
	activity.ID = uuid.NewString()
	s.days[key][activity.ID] = activity
	return activity.ID, nil
}

// Update merges the editable fields into a stored activity.
func (s *InMemoryStore) Update(ctx context.Context, scope domain.Scope, id string, update domain.ActivityUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.days[scope.String()]
	activity, ok := day[id]
	if !ok {
		return &TransportError{Op: "update", Status: http.StatusNotFound}
	}
	activity.Name = update.Name
	activity.DurationMin = update.DurationMin
	day[id] = activity
	return nil
}

// Delete removes a stored activity.
func (s *InMemoryStore) Delete(ctx context.Context, scope domain.Scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.days[scope.String()]
	if _, ok := day[id]; !ok {
		return &TransportError{Op: "delete", Status: http.StatusNotFound}
	}
	delete(day, id)
	return nil
}
