package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/smanilla/mindtrack/internal/models"
)

// MemoryAssessmentsRepo used when the database is disabled or unreachable.
type MemoryAssessmentsRepo struct {
	mu     sync.RWMutex
	byUser map[string][]models.Assessment
}

func NewMemoryAssessmentsRepo() *MemoryAssessmentsRepo {
	return &MemoryAssessmentsRepo{byUser: map[string][]models.Assessment{}}
}

var _ AssessmentsRepository = (*MemoryAssessmentsRepo)(nil)

func (r *MemoryAssessmentsRepo) CreateAssessment(_ context.Context, a *models.Assessment) error {
	if a == nil || a.ID == "" || a.UserID == "" {
		return fmt.Errorf("assessment_id and user_id are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *a
	cp.Answers = append([]string(nil), a.Answers...)
	r.byUser[a.UserID] = append(r.byUser[a.UserID], cp)
	return nil
}

func (r *MemoryAssessmentsRepo) ListAssessmentsByUser(_ context.Context, userID string, limit int) ([]*models.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byUser[userID]
	out := make([]*models.Assessment, 0, len(stored))
	for i := range stored {
		cp := stored[i]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryUsersRepo used when the database is disabled or unreachable.
type MemoryUsersRepo struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUsersRepo() *MemoryUsersRepo {
	return &MemoryUsersRepo{users: map[string]models.User{}}
}

var _ UsersRepository = (*MemoryUsersRepo)(nil)

func (r *MemoryUsersRepo) GetUser(_ context.Context, userID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	u.EmergencyContacts = append([]models.EmergencyContact(nil), u.EmergencyContacts...)
	return &u, nil
}

func (r *MemoryUsersRepo) UpsertUser(_ context.Context, u *models.User) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("user_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *u
	cp.EmergencyContacts = append([]models.EmergencyContact(nil), u.EmergencyContacts...)
	if prev, ok := r.users[u.ID]; ok && cp.CreatedAt.IsZero() {
		cp.CreatedAt = prev.CreatedAt
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.users[u.ID] = cp
	return nil
}
