package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
)

// MemoryStore keeps both collections in process. Records are copied on the way
// in and out so callers never share state with the store.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]*domain.User
	userOrder  []string
	hobbies    map[string]*domain.Hobby
	hobbyOrder []string
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   map[string]*domain.User{},
		hobbies: map[string]*domain.Hobby{},
	}
}

// Users returns the user collection of the store
func (s *MemoryStore) Users() *MemoryUserRepository {
	return &MemoryUserRepository{store: s}
}

// Hobbies returns the hobby collection of the store
func (s *MemoryStore) Hobbies() *MemoryHobbyRepository {
	return &MemoryHobbyRepository{store: s}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// MemoryUserRepository implements domain.UserRepository in memory
type MemoryUserRepository struct {
	store *MemoryStore
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Hobbies = slices.Clone(u.Hobbies)
	if c.Hobbies == nil {
		c.Hobbies = []string{}
	}
	return &c
}

func copyHobby(h *domain.Hobby) *domain.Hobby {
	c := *h
	return &c
}

// List returns users in insertion order
func (r *MemoryUserRepository) List(ctx context.Context, page domain.Page) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, end := page.Window(len(s.userOrder))
	out := make([]*domain.User, 0, end-start)
	for _, id := range s.userOrder[start:end] {
		out = append(out, copyUser(s.users[id]))
	}
	return out, nil
}

// GetByID retrieves a user by ID
func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return copyUser(u), nil
}

// GetMany returns the users matching ids, skipping unknown ones
func (r *MemoryUserRepository) GetMany(ctx context.Context, ids []string) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

// Create stores a new user and assigns its ID
func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(user.Name, "") {
		return fmt.Errorf("user name %q: %w", user.Name, domain.ErrConflict)
	}
	user.ID = uuid.NewString()
	if user.Hobbies == nil {
		user.Hobbies = []string{}
	}
	s.users[user.ID] = copyUser(user)
	s.userOrder = append(s.userOrder, user.ID)
	return nil
}

// nameTaken must be called with s.mu held.
func (s *MemoryStore) nameTaken(name, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && u.Name == name {
			return true
		}
	}
	return false
}

// Update applies a patch and returns the updated user
func (r *MemoryUserRepository) Update(ctx context.Context, id string, patch domain.UpdateUserInput) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if patch.Name != nil {
		if s.nameTaken(*patch.Name, id) {
			return nil, fmt.Errorf("user name %q: %w", *patch.Name, domain.ErrConflict)
		}
		u.Name = *patch.Name
	}
	return copyUser(u), nil
}

// DeleteByID removes a user and returns it
func (r *MemoryUserRepository) DeleteByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	delete(s.users, id)
	s.userOrder = slices.DeleteFunc(s.userOrder, func(v string) bool { return v == id })
	return u, nil
}

// AddHobby appends hobbyID to the user's hobbies unless already present
func (r *MemoryUserRepository) AddHobby(ctx context.Context, userID, hobbyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if !slices.Contains(u.Hobbies, hobbyID) {
		u.Hobbies = append(u.Hobbies, hobbyID)
	}
	return nil
}

// RemoveHobby removes hobbyID from the user's hobbies if present
func (r *MemoryUserRepository) RemoveHobby(ctx context.Context, userID, hobbyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	u.Hobbies = slices.DeleteFunc(u.Hobbies, func(v string) bool { return v == hobbyID })
	return nil
}

// MemoryHobbyRepository implements domain.HobbyRepository in memory
type MemoryHobbyRepository struct {
	store *MemoryStore
}

// List returns hobbies in insertion order
func (r *MemoryHobbyRepository) List(ctx context.Context, page domain.Page) ([]*domain.Hobby, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, end := page.Window(len(s.hobbyOrder))
	out := make([]*domain.Hobby, 0, end-start)
	for _, id := range s.hobbyOrder[start:end] {
		out = append(out, copyHobby(s.hobbies[id]))
	}
	return out, nil
}

// GetByID retrieves a hobby by ID
func (r *MemoryHobbyRepository) GetByID(ctx context.Context, id string) (*domain.Hobby, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.hobbies[id]
	if !ok {
		return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
	}
	return copyHobby(h), nil
}

// GetMany returns the hobbies matching ids, skipping unknown ones
func (r *MemoryHobbyRepository) GetMany(ctx context.Context, ids []string) ([]*domain.Hobby, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Hobby, 0, len(ids))
	for _, id := range ids {
		if h, ok := s.hobbies[id]; ok {
			out = append(out, copyHobby(h))
		}
	}
	return out, nil
}

// Create stores a new hobby and assigns its ID
func (r *MemoryHobbyRepository) Create(ctx context.Context, hobby *domain.Hobby) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	hobby.ID = uuid.NewString()
	s.hobbies[hobby.ID] = copyHobby(hobby)
	s.hobbyOrder = append(s.hobbyOrder, hobby.ID)
	return nil
}

// Update applies a patch and returns the updated hobby
func (r *MemoryHobbyRepository) Update(ctx context.Context, id string, patch domain.UpdateHobbyInput) (*domain.Hobby, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hobbies[id]
	if !ok {
		return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
	}
	if patch.Name != nil {
		h.Name = *patch.Name
	}
	if patch.PassionLevel != nil {
		h.PassionLevel = *patch.PassionLevel
	}
	if patch.Year != nil {
		h.Year = *patch.Year
	}
	return copyHobby(h), nil
}

// DeleteByID removes a hobby and returns it
func (r *MemoryHobbyRepository) DeleteByID(ctx context.Context, id string) (*domain.Hobby, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hobbies[id]
	if !ok {
		return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
	}
	delete(s.hobbies, id)
	s.hobbyOrder = slices.DeleteFunc(s.hobbyOrder, func(v string) bool { return v == id })
	return h, nil
}

// DeleteMany removes every hobby in ids
func (r *MemoryHobbyRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, id := range ids {
		if _, ok := s.hobbies[id]; ok {
			delete(s.hobbies, id)
			n++
		}
	}
	s.hobbyOrder = slices.DeleteFunc(s.hobbyOrder, func(v string) bool {
		_, ok := s.hobbies[v]
		return !ok
	})
	return n, nil
}
