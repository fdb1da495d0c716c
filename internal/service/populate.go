package service

import (
	"context"
	"fmt"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
)

// populateUsers expands each user's hobby ids with a single GetMany.
// Ids whose hobby no longer exists are dropped; order follows User.Hobbies.
func populateUsers(ctx context.Context, hobbies domain.HobbyRepository, users []*domain.User) ([]*domain.PopulatedUser, error) {
	var ids []string
	seen := map[string]bool{}
	for _, u := range users {
		for _, id := range u.Hobbies {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	byID := map[string]*domain.Hobby{}
	if len(ids) > 0 {
		found, err := hobbies.GetMany(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to populate hobbies: %w", err)
		}
		for _, h := range found {
			byID[h.ID] = h
		}
	}

	out := make([]*domain.PopulatedUser, 0, len(users))
	for _, u := range users {
		p := &domain.PopulatedUser{ID: u.ID, Name: u.Name, Hobbies: []domain.HobbyRef{}}
		for _, id := range u.Hobbies {
			if h, ok := byID[id]; ok {
				p.Hobbies = append(p.Hobbies, h.Ref())
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// populateHobbies expands each hobby's owner with a single GetMany. A hobby
// whose owner is gone keeps its UserID with User left nil.
func populateHobbies(ctx context.Context, users domain.UserRepository, hobbies []*domain.Hobby) ([]*domain.PopulatedHobby, error) {
	var ids []string
	seen := map[string]bool{}
	for _, h := range hobbies {
		if h.UserID != "" && !seen[h.UserID] {
			seen[h.UserID] = true
			ids = append(ids, h.UserID)
		}
	}

	byID := map[string]*domain.User{}
	if len(ids) > 0 {
		found, err := users.GetMany(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to populate users: %w", err)
		}
		for _, u := range found {
			byID[u.ID] = u
		}
	}

	out := make([]*domain.PopulatedHobby, 0, len(hobbies))
	for _, h := range hobbies {
		p := &domain.PopulatedHobby{
			ID:           h.ID,
			Name:         h.Name,
			PassionLevel: h.PassionLevel,
			Year:         h.Year,
			UserID:       h.UserID,
		}
		if u, ok := byID[h.UserID]; ok {
			ref := u.Ref()
			p.User = &ref
		}
		out = append(out, p)
	}
	return out, nil
}
