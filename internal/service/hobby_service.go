package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
)

// HobbyService owns the hobby lifecycle. It writes to the user collection in
// exactly two places: adding the back-reference on Create and pulling it on
// Remove. Both are atomic field-level updates.
type HobbyService struct {
	hobbies domain.HobbyRepository
	users   domain.UserRepository
	fixups  *FixupRunner
	now     domain.Clock
	logger  *slog.Logger
}

// NewHobbyService creates a new hobby service. A nil clock uses time.Now.
func NewHobbyService(
	hobbies domain.HobbyRepository,
	users domain.UserRepository,
	fixups *FixupRunner,
	clock domain.Clock,
	logger *slog.Logger,
) *HobbyService {
	if logger == nil {
		logger = slog.Default()
	}
	if fixups == nil {
		fixups = NewFixupRunner(0, 1, logger)
	}
	if clock == nil {
		clock = time.Now
	}
	return &HobbyService{
		hobbies: hobbies,
		users:   users,
		fixups:  fixups,
		now:     clock,
		logger:  logger,
	}
}

// List returns a page of hobbies with their owner expanded
func (s *HobbyService) List(ctx context.Context, page domain.Page) (out []*domain.PopulatedHobby, err error) {
	ctx, done := startOp(ctx, "hobby.list")
	defer func() { done(err) }()

	if err := page.Validate(); err != nil {
		return nil, err
	}

	hobbies, err := s.hobbies.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return populateHobbies(ctx, s.users, hobbies)
}

// GetByID returns one hobby with its owner expanded
func (s *HobbyService) GetByID(ctx context.Context, id string) (out *domain.PopulatedHobby, err error) {
	ctx, done := startOp(ctx, "hobby.get", attribute.String("hobby.id", id))
	defer func() { done(err) }()

	if !domain.ValidID(id) {
		return nil, hobbyNotFound(id)
	}

	hobby, err := s.hobbies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, hobbyNotFound(id)
		}
		return nil, err
	}

	populated, err := populateHobbies(ctx, s.users, []*domain.Hobby{hobby})
	if err != nil {
		return nil, err
	}
	return populated[0], nil
}

// Create stores a hobby for an existing user and links it from the user.
//
// If linking fails the hobby is left in place and the error is surfaced;
// the reconciler re-adds the missing reference later.
func (s *HobbyService) Create(ctx context.Context, in domain.CreateHobbyInput) (hobby *domain.Hobby, err error) {
	ctx, done := startOp(ctx, "hobby.create", attribute.String("user.id", in.UserID))
	defer func() { done(err) }()

	if err := in.Validate(s.now()); err != nil {
		return nil, err
	}

	// 1. The owner must exist
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("user #%s not found", in.UserID)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	// 2. Primary write
	hobby = &domain.Hobby{
		Name:         in.Name,
		PassionLevel: in.PassionLevel,
		Year:         in.Year,
		UserID:       in.UserID,
	}
	if err := s.hobbies.Create(ctx, hobby); err != nil {
		return nil, classify(err, nil, "Error: hobby could not be created")
	}

	// 3. Back-reference on the owner
	linkErr := s.fixups.Run(ctx, StepHobbyAddRef, func(ctx context.Context) error {
		return s.users.AddHobby(ctx, hobby.UserID, hobby.ID)
	})
	if linkErr != nil {
		s.logger.Error("hobby created but not linked to its user",
			slog.String("hobby_id", hobby.ID),
			slog.String("user_id", hobby.UserID),
			slog.String("error", linkErr.Error()),
		)
		return nil, domain.BadRequest(linkErr, "Error: hobby could not be created")
	}

	s.logger.Info("hobby created",
		slog.String("hobby_id", hobby.ID),
		slog.String("user_id", hobby.UserID),
	)
	return hobby, nil
}

// Update patches a hobby and returns the record after the update. The owner
// cannot be changed.
func (s *HobbyService) Update(ctx context.Context, id string, in domain.UpdateHobbyInput) (hobby *domain.Hobby, err error) {
	ctx, done := startOp(ctx, "hobby.update", attribute.String("hobby.id", id))
	defer func() { done(err) }()

	if err := in.Validate(s.now()); err != nil {
		return nil, err
	}
	if !domain.ValidID(id) {
		return nil, hobbyNotFound(id)
	}

	hobby, err = s.hobbies.Update(ctx, id, in)
	if err != nil {
		return nil, classify(err, hobbyNotFound(id), "Error: hobby could not be updated")
	}
	return hobby, nil
}

// Remove deletes a hobby and then pulls it from its owner's hobbies. Pulling
// is best effort: the deletion is the outcome the caller sees.
func (s *HobbyService) Remove(ctx context.Context, id string) (hobby *domain.Hobby, err error) {
	ctx, done := startOp(ctx, "hobby.remove", attribute.String("hobby.id", id))
	defer func() { done(err) }()

	if !domain.ValidID(id) {
		return nil, hobbyNotFound(id)
	}

	hobby, err = s.hobbies.DeleteByID(ctx, id)
	if err != nil {
		return nil, classify(err, hobbyNotFound(id), "Error: hobby could not be deleted")
	}

	pullErr := s.fixups.Run(ctx, StepHobbyPullRef, func(ctx context.Context) error {
		return s.users.RemoveHobby(ctx, hobby.UserID, hobby.ID)
	})
	switch {
	case pullErr == nil:
	case errors.Is(pullErr, domain.ErrNotFound):
		s.logger.Debug("hobby owner already gone",
			slog.String("hobby_id", hobby.ID),
			slog.String("user_id", hobby.UserID),
		)
	default:
		s.logger.Error("hobby deleted but not unlinked from its user",
			slog.String("hobby_id", hobby.ID),
			slog.String("user_id", hobby.UserID),
			slog.String("error", pullErr.Error()),
		)
	}
	return hobby, nil
}

func hobbyNotFound(id string) *domain.Error {
	return domain.NotFound("Hobby #%s not found", id)
}
