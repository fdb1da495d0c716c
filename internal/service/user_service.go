package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
	"github.com/aryan0dhankhar/hobbyapi/internal/observability/metrics"
)

// UserService owns the user lifecycle. It writes to the hobby collection in
// exactly one place: the cascade in Remove.
type UserService struct {
	users   domain.UserRepository
	hobbies domain.HobbyRepository
	fixups  *FixupRunner
	logger  *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(
	users domain.UserRepository,
	hobbies domain.HobbyRepository,
	fixups *FixupRunner,
	logger *slog.Logger,
) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	if fixups == nil {
		fixups = NewFixupRunner(0, 1, logger)
	}
	return &UserService{
		users:   users,
		hobbies: hobbies,
		fixups:  fixups,
		logger:  logger,
	}
}

// List returns a page of users with their hobbies expanded
func (s *UserService) List(ctx context.Context, page domain.Page) (out []*domain.PopulatedUser, err error) {
	ctx, done := startOp(ctx, "user.list")
	defer func() { done(err) }()

	if err := page.Validate(); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return populateUsers(ctx, s.hobbies, users)
}

// GetByID returns one user with its hobbies expanded
func (s *UserService) GetByID(ctx context.Context, id string) (out *domain.PopulatedUser, err error) {
	ctx, done := startOp(ctx, "user.get", attribute.String("user.id", id))
	defer func() { done(err) }()

	if !domain.ValidID(id) {
		return nil, userNotFound(id)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, userNotFound(id)
		}
		return nil, err
	}

	populated, err := populateUsers(ctx, s.hobbies, []*domain.User{user})
	if err != nil {
		return nil, err
	}
	return populated[0], nil
}

// Create stores a new user with no hobbies
func (s *UserService) Create(ctx context.Context, in domain.CreateUserInput) (user *domain.User, err error) {
	ctx, done := startOp(ctx, "user.create")
	defer func() { done(err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	user = &domain.User{Name: in.Name, Hobbies: []string{}}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Warn("failed to create user",
			slog.String("name", in.Name),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.BadRequest(err, "Error creating User: name %q is already taken", in.Name)
		}
		return nil, classify(err, nil, "Error creating User")
	}

	s.logger.Info("user created", slog.String("user_id", user.ID))
	return user, nil
}

// Update patches a user and returns the record after the update
func (s *UserService) Update(ctx context.Context, id string, in domain.UpdateUserInput) (user *domain.User, err error) {
	ctx, done := startOp(ctx, "user.update", attribute.String("user.id", id))
	defer func() { done(err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !domain.ValidID(id) {
		return nil, userNotFound(id)
	}

	user, err = s.users.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.BadRequest(err, "Error updating User: name %q is already taken", *in.Name)
		}
		return nil, classify(err, userNotFound(id), "Error updating User")
	}
	return user, nil
}

// Remove deletes a user and then cascades to the hobbies it referenced.
// The cascade is best effort: its failure is logged and the deleted user
// is still returned.
func (s *UserService) Remove(ctx context.Context, id string) (user *domain.User, err error) {
	ctx, done := startOp(ctx, "user.remove", attribute.String("user.id", id))
	defer func() { done(err) }()

	if !domain.ValidID(id) {
		return nil, userNotFound(id)
	}

	user, err = s.users.DeleteByID(ctx, id)
	if err != nil {
		return nil, classify(err, userNotFound(id), "Error: user could not be deleted")
	}

	if len(user.Hobbies) == 0 {
		return user, nil
	}

	var removed int64
	cascadeErr := s.fixups.Run(ctx, StepUserCascade, func(ctx context.Context) error {
		n, err := s.hobbies.DeleteMany(ctx, user.Hobbies)
		removed = n
		return err
	})
	if cascadeErr != nil {
		s.logger.Error("user deleted but hobby cascade failed",
			slog.String("user_id", user.ID),
			slog.Int("hobbies", len(user.Hobbies)),
			slog.String("error", cascadeErr.Error()),
		)
		return user, nil
	}

	metrics.AddCascadeDeleted(removed)
	s.logger.Info("user deleted",
		slog.String("user_id", user.ID),
		slog.Int64("hobbies_deleted", removed),
	)
	return user, nil
}

func userNotFound(id string) *domain.Error {
	return domain.NotFound("User #%s not found", id)
}

// classify turns a repository error into a domain error. notFound is used
// when the store reports no match; cancellation is passed through untouched.
func classify(err error, notFound *domain.Error, message string) error {
	var derr *domain.Error
	switch {
	case errors.As(err, &derr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case notFound != nil && errors.Is(err, domain.ErrNotFound):
		return notFound
	default:
		return domain.BadRequest(err, "%s", message)
	}
}
