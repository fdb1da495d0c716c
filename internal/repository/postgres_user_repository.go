package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
)

// uniqueViolation is the SQLSTATE Postgres reports for a duplicate key.
const uniqueViolation = "23505"

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

// List returns a page of users in insertion order
func (r *PostgresUserRepository) List(ctx context.Context, page domain.Page) ([]*domain.User, error) {
	query := `
		SELECT id, name, hobbies
		FROM users
		ORDER BY seq
		OFFSET $1
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, page.Offset, limitArg(page))
	if err != nil {
		r.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return scanUsers(rows)
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, name, hobbies
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetMany returns the users matching ids
func (r *PostgresUserRepository) GetMany(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	query := `
		SELECT id, name, hobbies
		FROM users
		WHERE id = ANY($1)
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return scanUsers(rows)
}

// Create inserts a user with an empty hobbies list
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name)
		VALUES ($1, $2)
	`

	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, query, id, user.Name); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user name %q: %w", user.Name, domain.ErrConflict)
		}
		r.logger.Error("failed to create user",
			slog.String("name", user.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	user.Hobbies = []string{}
	return nil
}

// Update applies the patch and returns the row after the update
func (r *PostgresUserRepository) Update(ctx context.Context, id string, patch domain.UpdateUserInput) (*domain.User, error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name)
		WHERE id = $1
		RETURNING id, name, hobbies
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, nullString(patch.Name)))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		case isUniqueViolation(err):
			return nil, fmt.Errorf("user name %q: %w", *patch.Name, domain.ErrConflict)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteByID removes a user and returns the removed row
func (r *PostgresUserRepository) DeleteByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		DELETE FROM users
		WHERE id = $1
		RETURNING id, name, hobbies
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return user, nil
}

// AddHobby appends hobbyID to the hobbies array unless already present
func (r *PostgresUserRepository) AddHobby(ctx context.Context, userID, hobbyID string) error {
	query := `
		UPDATE users
		SET hobbies = CASE
			WHEN $2::text = ANY(hobbies) THEN hobbies
			ELSE array_append(hobbies, $2::text)
		END
		WHERE id = $1
	`
	return r.execHobbies(ctx, query, userID, hobbyID)
}

// RemoveHobby removes hobbyID from the hobbies array
func (r *PostgresUserRepository) RemoveHobby(ctx context.Context, userID, hobbyID string) error {
	query := `
		UPDATE users
		SET hobbies = array_remove(hobbies, $2::text)
		WHERE id = $1
	`
	return r.execHobbies(ctx, query, userID, hobbyID)
}

func (r *PostgresUserRepository) execHobbies(ctx context.Context, query, userID, hobbyID string) error {
	result, err := r.db.ExecContext(ctx, query, userID, hobbyID)
	if err != nil {
		return fmt.Errorf("failed to update user hobbies: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var hobbies []string
	if err := row.Scan(&user.ID, &user.Name, pq.Array(&hobbies)); err != nil {
		return nil, err
	}
	if hobbies == nil {
		hobbies = []string{}
	}
	user.Hobbies = hobbies
	return user, nil
}

func scanUsers(rows *sql.Rows) ([]*domain.User, error) {
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// limitArg maps an unset limit to NULL, which Postgres treats as LIMIT ALL.
func limitArg(page domain.Page) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(page.Limit), Valid: page.Limit > 0}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
