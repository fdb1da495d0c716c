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

// PostgresHobbyRepository implements domain.HobbyRepository using PostgreSQL
type PostgresHobbyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresHobbyRepository creates a new hobby repository
func NewPostgresHobbyRepository(db *sql.DB, logger *slog.Logger) *PostgresHobbyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresHobbyRepository{db: db, logger: logger}
}

// List returns a page of hobbies in insertion order
func (r *PostgresHobbyRepository) List(ctx context.Context, page domain.Page) ([]*domain.Hobby, error) {
	query := `
		SELECT id, name, passion_level, year, user_id
		FROM hobbies
		ORDER BY seq
		OFFSET $1
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, page.Offset, limitArg(page))
	if err != nil {
		r.logger.Error("failed to list hobbies", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list hobbies: %w", err)
	}
	return scanHobbies(rows)
}

// GetByID retrieves a hobby by ID
func (r *PostgresHobbyRepository) GetByID(ctx context.Context, id string) (*domain.Hobby, error) {
	query := `
		SELECT id, name, passion_level, year, user_id
		FROM hobbies
		WHERE id = $1
	`

	hobby, err := scanHobby(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get hobby: %w", err)
	}
	return hobby, nil
}

// GetMany returns the hobbies matching ids
func (r *PostgresHobbyRepository) GetMany(ctx context.Context, ids []string) ([]*domain.Hobby, error) {
	if len(ids) == 0 {
		return []*domain.Hobby{}, nil
	}

	query := `
		SELECT id, name, passion_level, year, user_id
		FROM hobbies
		WHERE id = ANY($1)
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get hobbies: %w", err)
	}
	return scanHobbies(rows)
}

// Create inserts a hobby
func (r *PostgresHobbyRepository) Create(ctx context.Context, hobby *domain.Hobby) error {
	query := `
		INSERT INTO hobbies (id, name, passion_level, year, user_id)
		VALUES ($1, $2, $3, $4, $5)
	`

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, query,
		id,
		hobby.Name,
		string(hobby.PassionLevel),
		hobby.Year,
		hobby.UserID,
	)
	if err != nil {
		r.logger.Error("failed to create hobby",
			slog.String("user_id", hobby.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create hobby: %w", err)
	}

	hobby.ID = id
	return nil
}

// Update applies the patch and returns the row after the update
func (r *PostgresHobbyRepository) Update(ctx context.Context, id string, patch domain.UpdateHobbyInput) (*domain.Hobby, error) {
	query := `
		UPDATE hobbies
		SET name = COALESCE($2, name),
			passion_level = COALESCE($3, passion_level),
			year = COALESCE($4, year)
		WHERE id = $1
		RETURNING id, name, passion_level, year, user_id
	`

	var passion sql.NullString
	if patch.PassionLevel != nil {
		passion = sql.NullString{String: string(*patch.PassionLevel), Valid: true}
	}
	var year sql.NullInt64
	if patch.Year != nil {
		year = sql.NullInt64{Int64: int64(*patch.Year), Valid: true}
	}

	hobby, err := scanHobby(r.db.QueryRowContext(ctx, query, id, nullString(patch.Name), passion, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update hobby: %w", err)
	}
	return hobby, nil
}

// DeleteByID removes a hobby and returns the removed row
func (r *PostgresHobbyRepository) DeleteByID(ctx context.Context, id string) (*domain.Hobby, error) {
	query := `
		DELETE FROM hobbies
		WHERE id = $1
		RETURNING id, name, passion_level, year, user_id
	`

	hobby, err := scanHobby(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete hobby: %w", err)
	}
	return hobby, nil
}

// DeleteMany removes every hobby in ids with one statement
func (r *PostgresHobbyRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM hobbies WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete hobbies: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows, nil
}

func scanHobby(row rowScanner) (*domain.Hobby, error) {
	h := &domain.Hobby{}
	var passion string
	if err := row.Scan(&h.ID, &h.Name, &passion, &h.Year, &h.UserID); err != nil {
		return nil, err
	}
	h.PassionLevel = domain.PassionLevel(passion)
	return h, nil
}

func scanHobbies(rows *sql.Rows) ([]*domain.Hobby, error) {
	defer rows.Close()

	hobbies := []*domain.Hobby{}
	for rows.Next() {
		h, err := scanHobby(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hobby: %w", err)
		}
		hobbies = append(hobbies, h)
	}
	return hobbies, rows.Err()
}
