package domain

import (
	"context"
	"unicode/utf8"
)

// Name length bounds shared by users and hobbies.
const (
	MinNameLength = 4
	MaxNameLength = 30
)

// User owns a set of hobby references. Hobbies holds hobby ids in insertion order.
type User struct {
	ID      string
	Name    string
	Hobbies []string
}

// CreateUserInput is the payload for creating a user
type CreateUserInput struct {
	Name string `json:"name"`
}

// UpdateUserInput patches a user. Nil fields are left untouched.
type UpdateUserInput struct {
	Name *string `json:"name,omitempty"`
}

// UserRepository is the user collection.
//
// AddHobby and RemoveHobby are atomic field-level updates on User.Hobbies
// (add-if-absent / remove-if-present); both return ErrNotFound when no user
// matches. Update returns the record after the update. DeleteByID deletes and
// returns the deleted record in one operation.
type UserRepository interface {
	List(ctx context.Context, page Page) ([]*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetMany(ctx context.Context, ids []string) ([]*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, id string, patch UpdateUserInput) (*User, error)
	DeleteByID(ctx context.Context, id string) (*User, error)
	AddHobby(ctx context.Context, userID, hobbyID string) error
	RemoveHobby(ctx context.Context, userID, hobbyID string) error
}

// Validate checks the create payload.
func (in CreateUserInput) Validate() error {
	return validateName("name", in.Name)
}

// Validate checks the update payload.
func (in UpdateUserInput) Validate() error {
	if in.Name == nil {
		return nil
	}
	return validateName("name", *in.Name)
}

func validateName(field, name string) error {
	if name == "" {
		return Invalid(field, "should not be empty")
	}
	n := utf8.RuneCountInString(name)
	if n < MinNameLength || n > MaxNameLength {
		return Invalid(field, "must be longer than or equal to %d and shorter than or equal to %d characters", MinNameLength, MaxNameLength)
	}
	return nil
}
