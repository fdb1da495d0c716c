package domain

import (
	"context"
	"regexp"
	"time"
)

// PassionLevel is how strongly a user cares about a hobby
type PassionLevel string

const (
	PassionMedium   PassionLevel = "Medium"
	PassionHigh     PassionLevel = "High"
	PassionLow      PassionLevel = "Low"
	PassionVeryHigh PassionLevel = "Very-High"
)

// PassionLevels lists the accepted values in their canonical order.
var PassionLevels = []PassionLevel{PassionMedium, PassionHigh, PassionLow, PassionVeryHigh}

// Valid reports whether p is one of PassionLevels.
func (p PassionLevel) Valid() bool {
	for _, l := range PassionLevels {
		if p == l {
			return true
		}
	}
	return false
}

// MaxYearSpan is how far back a hobby's year may go.
const MaxYearSpan = 200

// Hobby belongs to exactly one user through UserID.
type Hobby struct {
	ID           string
	Name         string
	PassionLevel PassionLevel
	Year         int
	UserID       string
}

// CreateHobbyInput is the payload for creating a hobby
type CreateHobbyInput struct {
	PassionLevel PassionLevel `json:"passionLevel"`
	Name         string       `json:"name"`
	Year         int          `json:"year"`
	UserID       string       `json:"userId"`
}

// UpdateHobbyInput patches a hobby. The owner cannot be changed.
type UpdateHobbyInput struct {
	PassionLevel *PassionLevel `json:"passionLevel,omitempty"`
	Name         *string       `json:"name,omitempty"`
	Year         *int          `json:"year,omitempty"`
}

// HobbyRepository is the hobby collection.
//
// DeleteByID deletes and returns the deleted record in one operation.
// DeleteMany removes every hobby whose id is in ids and reports how many were removed.
type HobbyRepository interface {
	List(ctx context.Context, page Page) ([]*Hobby, error)
	GetByID(ctx context.Context, id string) (*Hobby, error)
	GetMany(ctx context.Context, ids []string) ([]*Hobby, error)
	Create(ctx context.Context, hobby *Hobby) error
	Update(ctx context.Context, id string, patch UpdateHobbyInput) (*Hobby, error)
	DeleteByID(ctx context.Context, id string) (*Hobby, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// Clock returns the current time. Validation uses it to bound Hobby.Year.
type Clock func() time.Time

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID reports whether id is shaped like an identifier any store could have issued.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Validate checks the create payload against the year window ending at now.
func (in CreateHobbyInput) Validate(now time.Time) error {
	if in.PassionLevel == "" {
		return Invalid("passionLevel", "should not be empty")
	}
	if !in.PassionLevel.Valid() {
		return Invalid("passionLevel", "must be one of the following values: Medium, High, Low, Very-High")
	}
	if err := validateName("name", in.Name); err != nil {
		return err
	}
	if err := validateYear(in.Year, now); err != nil {
		return err
	}
	if in.UserID == "" {
		return Invalid("userId", "should not be empty")
	}
	if !ValidID(in.UserID) {
		return Invalid("userId", "must be a valid id")
	}
	return nil
}

// Validate checks the update payload against the year window ending at now.
func (in UpdateHobbyInput) Validate(now time.Time) error {
	if in.PassionLevel != nil && !in.PassionLevel.Valid() {
		return Invalid("passionLevel", "must be one of the following values: Medium, High, Low, Very-High")
	}
	if in.Name != nil {
		if err := validateName("name", *in.Name); err != nil {
			return err
		}
	}
	if in.Year != nil {
		if err := validateYear(*in.Year, now); err != nil {
			return err
		}
	}
	return nil
}

func validateYear(year int, now time.Time) error {
	max := now.Year()
	min := max - MaxYearSpan
	if year < min {
		return Invalid("year", "must not be less than %d", min)
	}
	if year > max {
		return Invalid("year", "must not be greater than %d", max)
	}
	return nil
}
