package domain

// HobbyRef is the partial hobby a user's hobbies list expands to.
type HobbyRef struct {
	ID           string
	Name         string
	PassionLevel PassionLevel
	Year         int
}

// UserRef is the partial user a hobby's owner expands to.
type UserRef struct {
	ID   string
	Name string
}

// PopulatedUser is a user with its hobby references expanded.
// References to hobbies that no longer exist are dropped.
type PopulatedUser struct {
	ID      string
	Name    string
	Hobbies []HobbyRef
}

// PopulatedHobby is a hobby with its owner expanded. User is nil when the
// owner no longer exists; UserID always keeps the stored reference.
type PopulatedHobby struct {
	ID           string
	Name         string
	PassionLevel PassionLevel
	Year         int
	UserID       string
	User         *UserRef
}

// Ref projects a hobby to the fields exposed through a user.
func (h *Hobby) Ref() HobbyRef {
	return HobbyRef{ID: h.ID, Name: h.Name, PassionLevel: h.PassionLevel, Year: h.Year}
}

// Ref projects a user to the fields exposed through a hobby.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}
