package handler

import "github.com/aryan0dhankhar/hobbyapi/internal/domain"

// HobbyRefResponse is a hobby as listed under its user
type HobbyRefResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PassionLevel string `json:"passionLevel"`
	Year         int    `json:"year"`
}

// UserResponse is a user with its hobbies expanded
type UserResponse struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Hobbies []HobbyRefResponse `json:"hobbies"`
}

// UserRecordResponse is a user as stored, hobbies as ids
type UserRecordResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Hobbies []string `json:"hobbies"`
}

// UserRefResponse is the owner as listed under a hobby
type UserRefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HobbyResponse is a hobby with its owner expanded. UserID is null when the
// owner no longer exists.
type HobbyResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	PassionLevel string           `json:"passionLevel"`
	Year         int              `json:"year"`
	UserID       *UserRefResponse `json:"userId"`
}

// HobbyRecordResponse is a hobby as stored
type HobbyRecordResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PassionLevel string `json:"passionLevel"`
	Year         int    `json:"year"`
	UserID       string `json:"userId"`
}

// UserMessageResponse wraps a user returned by a write
type UserMessageResponse struct {
	Message string             `json:"message"`
	User    UserRecordResponse `json:"user"`
}

// HobbyMessageResponse wraps a hobby returned by a write
type HobbyMessageResponse struct {
	Message string              `json:"message"`
	Hobby   HobbyRecordResponse `json:"hobby"`
}

func toUserResponse(u *domain.PopulatedUser) UserResponse {
	hobbies := make([]HobbyRefResponse, len(u.Hobbies))
	for i, h := range u.Hobbies {
		hobbies[i] = HobbyRefResponse{
			ID:           h.ID,
			Name:         h.Name,
			PassionLevel: string(h.PassionLevel),
			Year:         h.Year,
		}
	}
	return UserResponse{ID: u.ID, Name: u.Name, Hobbies: hobbies}
}

func toUserRecord(u *domain.User) UserRecordResponse {
	hobbies := u.Hobbies
	if hobbies == nil {
		hobbies = []string{}
	}
	return UserRecordResponse{ID: u.ID, Name: u.Name, Hobbies: hobbies}
}

func toHobbyResponse(h *domain.PopulatedHobby) HobbyResponse {
	resp := HobbyResponse{
		ID:           h.ID,
		Name:         h.Name,
		PassionLevel: string(h.PassionLevel),
		Year:         h.Year,
	}
	if h.User != nil {
		resp.UserID = &UserRefResponse{ID: h.User.ID, Name: h.User.Name}
	}
	return resp
}

func toHobbyRecord(h *domain.Hobby) HobbyRecordResponse {
	return HobbyRecordResponse{
		ID:           h.ID,
		Name:         h.Name,
		PassionLevel: string(h.PassionLevel),
		Year:         h.Year,
		UserID:       h.UserID,
	}
}
