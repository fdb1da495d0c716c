package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
	"github.com/aryan0dhankhar/hobbyapi/internal/featureflags"
	"github.com/aryan0dhankhar/hobbyapi/internal/service"
)

// UserHandler serves /api/users
type UserHandler struct {
	users  *service.UserService
	errors errorMapper
	logger *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		users:  users,
		errors: errorMapper{notFound404: featureflags.Enabled(featureflags.NotFound404), logger: logger},
		logger: logger,
	}
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.errors.write(w, r, "Error: Invalid pagination query", err)
		return
	}

	users, err := h.users.List(r.Context(), page)
	if err != nil {
		h.errors.write(w, r, "Error: Users could not be listed", err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errors.write(w, r, "Error: Invalid User ID supplied", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.write(w, r, "Error: User not created!", err)
		return
	}

	user, err := h.users.Create(r.Context(), req)
	if err != nil {
		h.errors.write(w, r, "Error: User not created!", err)
		return
	}

	writeJSON(w, http.StatusOK, UserMessageResponse{
		Message: "User has been created successfully",
		User:    toUserRecord(user),
	})
}

// Update handles PUT /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUserInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.write(w, r, "Error: User not updated!", err)
		return
	}

	user, err := h.users.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.errors.write(w, r, "Error: User not updated!", err)
		return
	}

	writeJSON(w, http.StatusOK, UserMessageResponse{
		Message: "User has been successfully updated",
		User:    toUserRecord(user),
	})
}

// Delete handles DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errors.write(w, r, "Error: User could not be deleted!", err)
		return
	}

	writeJSON(w, http.StatusOK, UserMessageResponse{
		Message: "User has been deleted",
		User:    toUserRecord(user),
	})
}
