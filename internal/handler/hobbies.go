package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
	"github.com/aryan0dhankhar/hobbyapi/internal/featureflags"
	"github.com/aryan0dhankhar/hobbyapi/internal/service"
)

// HobbyHandler serves /api/hobbies
type HobbyHandler struct {
	hobbies *service.HobbyService
	errors  errorMapper
	logger  *slog.Logger
}

// NewHobbyHandler creates a new hobby handler
func NewHobbyHandler(hobbies *service.HobbyService, logger *slog.Logger) *HobbyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HobbyHandler{
		hobbies: hobbies,
		errors:  errorMapper{notFound404: featureflags.Enabled(featureflags.NotFound404), logger: logger},
		logger:  logger,
	}
}

// List handles GET /api/hobbies
func (h *HobbyHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.errors.write(w, r, "Error: Invalid pagination query", err)
		return
	}

	hobbies, err := h.hobbies.List(r.Context(), page)
	if err != nil {
		h.errors.write(w, r, "Error: Hobbies could not be listed", err)
		return
	}

	resp := make([]HobbyResponse, len(hobbies))
	for i, hobby := range hobbies {
		resp[i] = toHobbyResponse(hobby)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/hobbies/{id}
func (h *HobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	hobby, err := h.hobbies.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errors.write(w, r, "Error: Invalid Hobby ID supplied", err)
		return
	}
	writeJSON(w, http.StatusOK, toHobbyResponse(hobby))
}

// Create handles POST /api/hobbies
func (h *HobbyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateHobbyInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.write(w, r, "Error: Hobby not created!", err)
		return
	}

	hobby, err := h.hobbies.Create(r.Context(), req)
	if err != nil {
		h.errors.write(w, r, "Error: Hobby not created!", err)
		return
	}

	writeJSON(w, http.StatusOK, HobbyMessageResponse{
		Message: "hobby has been created successfully",
		Hobby:   toHobbyRecord(hobby),
	})
}

// Update handles PUT /api/hobbies/{id}
func (h *HobbyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateHobbyInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.write(w, r, "Error: Hobby not updated!", err)
		return
	}

	hobby, err := h.hobbies.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.errors.write(w, r, "Error: Hobby not updated!", err)
		return
	}

	writeJSON(w, http.StatusOK, HobbyMessageResponse{
		Message: "hobby has been successfully updated",
		Hobby:   toHobbyRecord(hobby),
	})
}

// Delete handles DELETE /api/hobbies/{id}
func (h *HobbyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	hobby, err := h.hobbies.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errors.write(w, r, "Error: Hobby could not be deleted!", err)
		return
	}

	writeJSON(w, http.StatusOK, HobbyMessageResponse{
		Message: "hobby has been deleted successfully!",
		Hobby:   toHobbyRecord(hobby),
	})
}
