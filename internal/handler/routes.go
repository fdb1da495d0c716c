package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts the API, health and metrics routes on mux.
func Register(mux *http.ServeMux, users *UserHandler, hobbies *HobbyHandler, health *HealthHandler) {
	mux.HandleFunc("GET /api/users", users.List)
	mux.HandleFunc("GET /api/users/{id}", users.Get)
	mux.HandleFunc("POST /api/users", users.Create)
	mux.HandleFunc("PUT /api/users/{id}", users.Update)
	mux.HandleFunc("DELETE /api/users/{id}", users.Delete)

	mux.HandleFunc("GET /api/hobbies", hobbies.List)
	mux.HandleFunc("GET /api/hobbies/{id}", hobbies.Get)
	mux.HandleFunc("POST /api/hobbies", hobbies.Create)
	mux.HandleFunc("PUT /api/hobbies/{id}", hobbies.Update)
	mux.HandleFunc("DELETE /api/hobbies/{id}", hobbies.Delete)

	mux.HandleFunc("GET /healthz", health.Health)
	mux.HandleFunc("GET /readyz", health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())
}
