package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
	"github.com/aryan0dhankhar/hobbyapi/internal/repository"
	"github.com/aryan0dhankhar/hobbyapi/internal/service"
)

func testClock() time.Time {
	return time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
}

type brokenUsers struct {
	domain.UserRepository
}

func (brokenUsers) List(context.Context, domain.Page) ([]*domain.User, error) {
	return nil, errors.New("connection refused")
}

// vanishingOwner deletes the owner right before its back-reference is added.
type vanishingOwner struct {
	domain.UserRepository
}

func (v vanishingOwner) AddHobby(ctx context.Context, userID, hobbyID string) error {
	if _, err := v.UserRepository.DeleteByID(ctx, userID); err != nil {
		return err
	}
	return v.UserRepository.AddHobby(ctx, userID, hobbyID)
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	mux   *http.ServeMux
	store *repository.MemoryStore
}

func newTestServer(t *testing.T, users domain.UserRepository) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore()
	if users == nil {
		users = store.Users()
	}
	fixups := service.NewFixupRunner(time.Second, 1, log)

	mux := http.NewServeMux()
	Register(mux,
		NewUserHandler(service.NewUserService(users, store.Hobbies(), fixups, log), log),
		NewHobbyHandler(service.NewHobbyService(store.Hobbies(), users, fixups, testClock, log), log),
		NewHealthHandler("memory", store, log),
	)
	return &testServer{mux: mux, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		buf = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, buf)
	if buf != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestEndToEnd_AdaAndChessClub(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/users", map[string]any{"name": "Ada Lovelace"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[UserMessageResponse](t, rec)
	assert.Equal(t, "User has been created successfully", created.Message)
	assert.Equal(t, "Ada Lovelace", created.User.Name)
	assert.Equal(t, []string{}, created.User.Hobbies)
	userID := created.User.ID

	rec = srv.do(t, http.MethodPost, "/api/hobbies", map[string]any{
		"name": "Chess Club", "passionLevel": "High", "year": 2020, "userId": userID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	hobby := decode[HobbyMessageResponse](t, rec)
	assert.Equal(t, "hobby has been created successfully", hobby.Message)
	assert.Equal(t, userID, hobby.Hobby.UserID)
	hobbyID := hobby.Hobby.ID

	rec = srv.do(t, http.MethodGet, "/api/users/"+userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, UserResponse{
		ID:   userID,
		Name: "Ada Lovelace",
		Hobbies: []HobbyRefResponse{{
			ID: hobbyID, Name: "Chess Club", PassionLevel: "High", Year: 2020,
		}},
	}, decode[UserResponse](t, rec))

	rec = srv.do(t, http.MethodGet, "/api/hobbies/"+hobbyID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[HobbyResponse](t, rec)
	require.NotNil(t, got.UserID)
	assert.Equal(t, UserRefResponse{ID: userID, Name: "Ada Lovelace"}, *got.UserID)

	rec = srv.do(t, http.MethodDelete, "/api/hobbies/"+hobbyID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hobby has been deleted successfully!", decode[HobbyMessageResponse](t, rec).Message)

	rec = srv.do(t, http.MethodGet, "/api/users/"+userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[UserResponse](t, rec).Hobbies)

	rec = srv.do(t, http.MethodDelete, "/api/users/"+userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User has been deleted", decode[UserMessageResponse](t, rec).Message)

	rec = srv.do(t, http.MethodGet, "/api/users/"+userID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Error: Invalid User ID supplied", decode[ErrorResponse](t, rec).Message)
}

func TestUserCreate_Errors(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/users", map[string]any{"name": "Grace"}).Code)

	tests := []struct {
		name string
		body any
	}{
		{"duplicate name", map[string]any{"name": "Grace"}},
		{"short name", map[string]any{"name": "Al"}},
		{"unknown field", map[string]any{"name": "Hopper", "admin": true}},
		{"malformed json", `{"name":`},
		{"empty body", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/users", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, "Error: User not created!", resp.Message)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestUserUpdate_ReturnsUpdatedRecord(t *testing.T) {
	srv := newTestServer(t, nil)
	created := decode[UserMessageResponse](t, srv.do(t, http.MethodPost, "/api/users", map[string]any{"name": "Grace"}))

	rec := srv.do(t, http.MethodPut, "/api/users/"+created.User.ID, map[string]any{"name": "Grace Hopper"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[UserMessageResponse](t, rec)
	assert.Equal(t, "User has been successfully updated", resp.Message)
	assert.Equal(t, "Grace Hopper", resp.User.Name)
}

func TestHobbyCreate_UnknownUser(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/hobbies", map[string]any{
		"name": "Chess Club", "passionLevel": "High", "year": 2020, "userId": "5f1d7f0b2c9a4e0012345678",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Error: Hobby not created!", decode[ErrorResponse](t, rec).Message)

	list := decode[[]HobbyResponse](t, srv.do(t, http.MethodGet, "/api/hobbies", nil))
	assert.Empty(t, list)
}

func TestHobbyCreate_YearOutOfRange(t *testing.T) {
	srv := newTestServer(t, nil)
	user := decode[UserMessageResponse](t, srv.do(t, http.MethodPost, "/api/users", map[string]any{"name": "Grace"}))

	rec := srv.do(t, http.MethodPost, "/api/hobbies", map[string]any{
		"name": "Chess Club", "passionLevel": "High", "year": 2027, "userId": user.User.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "year")
}

func TestHobbyList_OrphanHasNullOwner(t *testing.T) {
	srv := newTestServer(t, nil)
	require.NoError(t, srv.store.Hobbies().Create(context.Background(), &domain.Hobby{
		Name: "Sailing", PassionLevel: domain.PassionLow, Year: 2001, UserID: "5f1d7f0b2c9a4e0012345678",
	}))

	rec := srv.do(t, http.MethodGet, "/api/hobbies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":null`)
}

func TestPagination(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, name := range []string{"Grace", "Hopper", "Lovelace"} {
		require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/users", map[string]any{"name": name}).Code)
	}

	page := decode[[]UserResponse](t, srv.do(t, http.MethodGet, "/api/users?limit=2&offset=1", nil))
	require.Len(t, page, 2)
	assert.Equal(t, "Hopper", page[0].Name)
	assert.Equal(t, "Lovelace", page[1].Name)

	for _, q := range []string{"limit=abc", "limit=0", "offset=-1"} {
		rec := srv.do(t, http.MethodGet, "/api/users?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestNotFound404Flag(t *testing.T) {
	t.Setenv("FLAG_NOTFOUND_404", "true")
	srv := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/users/5f1d7f0b2c9a4e0012345678", nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, "/api/hobbies/5f1d7f0b2c9a4e0012345678", nil).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/users", map[string]any{"name": "Al"}).Code)
}

func TestNotFound404Flag_KeepsBadRequestForLinkFailure(t *testing.T) {
	t.Setenv("FLAG_NOTFOUND_404", "true")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore()
	users := vanishingOwner{UserRepository: store.Users()}
	fixups := service.NewFixupRunner(time.Second, 1, log)

	mux := http.NewServeMux()
	Register(mux,
		NewUserHandler(service.NewUserService(users, store.Hobbies(), fixups, log), log),
		NewHobbyHandler(service.NewHobbyService(store.Hobbies(), users, fixups, testClock, log), log),
		NewHealthHandler("memory", store, log),
	)
	srv := &testServer{mux: mux, store: store}

	user := decode[UserMessageResponse](t, srv.do(t, http.MethodPost, "/api/users", map[string]any{"name": "Grace"}))
	rec := srv.do(t, http.MethodPost, "/api/hobbies", map[string]any{
		"name": "Chess Club", "passionLevel": "High", "year": 2020, "userId": user.User.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Error: Hobby not created!", decode[ErrorResponse](t, rec).Message)

	// The hobby itself was written.
	all, err := store.Hobbies().List(context.Background(), domain.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStoreFailureIsInternalError(t *testing.T) {
	srv := newTestServer(t, brokenUsers{})

	rec := srv.do(t, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "internal error", resp.Error)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHealth(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	rec := httptest.NewRecorder()
	NewHealthHandler("memory", nil, log).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	ok := NewHealthHandler("mongo", pingerFunc(func(context.Context) error { return nil }), log)
	rec = httptest.NewRecorder()
	ok.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[ReadinessResponse](t, rec).Checks["mongo"])

	down := NewHealthHandler("mongo", pingerFunc(func(context.Context) error { return errors.New("no reachable servers") }), log)
	rec = httptest.NewRecorder()
	down.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", decode[ReadinessResponse](t, rec).Status)
}
