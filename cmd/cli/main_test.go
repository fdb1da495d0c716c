package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ErrorCarriesAPIMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "Error: User not created!",
			"error":   "name should not be empty",
		})
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "").do(http.MethodPost, "/users", map[string]any{"name": ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error: User not created!")
	assert.Contains(t, err.Error(), "name should not be empty")
}

func TestClient_SendsTokenAndQuery(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"id":"u1","name":"Grace","hobbies":[{"name":"Sailing"}]}]`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := handleUser(newClient(srv.URL, "tok"), []string{"list", "-limit", "5", "-offset", "2"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "limit=5&offset=2", gotQuery)
	assert.Contains(t, out.String(), "Grace")
	assert.Contains(t, out.String(), "Sailing")
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"bogus"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unknown command")
}

func TestMintToken_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	var out bytes.Buffer
	assert.Error(t, mintToken([]string{"-save=false"}, &out))

	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, mintToken([]string{"-save=false", "-subject", "ada"}, &out))
	assert.NotEmpty(t, out.String())
}
