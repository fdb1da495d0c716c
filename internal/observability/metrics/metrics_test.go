package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveFixup(t *testing.T) {
	counter := fixupOperations.WithLabelValues("hobby_add_ref", "failure")
	before := testutil.ToFloat64(counter)
	ObserveFixup("hobby_add_ref", "failure")
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestAddCascadeDeleted_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(cascadeDeletedHobbies)
	AddCascadeDeleted(0)
	AddCascadeDeleted(3)
	assert.Equal(t, before+3, testutil.ToFloat64(cascadeDeletedHobbies))
}

func TestHTTPMetricsMiddleware_LabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := httpRequestsTotal.WithLabelValues("GET", "GET /api/users/{id}", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	HTTPMetricsMiddleware(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/abc", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestHTTPMetricsMiddleware_Unmatched(t *testing.T) {
	h := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	counter := httpRequestsTotal.WithLabelValues("GET", "unmatched", "200")
	before := testutil.ToFloat64(counter)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
