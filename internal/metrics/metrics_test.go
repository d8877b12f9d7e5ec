package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCacheObserver(t *testing.T) {
	before := testutil.ToFloat64(cacheLookups.WithLabelValues("products", "hit"))
	CacheObserver("products", true)
	CacheObserver("products", false)
	assert.Equal(t, before+1, testutil.ToFloat64(cacheLookups.WithLabelValues("products", "hit")))
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Middleware(mux)

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "GET /teapot", "418"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "GET /teapot", "418")))
}
