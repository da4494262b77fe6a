package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareLabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/v1/days/:dayNumber", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/days/:dayNumber", "200"))
	for _, path := range []string{"/api/v1/days/1", "/api/v1/days/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/days/:dayNumber", "200"))
	assert.Equal(t, 2.0, after-before)

	before = testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "404"))-before)
}

func TestStoreCounters(t *testing.T) {
	before := testutil.ToFloat64(storeRequests.WithLabelValues("GET", "training_days.json", "error"))
	RecordStoreRequest("GET", "training_days.json", 0, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(storeRequests.WithLabelValues("GET", "training_days.json", "error"))-before)

	before = testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	RecordCacheLookup(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))-before)

	before = testutil.ToFloat64(writeConflicts.WithLabelValues("days"))
	RecordWriteConflict("days")
	assert.Equal(t, 1.0, testutil.ToFloat64(writeConflicts.WithLabelValues("days"))-before)
}
