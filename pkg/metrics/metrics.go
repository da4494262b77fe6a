package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "training_portal"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	dbQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "db_query_duration_seconds",
		Help:      "Database query latency by operation and table.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation", "table"})

	storeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_requests_total",
		Help:      "Document store requests by method, document and status.",
	}, []string{"method", "document", "status"})

	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_request_duration_seconds",
		Help:      "Document store request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "document"})

	storeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_retries_total",
		Help:      "Document store requests retried after a transient failure.",
	}, []string{"method", "document"})

	writeConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_write_conflicts_total",
		Help:      "Conditional writes rejected because the document changed underneath.",
	}, []string{"collection"})

	readFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_read_fallbacks_total",
		Help:      "Reads answered with built-in defaults because the store failed.",
	}, []string{"collection"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Catalog cache lookups by result.",
	}, []string{"result"})
)

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordDBQuery observes a single database query.
func RecordDBQuery(operation, table string, elapsed time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(elapsed.Seconds())
}

// RecordStoreRequest observes a single document store round trip.
func RecordStoreRequest(method, document string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	storeRequests.WithLabelValues(method, document, label).Inc()
	storeDuration.WithLabelValues(method, document).Observe(elapsed.Seconds())
}

// RecordStoreRetry counts a retried document store request.
func RecordStoreRetry(method, document string) {
	storeRetries.WithLabelValues(method, document).Inc()
}

// RecordWriteConflict counts a rejected conditional write.
func RecordWriteConflict(collection string) {
	writeConflicts.WithLabelValues(collection).Inc()
}

// RecordReadFallback counts a read served from built-in defaults.
func RecordReadFallback(collection string) {
	readFallbacks.WithLabelValues(collection).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}
