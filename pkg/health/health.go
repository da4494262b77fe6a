package health

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

const checkTimeout = 3 * time.Second

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Handler handles health check endpoints.
type Handler struct {
	db     *gorm.DB
	checks map[string]Check
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a handler. db may be nil, in which case /ready skips
// the database and the pool stats endpoint reports 503.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	h := &Handler{
		db:     db,
		checks: make(map[string]Check),
		logger: logger,
		now:    time.Now,
	}
	if db != nil {
		h.checks["database"] = DatabaseCheck(db)
	}
	return h
}

// AddCheck registers a readiness probe under name.
func (h *Handler) AddCheck(name string, check Check) {
	h.checks[name] = check
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health is the liveness probe and never touches dependencies.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
		Version:   Version,
	})
}

// Ready runs every registered check concurrently and answers 503 when any
// of them fails.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	results := h.run(ctx)

	status, code := "ready", http.StatusOK
	for _, result := range results {
		if result != "ok" {
			status, code = "not_ready", http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: h.now().UTC(),
		Version:   Version,
		Checks:    results,
	})
}

func (h *Handler) run(ctx context.Context) map[string]string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]string, len(names))
	)
	for _, name := range names {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			result := "ok"
			if err := check(ctx); err != nil {
				h.logger.Warn("readiness check failed", slog.String("check", name), slog.String("error", err.Error()))
				result = "unavailable"
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, h.checks[name])
	}
	wg.Wait()

	return results
}

// Version returns version information about the service.
func (h *Handler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
	})
}

// DatabaseCheck pings the pool behind db.
func DatabaseCheck(db *gorm.DB) Check {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// DBStats returns database connection pool statistics.
func (h *Handler) DBStats(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
		return
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get database instance"})
		return
	}

	stats := sqlDB.Stats()
	c.JSON(http.StatusOK, gin.H{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
	})
}

// RegisterRoutes mounts the probes at the router root.
func RegisterRoutes(router gin.IRoutes, h *Handler) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/version", h.Version)
}
