package dashboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/services/catalog"
	"github.com/mo-amir99/training-portal/pkg/response"
)

// StatsProvider computes content statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (catalog.DashboardStats, error)
}

type Handler struct {
	stats   StatsProvider
	logger  *slog.Logger
	logsDir string
}

func NewHandler(stats StatsProvider, logger *slog.Logger, logsDir string) *Handler {
	if logsDir == "" {
		logsDir = "logs"
	}
	return &Handler{stats: stats, logger: logger, logsDir: logsDir}
}

// GetStats returns day, recording and user counts.
// GET /dashboard/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		status, message := http.StatusInternalServerError, "Failed to compute stats"
		if errors.Is(err, catalog.ErrStoreUnavailable) {
			status, message = http.StatusServiceUnavailable, "Content store unavailable"
		}
		response.ErrorWithLog(h.logger, c, status, message, err)
		return
	}

	response.SuccessNoCache(c, http.StatusOK, stats, "")
}

// GetSystemLogs returns the last N lines from info.log or error.log
// GET /dashboard/logs?type=info|error&lines=100
func (h *Handler) GetSystemLogs(c *gin.Context) {
	logType := c.DefaultQuery("type", "info")
	if logType != "info" && logType != "error" {
		logType = "info"
	}

	lines, err := strconv.Atoi(c.DefaultQuery("lines", "100"))
	if err != nil {
		lines = 100
	}
	lines = max(10, min(lines, 1000))

	logFile := filepath.Join(h.logsDir, fmt.Sprintf("%s.log", logType))

	file, err := os.Open(logFile)
	if errors.Is(err, os.ErrNotExist) {
		response.Error(c, http.StatusNotFound, fmt.Sprintf("Log file not found: %s.log", logType), nil)
		return
	}
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "Failed to read log file", err)
		return
	}
	defer file.Close()

	// ring buffer of the last N lines
	tail := make([]string, 0, lines)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(tail) == lines {
			tail = tail[1:]
		}
		tail = append(tail, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "Failed to read log file", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"type":  logType,
		"lines": len(tail),
		"log":   tail,
	}, "")
}

// GetSystemStats returns process memory, CPU and disk figures.
// GET /dashboard/system-stats
func (h *Handler) GetSystemStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	root := "/"
	if runtime.GOOS == "windows" {
		root = "C:"
	}

	response.Success(c, http.StatusOK, gin.H{
		"memory": gin.H{
			"total": m.Sys,
			"used":  m.Alloc,
			"free":  m.Sys - m.Alloc,
		},
		"cpu": gin.H{
			"numCPU":     runtime.NumCPU(),
			"goroutines": runtime.NumGoroutine(),
		},
		"disk": diskUsage(root),
	}, "")
}

// DiskStats reports free and total bytes of a volume.
type DiskStats struct {
	Free uint64 `json:"free"`
	Size uint64 `json:"size"`
	Path string `json:"path"`
}
