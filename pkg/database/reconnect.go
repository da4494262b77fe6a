package database

import (
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
)

// ReconnectPlugin pings the pool before statements after a connection error
// was seen and waits for the server to come back before letting them run.
type ReconnectPlugin struct {
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
	sleep      func(time.Duration)

	suspect        atomic.Bool
	mu             sync.Mutex
	reconnectCount atomic.Int64
}

// NewReconnectPlugin creates a new reconnect plugin.
func NewReconnectPlugin(logger *slog.Logger) *ReconnectPlugin {
	return &ReconnectPlugin{
		logger:     logger,
		maxRetries: 3,
		retryDelay: 500 * time.Millisecond,
		sleep:      time.Sleep,
	}
}

// Name returns the plugin name.
func (p *ReconnectPlugin) Name() string {
	return "reconnect_plugin"
}

// Initialize registers the before/after hooks on every callback chain.
func (p *ReconnectPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []func() error{
		func() error { return cb.Query().Before("gorm:query").Register("reconnect:before_query", p.before) },
		func() error { return cb.Query().After("gorm:query").Register("reconnect:after_query", p.after) },
		func() error { return cb.Create().Before("gorm:create").Register("reconnect:before_create", p.before) },
		func() error { return cb.Create().After("gorm:create").Register("reconnect:after_create", p.after) },
		func() error { return cb.Update().Before("gorm:update").Register("reconnect:before_update", p.before) },
		func() error { return cb.Update().After("gorm:update").Register("reconnect:after_update", p.after) },
		func() error { return cb.Delete().Before("gorm:delete").Register("reconnect:before_delete", p.before) },
		func() error { return cb.Delete().After("gorm:delete").Register("reconnect:after_delete", p.after) },
		func() error { return cb.Row().Before("gorm:row").Register("reconnect:before_row", p.before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("reconnect:before_raw", p.before) },
		func() error { return cb.Raw().After("gorm:raw").Register("reconnect:after_raw", p.after) },
	}

	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

func (p *ReconnectPlugin) after(db *gorm.DB) {
	if db.Error != nil && shouldReconnect(db.Error) {
		p.suspect.Store(true)
	}
}

func (p *ReconnectPlugin) before(db *gorm.DB) {
	if !p.suspect.Load() {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.suspect.Load() {
		return
	}

	p.logger.Warn("database connection lost, attempting to reconnect")
	if p.attemptReconnect(sqlDB) {
		p.suspect.Store(false)
		return
	}
	p.logger.Error("database reconnection failed after retries")
}

// shouldReconnect reports whether err looks like a dropped connection rather
// than a query failure.
func shouldReconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range connectionErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var connectionErrors = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"connection timed out",
	"unexpected eof",
	"bad connection",
	"closed network connection",
	"server closed",
}

func (p *ReconnectPlugin) attemptReconnect(sqlDB *sql.DB) bool {
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		p.sleep(p.retryDelay * time.Duration(attempt))

		if err := sqlDB.Ping(); err == nil {
			total := p.reconnectCount.Add(1)
			p.logger.Info("database reconnection successful", slog.Int64("total_reconnects", total))
			return true
		}

		p.logger.Warn("reconnection attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", p.maxRetries),
		)
	}
	return false
}

// ReconnectCount returns the total number of successful reconnections.
func (p *ReconnectPlugin) ReconnectCount() int64 {
	return p.reconnectCount.Load()
}
