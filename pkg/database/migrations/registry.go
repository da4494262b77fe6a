package migrations

import (
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"
)

type namedMigration struct {
	name string
	fn   func(*gorm.DB) error
}

var (
	registryMu sync.RWMutex
	registry   []namedMigration
)

// Register adds a migration function to the registry in FIFO order. Every
// migration must be idempotent since Run executes all of them on each boot.
// Registering the same name twice panics.
func Register(name string, fn func(*gorm.DB) error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	for _, m := range registry {
		if m.name == name {
			panic("migrations: duplicate registration of " + name)
		}
	}
	registry = append(registry, namedMigration{name: name, fn: fn})
}

// Names lists registered migrations in run order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, len(registry))
	for i, m := range registry {
		names[i] = m.name
	}
	return names
}

// Run executes registered migrations sequentially.
func Run(db *gorm.DB, log *slog.Logger) error {
	registryMu.RLock()
	migrations := make([]namedMigration, len(registry))
	copy(migrations, registry)
	registryMu.RUnlock()

	if len(migrations) == 0 {
		if log != nil {
			log.Info("no database migrations registered")
		}
		return nil
	}

	for _, migration := range migrations {
		if log != nil {
			log.Info("running migration", slog.String("name", migration.name))
		}

		if err := migration.fn(db); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.name, err)
		}

		if log != nil {
			log.Info("migration completed", slog.String("name", migration.name))
		}
	}

	return nil
}
