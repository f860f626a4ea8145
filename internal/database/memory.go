// internal/database/memory.go
package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/javajoker/stockcount/internal/config"
)

// OpenInMemory opens a migrated sqlite database that lives as long as the
// returned handle. Distinct names give isolated databases.
func OpenInMemory(name string) (*gorm.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	db, err := Initialize(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel:   "silent",
	})
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db); err != nil {
		Close(db)
		return nil, err
	}
	return db, nil
}
