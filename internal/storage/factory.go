package storage

import (
	"fmt"

	"fabric-migrator/internal/common/errors"
	"fabric-migrator/internal/config"
)

// Open creates the run store selected by configuration. The backend
// packages must be imported for their factories to be registered.
func Open(cfg *config.Config) (Store, error) {
	var storeConfig StoreConfig

	switch cfg.DatabaseType {
	case "sqlite":
		storeConfig = StoreConfig{"path": cfg.DatabasePath}
	case "postgres":
		storeConfig = StoreConfig{"dsn": cfg.PostgresDSN()}
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported database type: %s", cfg.DatabaseType))
	}

	return Create(cfg.DatabaseType, storeConfig)
}
