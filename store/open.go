package store

import (
	"fmt"

	"github.com/riserecover/server/config"
	"github.com/riserecover/server/utils"
)

// OpenBackend builds the Backend selected by cfg.StorageDriver.
func OpenBackend(cfg config.AppConfig) (Backend, error) {
	switch cfg.StorageDriver {
	case "", "memory":
		return NewMemoryBackend(), nil
	case "redis":
		return NewRedisBackend(utils.NewRedisClient(cfg), cfg.RedisKeyPrefix), nil
	case "mysql", "postgres":
		db, err := config.OpenDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return NewGormBackend(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
