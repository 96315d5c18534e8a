package config

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/logger"

	"restaurant-review-api/logging"
	"restaurant-review-api/store"
)

// OpenStore connects to the backend selected by DBDriver.
func OpenStore(ctx context.Context, cfg *Config, log logging.Logger) (store.Store, error) {
	switch cfg.DBDriver {
	case DriverMongo:
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		s, err := store.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("pinging mongodb: %w", err)
		}
		log.Info(ctx, "connected to mongodb", "database", cfg.MongoDatabase)
		return s, nil
	default:
		level := logger.Warn
		if cfg.LogLevel == "debug" {
			level = logger.Info
		}
		s, err := store.OpenSQLite(cfg.DatabaseDSN, level)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "database connected and migrated", "dsn", cfg.DatabaseDSN)
		return s, nil
	}
}
