package database

import (
	"fmt"
	"strconv"

	"property-listing/internal/config"
	"property-listing/internal/logging"
)

// Open returns the PropertyStore selected by cfg.Type, with its schema
// initialised for SQL backends.
func Open(cfg config.StorageConfig) (PropertyStore, error) {
	switch cfg.Type {
	case "", "json":
		logging.Logger.Infof("Using JSON file store at %s", cfg.JSONPath)
		return NewJSONStore(cfg.JSONPath, cfg.StrictPersist), nil

	case "mysql":
		logging.Logger.Info("Using MySQL with GORM")
		m := cfg.MySQL
		gdb, err := NewGormDB(
			orDefault(m.Host, "localhost"),
			portOrDefault(m.Port, "3306"),
			m.User, m.Password, m.Database,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		if err := gdb.InitSchema(); err != nil {
			gdb.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		return gdb, nil

	case "sqlite":
		logging.Logger.Infof("Using SQLite with GORM at %s", cfg.SQLitePath)
		gdb, err := NewSQLiteGormDB(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		if err := gdb.InitSchema(); err != nil {
			gdb.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		return gdb, nil

	case "postgres":
		logging.Logger.Info("Using PostgreSQL")
		pg := cfg.Postgres
		db, err := NewDB(
			orDefault(pg.Host, "localhost"),
			portOrDefault(pg.Port, "5432"),
			pg.User, pg.Password, pg.Database, pg.SSLMode,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.InitSchema(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		return db, nil
	}

	return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func portOrDefault(port int, def string) string {
	if port > 0 {
		return strconv.Itoa(port)
	}
	return def
}
