package main

import (
	"context"
	"database/sql"
	"fmt"

	"hacproxy/services/hac"
	"hacproxy/services/session"
)

type StoreConfig struct {
	// Backend selects the session store: "memory", "sqlite" or "redis".
	// Defaults to "memory".
	Backend    string              `json:"backend"`
	SqliteFile string              `json:"sqlite_file"`
	Redis      session.RedisConfig `json:"redis"`
}

type Config struct {
	// Port defaults to 8000.
	Port    int         `json:"port"`
	Verbose bool        `json:"verbose"`
	Portal  hac.Config  `json:"portal"`
	Store   StoreConfig `json:"store"`
}

func openStore(ctx context.Context, config StoreConfig) (session.Store, error) {
	switch config.Backend {
	case "", "memory":
		return session.NewMemoryStore(), nil
	case "sqlite":
		if config.SqliteFile == "" {
			return nil, fmt.Errorf("store backend sqlite requires sqlite_file")
		}
		db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", config.SqliteFile))
		if err != nil {
			return nil, err
		}
		return session.NewSqliteStore(ctx, db)
	case "redis":
		return session.NewRedisStore(ctx, config.Redis)
	default:
		return nil, fmt.Errorf("unknown store backend %q", config.Backend)
	}
}
