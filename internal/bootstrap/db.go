package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/config"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/db"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/storage/postgres"
)

// Stores holds the optional backing services. A nil field means the
// matching env var was empty and the feature is disabled.
type Stores struct {
	DB    *db.DB
	SQL   *sql.DB
	Redis *redis.Client
}

// OpenStores connects to Postgres (pgx pool and database/sql) and Redis when
// configured. Any configured store that cannot be reached fails startup.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	s := &Stores{}

	if cfg.Database.DSN != "" {
		d, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		s.DB = d

		if err := d.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}

		sqlDB, err := postgres.NewConnection(&cfg.Database)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.SQL = sqlDB
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			s.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		s.Redis = client
	}

	return s, nil
}

func (s *Stores) Close() {
	if s.Redis != nil {
		s.Redis.Close()
	}
	if s.SQL != nil {
		s.SQL.Close()
	}
	s.DB.Close()
}
