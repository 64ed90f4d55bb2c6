package store

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/voyager/archive"
	"github.com/sweetpotato0/voyager/config"
)

// Open builds the archive backend selected by cfg. The returned close
// function releases its connections. Backend none yields a nil store.
func Open(ctx context.Context, cfg config.ArchiveConfig) (archive.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "", config.BackendNone:
		return nil, noop, nil
	case config.BackendMemory:
		return NewInMemoryStore(), noop, nil
	case config.BackendRedis:
		s := NewRedisStore(&RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("archive redis: %w", err)
		}
		return s, s.Close, nil
	case config.BackendPostgres:
		s, err := NewPostgresStore(ctx, &PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			DBName:   cfg.Postgres.DBName,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("archive postgres: %w", err)
		}
		return s, s.Close, nil
	case config.BackendMongo:
		s, err := NewMongoStore(ctx, &MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("archive mongo: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}
