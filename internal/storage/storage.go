package storage

//go:generate mockgen -source=storage.go -destination=mock_store_test.go -package=storage

import (
	"context"
	"time"

	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
	"github.com/nikmy/roombook/pkg/logger"
)

// Store persists ledger snapshots. Save overwrites the resources it is
// given, Load returns everything saved so far ordered by resource key.
type Store interface {
	Save(ctx context.Context, snapshots []ledger.ResourceSnapshot) error
	Load(ctx context.Context) ([]ledger.ResourceSnapshot, error)
	Close(ctx context.Context) error
}

const (
	KindFile  = "file"
	KindMongo = "mongo"
	KindRedis = "redis"
)

type Config struct {
	Kind     string        `yaml:"kind"`
	Interval time.Duration `yaml:"interval"`

	File  FileConfig  `yaml:"file"`
	Mongo MongoConfig `yaml:"mongo"`
	Redis RedisConfig `yaml:"redis"`
}

func New(ctx context.Context, cfg Config, log logger.Logger) (Store, error) {
	switch cfg.Kind {
	case KindFile, "":
		return newFileStore(cfg.File, log), nil
	case KindMongo:
		return newMongoStore(ctx, cfg.Mongo, log)
	case KindRedis:
		return newRedisStore(ctx, cfg.Redis, log)
	default:
		return nil, errors.Errorf("unknown storage kind %q", cfg.Kind)
	}
}
