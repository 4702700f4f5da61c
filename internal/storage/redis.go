package storage

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
	"github.com/nikmy/roombook/pkg/logger"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

func newRedisStore(ctx context.Context, cfg RedisConfig, log logger.Logger) (*redisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()
		return nil, errors.WrapFailf(err, "ping redis at %s", cfg.Addr)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "roombook"
	}

	return &redisStore{
		client: client,
		prefix: prefix,
		log:    log.With("redis_store"),
	}, nil
}

type redisStore struct {
	client *redis.Client
	prefix string
	log    logger.Logger
}

func (r *redisStore) keysSet() string {
	return r.prefix + ":resources"
}

func (r *redisStore) resourceKey(key string) string {
	return r.prefix + ":resource:" + key
}

func (r *redisStore) Save(ctx context.Context, snapshots []ledger.ResourceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, snap := range snapshots {
			payload, err := json.Marshal(snap)
			if err != nil {
				return errors.WrapFailf(err, "marshal resource %s", snap.Key)
			}

			pipe.Set(ctx, r.resourceKey(snap.Key), payload, 0)
			pipe.SAdd(ctx, r.keysSet(), snap.Key)
		}
		return nil
	})
	if err != nil {
		return errors.WrapFail(err, "save resources")
	}

	r.log.Debugf("saved %d resource(s)", len(snapshots))
	return nil
}

func (r *redisStore) Load(ctx context.Context) ([]ledger.ResourceSnapshot, error) {
	keys, err := r.client.SMembers(ctx, r.keysSet()).Result()
	if err != nil {
		return nil, errors.WrapFail(err, "list resources")
	}
	if len(keys) == 0 {
		return nil, nil
	}
	slices.Sort(keys)

	redisKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKeys = append(redisKeys, r.resourceKey(key))
	}

	values, err := r.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, errors.WrapFail(err, "get resources")
	}

	snapshots := make([]ledger.ResourceSnapshot, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, errors.Wrapf(ledger.ErrCorruptData, "resource %s is listed but missing", keys[i])
		}

		var snap ledger.ResourceSnapshot
		err := json.Unmarshal([]byte(raw), &snap)
		if err != nil {
			return nil, errors.Wrapf(errors.Join(ledger.ErrCorruptData, err), "decode resource %s", keys[i])
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}

func (r *redisStore) Close(context.Context) error {
	return errors.WrapFail(r.client.Close(), "close redis client")
}
