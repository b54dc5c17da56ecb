package tanklock

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/oilfield/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("tanklock",
	fx.Provide(New),
)

// New picks the redis locker when a redis address is configured and falls
// back to the in-process locker otherwise.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Locker {
	addr := strings.TrimSpace(cfg.RedisAddress)
	if addr == "" || cfg.LockBackend == config.LockBackendLocal {
		log.Info("tank lock backend", zap.String("backend", config.LockBackendLocal))
		return NewLocal()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	log.Info("tank lock backend", zap.String("backend", config.LockBackendRedis), zap.String("addr", addr))
	return NewRedis(client, cfg.LockTTL)
}
