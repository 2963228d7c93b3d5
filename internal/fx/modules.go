package fx

import (
	"context"
	"fmt"

	"account-manager/internal/api"
	"account-manager/internal/card"
	"account-manager/internal/config"
	"account-manager/internal/database"
	"account-manager/internal/logger"
	"account-manager/internal/repository"
	"account-manager/internal/server"
	"account-manager/internal/service"
	"account-manager/internal/staleness"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvidePolicy(cfg *config.Config) *staleness.Policy {
	return staleness.New(cfg.CacheTTL)
}

func ProvideRenderer(policy *staleness.Policy, catalog *api.ChampionCatalog) *card.Renderer {
	return card.NewRenderer(policy, catalog, api.FallbackChampionIcon)
}

// ProvideStore picks the persistence backend once, at startup.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendHost:
		conn, err := ConnectNATS(lc, cfg, logger)
		if err != nil {
			return nil, err
		}
		return repository.NewHostStore(conn, logger), nil
	default:
		kv, err := ProvideLocalKV(lc, cfg, logger)
		if err != nil {
			return nil, err
		}
		return repository.NewBlobStore(kv, logger), nil
	}
}

func ProvideLocalKV(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (repository.KV, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn().Msg("using in-memory account store, data is lost on exit")
		return repository.NewMemoryKV(), nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
				}
				logger.Info().Str("addr", cfg.RedisAddr).Msg("redis account store connected")
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		return repository.NewRedisKV(client, "account-manager:"), nil
	default:
		db, err := database.Open(cfg.DBPath, logger)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if err := db.Close(); err != nil {
					logger.Warn().Err(err).Msg("error closing database connection")
					return err
				}
				return nil
			},
		})
		return repository.NewSQLiteKV(db), nil
	}
}

func ConnectNATS(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("account-manager"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("host bridge disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("host bridge reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to host bridge at %s: %w", cfg.NATSURL, err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return conn.Drain()
		},
	})
	return conn, nil
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(ProvidePolicy),
	fx.Provide(ProvideStore),
	// remote
	fx.Provide(fx.Annotate(api.NewClient, fx.As(new(service.StatsFetcher)))),
	fx.Provide(api.NewChampionCatalog),
	fx.Provide(ProvideRenderer),
	// svc
	fx.Provide(service.NewRefreshService),
	fx.Provide(service.NewAccountService),
	// server
	fx.Provide(server.NewAccountServer),
)
