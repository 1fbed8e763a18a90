package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	adminadapter "github.com/guildgate/guildgate-auth/internal/adapter/admin"
	cacheadapter "github.com/guildgate/guildgate-auth/internal/adapter/cache"
	oauthadapter "github.com/guildgate/guildgate-auth/internal/adapter/oauth"
	"github.com/guildgate/guildgate-auth/internal/bootstrap"
	"github.com/guildgate/guildgate-auth/internal/config"
	httptransport "github.com/guildgate/guildgate-auth/internal/http"
	"github.com/guildgate/guildgate-auth/internal/http/handler"
	"github.com/guildgate/guildgate-auth/internal/middleware"
	"github.com/guildgate/guildgate-auth/internal/repository"
	"github.com/guildgate/guildgate-auth/internal/server"
	"github.com/guildgate/guildgate-auth/internal/service"
	"github.com/guildgate/guildgate-auth/internal/service/provision"
	"github.com/guildgate/guildgate-auth/internal/settings"
	"github.com/guildgate/guildgate-auth/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newProviderClient,
			newTokenClient,
			newIdentityClient,
			newGroupClient,
			newStorage,
			newTargetResolver,
			newProvisioner,
			newRateLimiter,
			service.NewCredentialService,
			newAuthHandler,
			httptransport.NewRouter,
			newHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func newProviderClient(cfg config.Config) (*oauthadapter.HTTPProviderClient, error) {
	return oauthadapter.NewHTTPProviderClient(cfg, nil)
}

func newTokenClient(client *oauthadapter.HTTPProviderClient) oauthadapter.TokenClient {
	return client
}

func newIdentityClient(client *oauthadapter.HTTPProviderClient) oauthadapter.IdentityClient {
	return client
}

func newGroupClient(cfg config.Config) adminadapter.GroupClient {
	return adminadapter.NewHTTPGroupClient(cfg.AdminAPIBaseURL, &http.Client{Timeout: cfg.HTTPTimeout})
}

// newStorage selects the credential store, settings repository, and audit log
// for the configured backend.
func newStorage(lc fx.Lifecycle, cfg config.Config, node *snowflake.Node, logger *zap.Logger) (
	repository.CredentialStore,
	repository.SettingsRepository,
	repository.ProvisionLogRepository,
	error,
) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		client, err := newRedisClient(lc, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return cacheadapter.NewRedisCredentialStore(client),
			repository.NewMemorySettingsRepo(nil),
			repository.NewMemoryProvisionLog(),
			nil
	case config.StorePostgres:
		pool, err := newPGXPool(lc, cfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewPostgresCredentialStore(pool),
			repository.NewPostgresSettingsRepo(pool),
			repository.NewPostgresProvisionLog(pool, node),
			nil
	default:
		return repository.NewMemoryCredentialStore(),
			repository.NewMemorySettingsRepo(nil),
			repository.NewMemoryProvisionLog(),
			nil
	}
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			return bootstrap.EnsureSchema(startCtx, pool, logger)
		},
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newTargetResolver(repo repository.SettingsRepository, cfg config.Config) *settings.Resolver {
	return settings.NewResolver(repo, cfg.Target())
}

func newProvisioner(groups adminadapter.GroupClient, logger *zap.Logger) *provision.Provisioner {
	return provision.NewProvisioner(groups, logger)
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newAuthHandler(credentials service.CredentialService, logger *zap.Logger) *handler.AuthHandler {
	return handler.NewAuthHandler(credentials, logger)
}

func newHTTPServer(router *gin.Engine, cfg config.Config) *server.HTTPServer {
	srv := server.NewHTTPServer(router)
	srv.ShutdownTimeout = cfg.ShutdownTimeout
	return srv
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
