package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/enterprise/user-service/config"
	"github.com/enterprise/user-service/internal/application"
	"github.com/enterprise/user-service/internal/domain/entity"
	"github.com/enterprise/user-service/internal/domain/repository"
	"github.com/enterprise/user-service/internal/infrastructure/memory"
	pginfra "github.com/enterprise/user-service/internal/infrastructure/postgres"
	"github.com/enterprise/user-service/pkg/helpers"
)

// Container holds the components shared by the router modules. It is built
// once at startup and passed by reference; nothing here is package state.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	Repo   repository.UserRepository
	Users  *application.Service
	Auth   *application.AuthService
	Search *application.SearchService

	PGPool    *pgxpool.Pool
	Redis     *redis.Client
	RabbitPub *helpers.RabbitPublisher

	closers []func()
}

// Build connects the configured infrastructure. Postgres (or the memory
// store) and the auth accounts are required; Redis, RabbitMQ and
// Elasticsearch are optional and only logged when unavailable.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	repo, err := c.buildRepository(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Repo = repo
	c.Users = application.NewService(repo)

	c.Auth, err = application.NewAuthService(Credentials(cfg)...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("auth accounts: %w", err)
	}

	if cfg.RateLimitEnabled {
		rdb, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable; rate limiting disabled")
		} else {
			c.Redis = rdb
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	if cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQUserEventQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; user events disabled")
		} else {
			c.RabbitPub = pub
			c.closers = append(c.closers, pub.Close)
		}
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Warn("elasticsearch client init failed; search disabled")
	}
	c.Search = application.NewSearchService(es, cfg.ESUsersIndex, logger)

	return c, nil
}

func (c *Container) buildRepository(ctx context.Context) (repository.UserRepository, error) {
	cfg := c.Config
	switch cfg.StoreDriver {
	case "memory":
		c.Logger.Warn("using in-memory user store; data is lost on restart")
		return memory.NewUserRepository(), nil
	case "postgres", "":
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.PGPool = pool
		c.closers = append(c.closers, pool.Close)
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, c.Logger); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return pginfra.NewUserRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// Credentials returns the two static accounts defined by cfg.
func Credentials(cfg *config.Config) []application.Credential {
	return []application.Credential{
		{Username: cfg.AdminUsername, Password: cfg.AdminPassword, Roles: []string{entity.RoleAdmin}},
		{Username: cfg.UserUsername, Password: cfg.UserPassword, Roles: []string{entity.RoleUser}},
	}
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
