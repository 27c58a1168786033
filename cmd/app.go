package main

import (
	"CareDesk/cache"
	"CareDesk/config"
	"CareDesk/database"
	"CareDesk/logging"
	"CareDesk/repositories"
	"CareDesk/repositories/memstore"
	"CareDesk/services"
	"CareDesk/utils"
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// application holds the wired collaborators of one process.
type application struct {
	config   *config.AppConfig
	db       *gorm.DB
	redis    *redis.Client
	services *services.Services
	verifier utils.TokenVerifier
}

func bootstrap(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Env, cfg.LogLevel)

	app := &application{config: cfg}
	opts := services.Options{}

	var c *cache.Cache
	if cfg.RedisURL != "" {
		if app.redis, err = database.NewRedisClient(ctx, database.RedisConfigFrom(cfg)); err != nil {
			return nil, err
		}
		database.LogRedisPool(app.redis)
		c = cache.New(app.redis)
		opts.Locker = database.NewRedisLocker(app.redis)
	}
	opts.ResetCodes = utils.NewResetCodes(c)

	var store *repositories.Store
	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Warn().Msg("using the in-memory store; data is lost on exit")
		store = memstore.New()
	default:
		if app.db, err = database.Open(ctx, cfg); err != nil {
			app.Close()
			return nil, err
		}
		store = repositories.NewGormStore(app.db, c)
	}

	switch cfg.AuthMode {
	case config.AuthModeJWT:
		app.verifier = utils.NewJWTVerifier(cfg.JWTSecret)
	default:
		issuer, err := utils.NewPasetoIssuer(cfg.SymmetricKey)
		if err != nil {
			app.Close()
			return nil, err
		}
		opts.Tokens = issuer
		app.verifier = issuer
	}

	if cfg.MailEnabled() {
		opts.Mailer = utils.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	}

	app.services = services.New(store, opts)
	return app, nil
}

// Migrate runs the schema migration. The memory store needs none.
func (a *application) Migrate() error {
	if a.db == nil {
		log.Info().Str("driver", a.config.StorageDriver).Msg("nothing to migrate")
		return nil
	}
	if err := database.Migrate(a.db); err != nil {
		return err
	}
	log.Info().Msg("migrations applied")
	return nil
}

func (a *application) Close() {
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			log.Warn().Err(errors.WithStack(err)).Msg("failed to close database")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis")
		}
	}
}
