// Command server runs the Sinergy ERP web front: the session gate in front of
// every page, login and logout, and the same-origin chat API.
//
// @title        Sinergy Web API
// @version      1.0
// @description  Session gate, login and chat proxy of the Sinergy ERP web front.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sinergy/sinergy-web/internal/api"
	"github.com/sinergy/sinergy-web/internal/api/handler"
	"github.com/sinergy/sinergy-web/internal/api/session"
	"github.com/sinergy/sinergy-web/internal/api/view"
	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/service"
	"github.com/sinergy/sinergy-web/internal/infrastructure/backend"
	mongodb "github.com/sinergy/sinergy-web/internal/infrastructure/db/mongo"
	redisdb "github.com/sinergy/sinergy-web/internal/infrastructure/db/redis"
	"github.com/sinergy/sinergy-web/internal/infrastructure/queue"
	"github.com/sinergy/sinergy-web/internal/infrastructure/routing"
	"github.com/sinergy/sinergy-web/internal/pkg/config"
	"github.com/sinergy/sinergy-web/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "sinergy-web",
	})
	if envErr != nil {
		log.Debug().Msg("no .env file found; relying on existing environment")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		Timeout:     cfg.Mongo.Timeout,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongodb")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TLS:      cfg.Redis.TLS,
		Timeout:  cfg.Redis.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	audit := mongodb.NewAccessAuditRepository(db)
	if err := audit.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("audit indexes not ensured")
	}
	auditCtx, stopAudit := context.WithCancel(context.Background())
	auditQueue := queue.NewDispatcher(0, audit, logger.Component("audit"))
	auditQueue.Start(auditCtx)

	routes, err := loadRoutes(cfg.Gate.RoutesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load route table")
	}
	pages, err := view.NewPages(cfg.Gate.PagesDir)
	if err != nil {
		log.Fatal().Err(err).Msg("load page bodies")
	}

	secret := cfg.Session.Secret
	if secret == "" {
		log.Warn().Msg("SESSION_SECRET is empty; using an insecure development secret")
		secret = "sinergy-development-secret-do-not-use"
	}
	sessions := session.NewManager(session.Options{
		Secret:      []byte(secret),
		Secure:      cfg.Session.SecureCookies,
		RememberTTL: cfg.Session.RememberTTL,
		SessionTTL:  cfg.Session.SessionTTL,
	}, redisdb.NewRememberedStore(rdb, cfg.Session.RememberTTL))

	client := backend.NewClient(cfg.Sinergy.URL, logger.Component("backend"), backend.WithTimeout(cfg.Sinergy.Timeout))

	e, err := api.NewRouter(api.Dependencies{
		Log:      log,
		Routes:   routes,
		Sessions: sessions,
		Gate:     service.NewGateService(routes, client, client, auditQueue, cfg.Gate.FallbackPages, logger.Component("gate")),
		Auth:     service.NewAuthService(client, logger.Component("auth")),
		Chat:     client,
		Audit:    audit,
		Pages:    pages,
		Checks:   []handler.DependencyCheck{handler.MongoCheck(db), handler.RedisCheck(rdb)},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build router")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("api", cfg.Sinergy.URL).Msg("sinergy web listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	stopAudit()
	auditQueue.Wait()
}

// loadRoutes reads the route table at path, or the built-in one when path is empty.
func loadRoutes(path string) (*domain.RouteTable, error) {
	if path != "" {
		return routing.LoadFile(path)
	}
	return routing.Default()
}
