package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iliyamo/restaurant-manager/internal/config"
	"github.com/iliyamo/restaurant-manager/internal/database"
	"github.com/iliyamo/restaurant-manager/internal/handler"
	"github.com/iliyamo/restaurant-manager/internal/middleware"
	"github.com/iliyamo/restaurant-manager/internal/repository"
	"github.com/iliyamo/restaurant-manager/internal/router"
	"github.com/iliyamo/restaurant-manager/internal/service"
	"github.com/iliyamo/restaurant-manager/internal/session"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables before serving")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	lc, err := config.LoadLayoutConfig(cfg.LayoutConfigPath)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if migrate {
		if _, err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	rdb := config.NewRedisClient(logger)
	if rdb != nil {
		defer rdb.Close()
	}

	pub, closePub := newPublisher(cfg, logger)
	defer closePub()

	e := newServer(cfg, lc, db, rdb, pub, logger)
	addr := ":" + cfg.Port

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

// newPublisher connects events to RabbitMQ when a broker URL is configured
// and drops them otherwise.
func newPublisher(cfg config.Config, logger *log.Logger) (service.Publisher, func()) {
	if !config.AMQPConfigured() {
		logger.Info("no broker configured, domain events are dropped")
		return service.NopPublisher{}, func() {}
	}
	p := service.NewAMQPPublisher(cfg.AMQPURL, logger)
	return p, func() { _ = p.Close() }
}

// sessionStore keeps editor drafts in Redis when it is reachable and in
// process memory otherwise.
func sessionStore(rdb *redis.Client, ttl time.Duration, logger *log.Logger) session.Store {
	if rdb == nil {
		logger.Warn("layout drafts kept in memory; they are lost on restart")
		return session.NewMemoryStore(ttl)
	}
	return session.NewRedisStore(rdb, ttl)
}

// newServer wires repositories, handlers and middleware into an Echo
// instance.  rdb may be nil.
func newServer(cfg config.Config, lc config.LayoutConfig, db *sql.DB, rdb *redis.Client, pub service.Publisher, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.OptionalJWT(cfg.JWTSecret))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger))

	halls := repository.NewHallRepo(db)
	tables := repository.NewTableRepo(db)

	h := router.Handlers{
		Health: handler.NewHealthHandler(db, rdb),
		Auth: handler.NewAuthHandler(cfg,
			repository.NewUserRepo(db),
			repository.NewTokenRepo(db),
			repository.NewOrganizationRepo(db),
		),
		Floor:        handler.NewFloorHandler(halls, tables, lc, logger),
		Layout:       handler.NewLayoutHandler(halls, tables, sessionStore(rdb, cfg.LayoutSessionTTL, logger), lc, pub, logger),
		Reservations: handler.NewReservationHandler(repository.NewReservationRepo(db), tables, pub, logger),
		Inventory:    handler.NewInventoryHandler(repository.NewInventoryRepo(db), pub, logger),
		Notices:      handler.NewNoticeHandler(repository.NewNoticeRepo(db), pub, logger),
	}

	// Drafts and the caller's own profile depend on more than the organization.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger, "/v1/me", "/v1/layout")
	router.Register(e, h, cfg.JWTSecret, cache)
	return e
}
