package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/canyonbook-backend/api/routes"
	"github.com/angelmondragon/canyonbook-backend/internal/auth"
	"github.com/angelmondragon/canyonbook-backend/internal/bookings"
	"github.com/angelmondragon/canyonbook-backend/internal/guides"
	"github.com/angelmondragon/canyonbook-backend/internal/notifications"
	"github.com/angelmondragon/canyonbook-backend/internal/products"
	"github.com/angelmondragon/canyonbook-backend/internal/promocodes"
	"github.com/angelmondragon/canyonbook-backend/internal/resellers"
	"github.com/angelmondragon/canyonbook-backend/internal/sessions"
	"github.com/angelmondragon/canyonbook-backend/internal/users"
	"github.com/angelmondragon/canyonbook-backend/internal/vouchers"
	"github.com/angelmondragon/canyonbook-backend/pkg/auth/session"
	"github.com/angelmondragon/canyonbook-backend/pkg/config"
	"github.com/angelmondragon/canyonbook-backend/pkg/db"
	"github.com/angelmondragon/canyonbook-backend/pkg/env"
	"github.com/angelmondragon/canyonbook-backend/pkg/instance"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/angelmondragon/canyonbook-backend/pkg/metrics"
	"github.com/angelmondragon/canyonbook-backend/pkg/migrate"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox"
	"github.com/angelmondragon/canyonbook-backend/pkg/redis"
)

const (
	serviceName       = "api"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 20 * time.Second
)

func main() {
	bootCtx := context.Background()
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(bootCtx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(bootCtx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		logg.Error(bootCtx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(bootCtx, "failed to create session manager", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := buildServices(cfg, logg, dbClient, sessionManager, metrics.NewBookingMetrics(reg))
	if err != nil {
		logg.Error(bootCtx, "failed to wire services", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)

	ctx, stop := signal.NotifyContext(bootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, reg, svc),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessionManager *session.Manager, bookingMetrics *metrics.BookingMetrics) (routes.Services, error) {
	gdb := dbClient.DB()
	usersRepo := users.NewRepository(gdb)
	guidesRepo := guides.NewRepository(gdb)
	resellersRepo := resellers.NewRepository(gdb)
	productsRepo := products.NewRepository(gdb)
	sessionsRepo := sessions.NewRepository(gdb)
	emitter := outbox.NewService(outbox.NewRepository(gdb), logg)

	var (
		out routes.Services
		err error
	)

	if out.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		GuideRepo:      guidesRepo,
		ResellerRepo:   resellersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	}); err != nil {
		return out, err
	}
	if out.Products, err = products.NewService(productsRepo); err != nil {
		return out, err
	}
	if out.Sessions, err = sessions.NewService(sessionsRepo, productsRepo, guidesRepo); err != nil {
		return out, err
	}
	if out.Guides, err = guides.NewService(guidesRepo); err != nil {
		return out, err
	}
	if out.Resellers, err = resellers.NewService(resellersRepo); err != nil {
		return out, err
	}
	if out.PromoCodes, err = promocodes.NewService(promocodes.NewRepository(gdb)); err != nil {
		return out, err
	}
	if out.Vouchers, err = vouchers.NewService(vouchers.ServiceParams{
		Repo:    vouchers.NewRepository(gdb),
		DB:      dbClient,
		Outbox:  emitter,
		Metrics: bookingMetrics,
		Logger:  logg,
	}); err != nil {
		return out, err
	}
	if out.Bookings, err = bookings.NewService(bookings.ServiceParams{
		DB:        dbClient,
		Repo:      bookings.NewRepository(gdb),
		Sessions:  sessionsRepo,
		Products:  productsRepo,
		Guides:    guidesRepo,
		Resellers: resellersRepo,
		Promos:    out.PromoCodes,
		Vouchers:  out.Vouchers,
		Outbox:    emitter,
		Metrics:   bookingMetrics,
		Logger:    logg,
		Currency:  cfg.Pricing.Currency,
	}); err != nil {
		return out, err
	}
	if out.Notifications, err = notifications.NewService(notifications.NewRepository(gdb)); err != nil {
		return out, err
	}
	return out, nil
}
