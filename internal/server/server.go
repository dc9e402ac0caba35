// Package server boots the storefront: configuration, stores, services, the
// HTTP and gRPC listeners, and the graceful shutdown that flushes state.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus"

	appgraphql "github.com/shashiranjanraj/mazraa/app/graphql"
	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/app/routes"
	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/config"
	"github.com/shashiranjanraj/mazraa/database/seeders"
	"github.com/shashiranjanraj/mazraa/internal/kernel"
	"github.com/shashiranjanraj/mazraa/pkg/cache"
	"github.com/shashiranjanraj/mazraa/pkg/database"
	"github.com/shashiranjanraj/mazraa/pkg/event"
	"github.com/shashiranjanraj/mazraa/pkg/grpc"
	"github.com/shashiranjanraj/mazraa/pkg/kv"
	"github.com/shashiranjanraj/mazraa/pkg/logger"
	"github.com/shashiranjanraj/mazraa/pkg/mail"
	"github.com/shashiranjanraj/mazraa/pkg/metrics"
	"github.com/shashiranjanraj/mazraa/pkg/middleware"
	"github.com/shashiranjanraj/mazraa/pkg/migration"
	"github.com/shashiranjanraj/mazraa/pkg/notification"
	"github.com/shashiranjanraj/mazraa/pkg/schedule"
	"github.com/shashiranjanraj/mazraa/pkg/storage"
	"github.com/shashiranjanraj/mazraa/pkg/workerpool"
	"github.com/shashiranjanraj/mazraa/pkg/ws"

	// registers the schema migrations
	_ "github.com/shashiranjanraj/mazraa/database/migrations"
)

const shutdownTimeout = 15 * time.Second

// App is a booted storefront, ready to serve or to run one-off commands.
type App struct {
	Store    kv.Store
	Repos    *repositories.Registry
	Bus      *event.Bus
	Pool     *workerpool.Pool
	Hub      *ws.Hub
	Services *services.Services
	Schema   graphql.Schema

	closers []func()
}

// Boot loads configuration, connects the backing stores named by the
// configuration and wires the services over them.
func Boot(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &App{}

	if uri := config.LogMongoURI(); uri != "" {
		closeMongo, err := logger.EnableMongo(uri, "mazraa", "logs")
		if err != nil {
			logger.Warn("logger: mongo sink disabled", "error", err)
		} else {
			a.closers = append(a.closers, closeMongo)
		}
	}

	driver := config.StoreDriver()
	switch driver {
	case "database":
		if err := database.Connect(); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = database.Close() })
		ran, err := migration.New(database.DB).Run()
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("migrate: %w", err)
		}
		for _, name := range ran {
			logger.Info("migration: applied", "name", name)
		}
	case "redis":
		if err := cache.Connect(ctx); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = cache.Close() })
	}

	storage.Connect()

	store, err := kv.Open(driver)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Store = store
	a.Repos = repositories.NewRegistry(store)
	a.Bus = event.NewBus(64)
	watchStreams(a.Bus)
	a.Pool = workerpool.New("notify", config.NotifyWorkers())

	channels := []notification.Channel{notification.NewPushChannel(a.Bus)}
	if hook := notification.NewWebhookChannel(config.NotifyWebhookURL()); hook != nil {
		channels = append(channels, hook)
	}
	if mailer := notification.NewMailChannel(mail.FromConfig(), config.MailAdminTo()...); mailer != nil {
		channels = append(channels, mailer)
	}
	dispatcher := notification.NewDispatcher(a.Pool, channels...).WithDefaults(notification.Defaults{
		Icon:    "/icon-192.png",
		Badge:   "/icon-192.png",
		Tag:     "notification",
		Vibrate: notification.DefaultVibrate,
	})

	photos, err := storage.Default()
	if err != nil {
		logger.Warn("storage: photo uploads disabled", "error", err)
	}

	a.Services = services.New(services.Deps{
		Repos:     a.Repos,
		Notifier:  services.NewNotifier(a.Bus, dispatcher, config.ShopName()),
		Photos:    photos,
		AdminCode: config.AdminCode(),
		AdminTTL:  config.AdminSessionTTL(),
		ShopName:  config.ShopName(),
	})
	a.Hub = ws.NewHub(a.Bus)

	a.Schema, err = appgraphql.NewSchema(a.Services)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("graphql: %w", err)
	}

	if err := seeders.SeedCategories(ctx, a.Services); err != nil {
		logger.Warn("seeder: default categories failed", "error", err)
	}

	logger.Info("storefront booted", "store", driver, "channels", dispatcher.Channels())
	return a, nil
}

// watchStreams exposes how many back-office streams are live.
func watchStreams(bus *event.Bus) {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "mazraa",
		Subsystem: "events",
		Name:      "admin_streams",
		Help:      "Live subscriptions on the back-office topic.",
	}, func() float64 { return float64(bus.Subscribers(event.AdminTopic)) })

	if err := metrics.DefaultRegistry.Register(gauge); err != nil {
		logger.Warn("metrics: admin stream gauge not registered", "error", err)
	}
}

// Routes is the route table's view of the app.
func (a *App) Routes() routes.Deps {
	return routes.Deps{
		Services: a.Services,
		Bus:      a.Bus,
		Hub:      a.Hub,
		Schema:   &a.Schema,
		ShopName: config.ShopName(),
	}
}

// Close flushes every dirty collection and releases the stores. Pending
// notifications are delivered first.
func (a *App) Close(ctx context.Context) {
	if a.Pool != nil {
		a.Pool.Shutdown()
	}
	if a.Repos != nil {
		if err := a.Repos.FlushAll(ctx); err != nil {
			logger.Error("shutdown: final flush failed", "error", err, "unsaved", a.Repos.Pending())
		}
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Start boots the app and serves until SIGINT or SIGTERM.
func Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := Boot(ctx)
	if err != nil {
		return err
	}
	return a.Serve(ctx)
}

// Serve runs the listeners and the background tasks until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	go a.Hub.Run(ctx)

	sched := schedule.New()
	sched.Every(config.FlushInterval()).Name("store:flush").WithoutOverlapping().Run(a.Repos.FlushAll)
	sched.Start(ctx)

	limiter := middleware.NewRateLimiter(config.RateLimit(), time.Minute)
	opts := kernel.Options{
		Limiter:     limiter,
		CORSOrigins: middleware.ParseOrigins(config.CORSOrigins()),
	}
	if config.StorageDefault() == "local" {
		opts.StaticRoot = config.StorageLocalRoot()
	}
	r := kernel.Build(a.Routes(), opts)

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	// Event streams stay open until their subscription ends.
	srv.RegisterOnShutdown(a.Bus.Close)

	var grpcSrv *grpc.Server
	if port := config.GRPCPort(); port != "" {
		g, err := grpc.Start(port)
		if err != nil {
			logger.Error("grpc: not started", "error", err)
		}
		grpcSrv = g
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http: shutdown", "error", err)
	}
	grpc.Stop(grpcSrv)
	limiter.Stop()
	sched.Wait()
	a.Close(shutdownCtx)
	return serveErr
}
