// main wires stores, services and the HTTP router, then runs the server and
// the expiry sweeper until shutdown. Business logic lives in the internal
// service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	donationhandler "bloodlink/internal/donation/handler"
	donationmetrics "bloodlink/internal/donation/metrics"
	donationservice "bloodlink/internal/donation/service"
	hcstore "bloodlink/internal/donation/store/healthcheck"
	procstore "bloodlink/internal/donation/store/process"
	regstore "bloodlink/internal/donation/store/registration"
	inventoryhandler "bloodlink/internal/inventory/handler"
	inventorymetrics "bloodlink/internal/inventory/metrics"
	inventoryservice "bloodlink/internal/inventory/service"
	thresholdstore "bloodlink/internal/inventory/store/threshold"
	unitstore "bloodlink/internal/inventory/store/unit"
	locatorhandler "bloodlink/internal/locator/handler"
	"bloodlink/internal/locator/index"
	locatormetrics "bloodlink/internal/locator/metrics"
	locatorservice "bloodlink/internal/locator/service"
	"bloodlink/internal/notify"
	"bloodlink/internal/platform/config"
	"bloodlink/internal/platform/database"
	"bloodlink/internal/platform/httpserver"
	"bloodlink/internal/platform/logger"
	"bloodlink/internal/platform/middleware"
	platformredis "bloodlink/internal/platform/redis"
	referencehandler "bloodlink/internal/reference/handler"
	referencestore "bloodlink/internal/reference/store"
	usershandler "bloodlink/internal/users/handler"
	usersservice "bloodlink/internal/users/service"
	userstore "bloodlink/internal/users/store/user"
	id "bloodlink/pkg/domain"
	auditpublisher "bloodlink/pkg/platform/audit/publisher"
	auditmemory "bloodlink/pkg/platform/audit/store/memory"
	"bloodlink/pkg/requestcontext"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when configured, in-memory otherwise.
	stores, cleanup, err := buildStores(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	auditPub := auditpublisher.NewPublisher(auditmemory.NewInMemoryStore(), auditpublisher.WithAsyncBuffer(256))
	defer auditPub.Close()

	dispatcher, closeDispatcher, err := buildDispatcher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	geoIndex, err := buildGeoIndex(cfg, log)
	if err != nil {
		return err
	}

	// Services.
	usersSvc, err := usersservice.New(stores.users, stores.reference, cfg.JWTSigningKey,
		usersservice.WithLogger(log))
	if err != nil {
		return err
	}

	inventorySvc, err := inventoryservice.New(stores.units, stores.thresholds, stores.reference,
		inventoryservice.WithLogger(log),
		inventoryservice.WithMetrics(inventorymetrics.New()),
		inventoryservice.WithAuditPublisher(auditPub),
	)
	if err != nil {
		return err
	}

	donationSvc, err := donationservice.New(stores.registrations, stores.healthChecks, stores.processes, stores.reference,
		donationservice.WithLogger(log),
		donationservice.WithMetrics(donationmetrics.New()),
		donationservice.WithAuditPublisher(auditPub),
		donationservice.WithUnitCreator(inventorySvc),
		donationservice.WithDonorCounter(usersSvc),
	)
	if err != nil {
		return err
	}
	// The inventory side reads collected volumes back from the donation side.
	inventoryservice.WithDonationReader(donationSvc)(inventorySvc)

	locatorSvc, err := locatorservice.New(usersSvc, stores.reference,
		locatorservice.WithLogger(log),
		locatorservice.WithMetrics(locatormetrics.New()),
		locatorservice.WithAuditPublisher(auditPub),
		locatorservice.WithGeoIndex(geoIndex),
		locatorservice.WithDispatcher(dispatcher),
	)
	if err != nil {
		return err
	}

	router := buildRouter(cfg, log, routerDeps{
		users:     usershandler.New(usersSvc, geoIndex, log),
		donation:  donationhandler.New(donationSvc, log),
		inventory: inventoryhandler.New(inventorySvc, log),
		locator:   locatorhandler.New(locatorSvc, log),
		reference: referencehandler.New(stores.reference),
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting bloodlink server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return runExpirySweeper(ctx, inventorySvc, cfg.SweepInterval, log)
	})

	return g.Wait()
}

type storeSet struct {
	users         usersservice.UserStore
	registrations donationservice.RegistrationStore
	healthChecks  donationservice.HealthCheckStore
	processes     donationservice.ProcessStore
	units         inventoryservice.UnitStore
	thresholds    inventoryservice.ThresholdStore
	reference     referencestore.Store
}

func buildStores(cfg config.Server, log *slog.Logger) (*storeSet, func(), error) {
	if cfg.PostgresURL == "" {
		log.Warn("no POSTGRES_URL configured, using in-memory stores")
		return &storeSet{
			users:         userstore.NewInMemory(),
			registrations: regstore.NewInMemory(),
			healthChecks:  hcstore.NewInMemory(),
			processes:     procstore.NewInMemory(),
			units:         unitstore.NewInMemory(),
			thresholds:    thresholdstore.NewInMemory(),
			reference:     referencestore.NewInMemory(),
		}, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := database.EnsureSchema(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	reference := referencestore.NewPostgres(db)
	if err := reference.Seed(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}

	return &storeSet{
		users:         userstore.NewPostgres(db),
		registrations: regstore.NewPostgres(db),
		healthChecks:  hcstore.NewPostgres(db),
		processes:     procstore.NewPostgres(db),
		units:         unitstore.NewPostgres(db),
		thresholds:    thresholdstore.NewPostgres(db),
		reference:     reference,
	}, func() { db.Close() }, nil
}

func buildDispatcher(ctx context.Context, cfg config.Server, log *slog.Logger) (notify.Dispatcher, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return notify.NewInMemory(), func() {}, nil
	}

	kafka, err := notify.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		return nil, nil, err
	}
	return kafka, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := kafka.Close(closeCtx); err != nil {
			log.Warn("kafka dispatcher close failed", "error", err)
		}
	}, nil
}

func buildGeoIndex(cfg config.Server, log *slog.Logger) (index.Index, error) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.Warn("no REDIS_URL configured, using in-memory geo index")
		return index.NewInMemory(), nil
	}
	return index.NewRedis(client), nil
}

type routerDeps struct {
	users     *usershandler.Handler
	donation  *donationhandler.Handler
	inventory *inventoryhandler.Handler
	locator   *locatorhandler.Handler
	reference *referencehandler.Handler
}

func buildRouter(cfg config.Server, log *slog.Logger, deps routerDeps) http.Handler {
	validator := middleware.NewJWTValidator(cfg.JWTSigningKey)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	deps.users.RegisterPublic(r)
	deps.reference.Register(r)

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log))
		deps.users.Register(r)
		deps.donation.Register(r)

		// Staff decisions and inventory access.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, requestcontext.RoleStaff, requestcontext.RoleAdmin))
			deps.donation.RegisterStaff(r)
			deps.inventory.RegisterStaff(r)
			deps.locator.RegisterStaff(r)
		})
	})

	// Admin routes gated by the static operations token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken))
		deps.inventory.RegisterAdmin(r)
	})

	return r
}

// runExpirySweeper transitions units past their shelf life on a fixed cadence
// so expiry does not depend on traffic.
func runExpirySweeper(ctx context.Context, svc *inventoryservice.Service, interval time.Duration, log *slog.Logger) error {
	sweeper := id.UserID(uuid.Nil)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			swept, err := svc.MarkExpired(ctx, sweeper)
			if err != nil {
				log.Warn("expiry sweep failed", "error", err)
				continue
			}
			if swept > 0 {
				log.Info("expiry sweep completed", "swept", swept)
			}
		}
	}
}
