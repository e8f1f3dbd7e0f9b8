package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"timebank/internal/domain/absence"
	"timebank/internal/domain/audit"
	"timebank/internal/domain/auth"
	"timebank/internal/domain/notifications"
	"timebank/internal/domain/settings"
	"timebank/internal/domain/timeentry"
	"timebank/internal/platform/config"
	"timebank/internal/platform/db"
	"timebank/internal/platform/email"
	"timebank/internal/platform/i18n"
	"timebank/internal/platform/jobs"
	"timebank/internal/platform/metrics"
	mongodb "timebank/internal/platform/mongo"
	"timebank/internal/transport/http/api"
	absenceshandler "timebank/internal/transport/http/handlers/absences"
	audithandler "timebank/internal/transport/http/handlers/audit"
	authhandler "timebank/internal/transport/http/handlers/auth"
	entrieshandler "timebank/internal/transport/http/handlers/entries"
	notificationshandler "timebank/internal/transport/http/handlers/notifications"
	reportshandler "timebank/internal/transport/http/handlers/reports"
	settingshandler "timebank/internal/transport/http/handlers/settings"
	workdayhandler "timebank/internal/transport/http/handlers/workday"
	"timebank/internal/transport/http/middleware"
	"timebank/migrations"
)

const shutdownTimeout = 10 * time.Second

// Services is everything the HTTP layer talks to.
type Services struct {
	Auth          *auth.Service
	Entries       *timeentry.Service
	Settings      *settings.Service
	Absences      *absence.Service
	Notifications *notifications.Service
	Audit         *audit.Service
	Metrics       *metrics.Collector
	Idempotency   middleware.IdempotencyAPI
	Perms         middleware.PermissionStore
	// Ready reports backend health for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
}

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Mongo    *mongodb.DB
	Services Services
	Jobs     *jobs.Service
	Router   http.Handler
}

// New connects the backends, applies migrations and the seed when enabled,
// and assembles the services and router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app := &App{Config: cfg, DB: pool}

	if cfg.RunMigrations {
		applied, err := db.Migrate(ctx, pool, migrations.FS)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		for _, version := range applied {
			log.Printf("migration applied: %s", version)
		}
	}

	var entryStore timeentry.StoreAPI = timeentry.NewStore(pool)
	var settingsStore settings.StoreAPI = settings.NewStore(pool)
	if cfg.StoreBackend == config.BackendMongo {
		app.Mongo, err = mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			app.Close()
			return nil, err
		}
		mongoEntries, err := timeentry.NewMongoStore(ctx, app.Mongo.Collection(mongodb.CollectionTimeEntries))
		if err != nil {
			app.Close()
			return nil, err
		}
		entryStore = mongoEntries
		settingsStore = settings.NewMongoStore(app.Mongo.Collection(mongodb.CollectionSettings))
	}

	collector := metrics.New()
	settingsSvc := settings.NewService(settingsStore)
	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL)
	notifySvc := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom)
	entriesSvc := timeentry.NewService(entryStore, settingsSvc, loc)
	idempotency := middleware.NewIdempotencyStore(pool)

	app.Services = Services{
		Auth:          authSvc,
		Entries:       entriesSvc,
		Settings:      settingsSvc,
		Absences:      absence.NewService(absence.NewStore(pool), settingsSvc, notifySvc, authSvc),
		Notifications: notifySvc,
		Audit:         audit.New(audit.NewStore(pool)),
		Metrics:       collector,
		Idempotency:   idempotency,
		Perms:         auth.StaticPermissions{},
		Ready:         app.ping,
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, authSvc, cfg); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	app.Jobs = jobs.New(pool, cfg, &jobs.Reminders{
		Settings: settingsSvc,
		Entries:  entriesSvc,
		Notify:   notifySvc,
		Metrics:  collector,
		Location: loc,
	})
	app.Jobs.Keys = idempotency
	app.Router = NewRouter(cfg, app.Services)
	return app, nil
}

func (a *App) ping(ctx context.Context) error {
	if err := a.DB.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if a.Mongo != nil {
		if err := a.Mongo.Ping(ctx); err != nil {
			return fmt.Errorf("mongodb: %w", err)
		}
	}
	return nil
}

func (a *App) Close() {
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Mongo.Close(ctx); err != nil {
			log.Printf("mongodb disconnect failed: %v", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// NewRouter builds the HTTP surface over svc.
func NewRouter(cfg config.Config, svc Services) http.Handler {
	var recorder middleware.RequestRecorder
	if cfg.MetricsEnabled && svc.Metrics != nil {
		recorder = svc.Metrics
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Logger(recorder))
	router.Use(chimw.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Locale)
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := svc.Ready(ctx); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if recorder != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, svc.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authHandler := authhandler.NewHandler(svc.Auth, svc.Audit)
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/auth/me", authHandler.HandleMe)

			workdayhandler.NewHandler(svc.Entries, svc.Audit, svc.Metrics, svc.Idempotency).RegisterRoutes(r)
			entrieshandler.NewHandler(svc.Entries, svc.Audit).RegisterRoutes(r)
			settingshandler.NewHandler(svc.Settings, svc.Audit).RegisterRoutes(r)
			absenceshandler.NewHandler(svc.Absences, svc.Audit, svc.Perms).RegisterRoutes(r)
			notificationshandler.NewHandler(svc.Notifications).RegisterRoutes(r)
			reportshandler.NewHandler(svc.Entries, svc.Settings, svc.Perms).RegisterRoutes(r)
			audithandler.NewHandler(svc.Audit, svc.Perms).RegisterRoutes(r)
		})
	})

	return router
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func Run(cfg config.Config) error {
	if err := i18n.Init(cfg.DefaultLocale); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("timebank server listening on %s (store=%s)", cfg.Addr, cfg.StoreBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
