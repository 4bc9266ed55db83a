// Package runtime assembles the ledger service from configuration and
// manages the HTTP server lifecycle.
package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/holiman/uint256"
	_ "github.com/lib/pq"

	app "github.com/R3E-Network/ledger_layer/internal/app"
	"github.com/R3E-Network/ledger_layer/internal/app/events"
	"github.com/R3E-Network/ledger_layer/internal/app/httpapi"
	"github.com/R3E-Network/ledger_layer/internal/app/metrics"
	"github.com/R3E-Network/ledger_layer/internal/app/storage"
	"github.com/R3E-Network/ledger_layer/internal/app/storage/postgres"
	"github.com/R3E-Network/ledger_layer/internal/config"
	coretoken "github.com/R3E-Network/ledger_layer/internal/token"
	"github.com/R3E-Network/ledger_layer/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	app        *app.Application
	httpServer *http.Server
	db         *sql.DB
	redisPub   *events.RedisPublisher
}

// NewApplication constructs a fully wired application from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewApplicationWithConfig(cfg)
}

// NewApplicationWithConfig wires an application from an already-loaded
// configuration.
func NewApplicationWithConfig(cfg *config.Config) (*Application, error) {
	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	tokenCfg, err := tokenConfig(cfg.Token)
	if err != nil {
		return nil, err
	}

	store, db, err := buildStore(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("configure store: %w", err)
	}

	var pub events.Publisher
	var redisPub *events.RedisPublisher
	if cfg.Redis.Addr != "" {
		redisPub, err = events.NewRedisPublisher(events.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			return nil, fmt.Errorf("configure redis publisher: %w", err)
		}
		pub = redisPub
		log.WithField("addr", cfg.Redis.Addr).Info("publishing events to redis")
	} else {
		pub = events.NewBroadcaster()
	}

	application, err := app.New(context.Background(), app.Config{
		Token:         tokenCfg,
		AuditSchedule: cfg.Audit.Schedule,
	}, app.Stores{Ledger: store}, pub, log)
	if err != nil {
		return nil, err
	}

	handler := buildHandler(application, cfg, log)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		app:        application,
		httpServer: httpServer,
		db:         db,
		redisPub:   redisPub,
	}, nil
}

func tokenConfig(tc config.TokenConfig) (coretoken.Config, error) {
	initial, err := uint256.FromDecimal(tc.InitialSupply)
	if err != nil {
		return coretoken.Config{}, fmt.Errorf("token.initial_supply: %w", err)
	}
	max, err := uint256.FromDecimal(tc.MaxSupply)
	if err != nil {
		return coretoken.Config{}, fmt.Errorf("token.max_supply: %w", err)
	}
	return coretoken.Config{
		Name:          tc.Name,
		Symbol:        tc.Symbol,
		Decimals:      tc.Decimals,
		InitialSupply: initial,
		MaxSupply:     max,
		Owner:         coretoken.Address(tc.Owner),
	}, nil
}

func buildStore(dc config.DatabaseConfig, log *logger.Logger) (storage.LedgerStore, *sql.DB, error) {
	if dc.DSN == "" {
		log.Info("no database configured; using in-memory store")
		return nil, nil, nil
	}

	db, err := sql.Open("postgres", dc.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := postgres.New(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info("using postgres ledger store")
	return store, db, nil
}

func buildHandler(application *app.Application, cfg *config.Config, log *logger.Logger) http.Handler {
	var handler http.Handler = httpapi.NewHandler(application)
	handler = metrics.InstrumentHandler(handler)

	rl := httpapi.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	handler = rl.Handler(handler)

	auth := httpapi.Auth(httpapi.AuthConfig{
		APIKeys:   cfg.Auth.APIKeys,
		JWTSecret: cfg.Auth.JWTSecret,
	}, log)
	handler = auth(handler)

	if len(cfg.Server.AllowedOrigins) > 0 {
		handler = httpapi.CORS(cfg.Server.AllowedOrigins)(handler)
	}
	return handler
}

// Run starts background workers and the HTTP server, blocking until the
// context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server, workers and connections.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := a.app.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("error stopping background workers")
	}
	if a.redisPub != nil {
		if err := a.redisPub.Close(); err != nil {
			a.log.WithError(err).Warn("error closing redis publisher")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return nil
}
