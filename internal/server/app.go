// Package server initializes and runs the account server: it loads the
// schema, builds the credential and access-control services, serves the HTTP
// API and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophaccount/internal/logging"
	"github.com/dmitrijs2005/gophaccount/internal/server/auth"
	"github.com/dmitrijs2005/gophaccount/internal/server/config"
	"github.com/dmitrijs2005/gophaccount/internal/server/httpapi"
	"github.com/dmitrijs2005/gophaccount/internal/server/metrics"
	"github.com/dmitrijs2005/gophaccount/internal/server/password"
	"github.com/dmitrijs2005/gophaccount/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophaccount/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	limiter *httpapi.LoginLimiter
	handler http.Handler
}

// Services bundles the pieces shared by the server and the operator CLI.
type Services struct {
	DB       *sql.DB
	Accounts *services.AccountService
	Tokens   *auth.TokenService
}

// NewServices opens the database, applies migrations and builds the account
// service from cfg. A fresh signing secret is generated on every call, so
// tokens never survive a restart.
func NewServices(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Services, error) {
	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	secret, err := auth.NewSecret(cfg.SecretKeySize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens := auth.NewTokenService(secret, cfg.AccessTokenValidityDuration)
	policy := password.NewPolicy(cfg.PasswordPolicy)
	hasher, err := password.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logCredentialSettings(ctx, logger, secret, tokens, policy, hasher)

	as := services.NewAccountService(db, rm, policy, hasher, tokens, logger.With("component", "accounts"))

	return &Services{DB: db, Accounts: as, Tokens: tokens}, nil
}

// logCredentialSettings reports the effective credential settings once at
// startup. The secret itself is never logged, only its size.
func logCredentialSettings(ctx context.Context, logger logging.Logger, secret auth.Secret,
	tokens *auth.TokenService, policy *password.Policy, hasher *password.BcryptHasher) {
	pc := policy.Config()
	logger.Info(ctx, "credential settings",
		"secret_bytes", secret.Len(),
		"token_ttl", tokens.TTL().String(),
		"bcrypt_cost", hasher.Cost(),
		"password_min_length", pc.MinLength,
		"password_max_length", pc.MaxLength,
		"password_require_uppercase", pc.RequireUppercase,
		"password_require_lowercase", pc.RequireLowercase,
		"password_require_digits", pc.RequireDigits,
		"password_require_spaces", pc.RequireSpaces,
	)
}

// NewLogger builds the JSON logger used by every binary and reports the
// configuration warnings collected while loading cfg.
func NewLogger(w io.Writer, cfg *config.Config) logging.Logger {
	logger := logging.NewJSONLogger(w, cfg.LogLevel)
	for _, warning := range cfg.Warnings {
		logger.Warn(context.Background(), "config", "warning", warning)
	}
	return logger
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := NewLogger(os.Stdout, c)

	svc, err := NewServices(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	limiter := httpapi.NewLoginLimiter(c.LoginRateLimit, logger, collector)

	handler := httpapi.NewRouter(&httpapi.RouterDeps{
		Accounts:          svc.Accounts,
		Tokens:            svc.Tokens,
		Logger:            logger,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
		LoginLimiter:      limiter,
		CORSAllowedOrigin: c.CORSAllowedOrigin,
		Environment:       c.Environment,
	})

	return &App{config: c, logger: logger, db: svc.DB, limiter: limiter, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.handler, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the limiter and the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "address", app.config.EndpointAddrHTTP, "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.limiter.Stop()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
