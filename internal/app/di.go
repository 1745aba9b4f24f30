// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/outreach/internal/config"
	"github.com/allisson/outreach/internal/database"
	deliveryRepository "github.com/allisson/outreach/internal/delivery/repository"
	deliveryUsecase "github.com/allisson/outreach/internal/delivery/usecase"
	dispatchUsecase "github.com/allisson/outreach/internal/dispatch/usecase"
	draftHTTP "github.com/allisson/outreach/internal/draft/http"
	draftRepository "github.com/allisson/outreach/internal/draft/repository"
	draftUsecase "github.com/allisson/outreach/internal/draft/usecase"
	"github.com/allisson/outreach/internal/http"
	"github.com/allisson/outreach/internal/mail"
	"github.com/allisson/outreach/internal/metrics"
	"github.com/allisson/outreach/internal/ratelimit"
)

// DraftRepository is the full draft store surface: the operator API side and
// the dispatch worker side. Both SQL implementations satisfy it.
type DraftRepository interface {
	draftUsecase.DraftRepository
	dispatchUsecase.DraftRepository
}

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Repositories
	draftRepo    DraftRepository
	deliveryRepo deliveryUsecase.DeliveryRepository

	// Dispatch plumbing
	limiter *ratelimit.Limiter
	relay   dispatchUsecase.Relay

	// Use Cases
	draftUseCase    draftUsecase.UseCase
	deliveryUseCase deliveryUsecase.UseCase
	dispatchUseCase dispatchUsecase.UseCase

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Servers and Workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	draftRepoInit       sync.Once
	deliveryRepoInit    sync.Once
	limiterInit         sync.Once
	relayInit           sync.Once
	draftUseCaseInit    sync.Once
	deliveryUseCaseInit sync.Once
	dispatchUseCaseInit sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		txManager, err := c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
			return
		}
		c.txManager = txManager
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// DraftRepository returns the draft repository instance.
func (c *Container) DraftRepository() (DraftRepository, error) {
	c.draftRepoInit.Do(func() {
		repo, err := c.initDraftRepository()
		if err != nil {
			c.initErrors["draftRepo"] = err
			return
		}
		c.draftRepo = repo
	})
	if storedErr, exists := c.initErrors["draftRepo"]; exists {
		return nil, storedErr
	}
	return c.draftRepo, nil
}

// DeliveryRepository returns the delivery log repository instance.
func (c *Container) DeliveryRepository() (deliveryUsecase.DeliveryRepository, error) {
	c.deliveryRepoInit.Do(func() {
		repo, err := c.initDeliveryRepository()
		if err != nil {
			c.initErrors["deliveryRepo"] = err
			return
		}
		c.deliveryRepo = repo
	})
	if storedErr, exists := c.initErrors["deliveryRepo"]; exists {
		return nil, storedErr
	}
	return c.deliveryRepo, nil
}

// SendLimiter returns the rolling-window send rate limiter shared by the
// dispatch worker.
func (c *Container) SendLimiter() *ratelimit.Limiter {
	c.limiterInit.Do(func() {
		c.limiter = ratelimit.New(ratelimit.Config{
			MaxSends:      c.config.MaxSendsPerWindow,
			Window:        c.config.SendWindow,
			WarnThreshold: c.config.AcquireWarnThreshold,
		}, c.Logger())
	})
	return c.limiter
}

// Relay returns the configured mail relay.
func (c *Container) Relay() (dispatchUsecase.Relay, error) {
	c.relayInit.Do(func() {
		relay, err := c.initRelay()
		if err != nil {
			c.initErrors["relay"] = err
			return
		}
		c.relay = relay
	})
	if storedErr, exists := c.initErrors["relay"]; exists {
		return nil, storedErr
	}
	return c.relay, nil
}

// DraftUseCase returns the draft use case instance.
func (c *Container) DraftUseCase() (draftUsecase.UseCase, error) {
	c.draftUseCaseInit.Do(func() {
		useCase, err := c.initDraftUseCase()
		if err != nil {
			c.initErrors["draftUseCase"] = err
			return
		}
		c.draftUseCase = useCase
	})
	if storedErr, exists := c.initErrors["draftUseCase"]; exists {
		return nil, storedErr
	}
	return c.draftUseCase, nil
}

// DeliveryUseCase returns the delivery log use case instance.
func (c *Container) DeliveryUseCase() (deliveryUsecase.UseCase, error) {
	c.deliveryUseCaseInit.Do(func() {
		useCase, err := c.initDeliveryUseCase()
		if err != nil {
			c.initErrors["deliveryUseCase"] = err
			return
		}
		c.deliveryUseCase = useCase
	})
	if storedErr, exists := c.initErrors["deliveryUseCase"]; exists {
		return nil, storedErr
	}
	return c.deliveryUseCase, nil
}

// DispatchUseCase returns the dispatch worker use case instance.
func (c *Container) DispatchUseCase() (dispatchUsecase.UseCase, error) {
	c.dispatchUseCaseInit.Do(func() {
		useCase, err := c.initDispatchUseCase()
		if err != nil {
			c.initErrors["dispatchUseCase"] = err
			return
		}
		c.dispatchUseCase = useCase
	})
	if storedErr, exists := c.initErrors["dispatchUseCase"]; exists {
		return nil, storedErr
	}
	return c.dispatchUseCase, nil
}

// MetricsProvider returns the metrics provider instance.
// Returns nil when metrics are disabled in configuration.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
// Returns nil when metrics are disabled in configuration.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			return
		}
		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the operator API server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server instance.
// Returns nil when metrics are disabled in configuration.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP servers if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initDraftRepository creates the draft repository instance.
func (c *Container) initDraftRepository() (DraftRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for draft repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return draftRepository.NewMySQLDraftRepository(db), nil
	case "postgres":
		return draftRepository.NewPostgreSQLDraftRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initDeliveryRepository creates the delivery log repository instance.
func (c *Container) initDeliveryRepository() (deliveryUsecase.DeliveryRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for delivery repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return deliveryRepository.NewMySQLDeliveryRepository(db), nil
	case "postgres":
		return deliveryRepository.NewPostgreSQLDeliveryRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRelay creates the mail relay selected by configuration. The relay is
// not validated here: Validate runs when the dispatch worker starts, so the
// API server can come up with an incomplete relay configuration.
func (c *Container) initRelay() (dispatchUsecase.Relay, error) {
	switch c.config.RelayProvider {
	case "smtp":
		return mail.NewSMTPRelay(mail.SMTPConfig{
			Host:    c.config.SMTPHost,
			Port:    c.config.SMTPPort,
			User:    c.config.SMTPUser,
			Pass:    c.config.SMTPPass,
			From:    c.config.MailFrom,
			UseTLS:  c.config.SMTPUseTLS,
			Timeout: c.config.SendTimeout,
		}), nil
	case "resend":
		return mail.NewResendRelay(mail.ResendConfig{
			APIKey: c.config.ResendAPIKey,
			From:   c.config.MailFrom,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported relay provider: %s", c.config.RelayProvider)
	}
}

// initDraftUseCase creates the draft use case with all its dependencies.
func (c *Container) initDraftUseCase() (draftUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for draft use case: %w", err)
	}

	draftRepo, err := c.DraftRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get draft repository for draft use case: %w", err)
	}

	return draftUsecase.NewDraftUseCase(txManager, draftRepo), nil
}

// initDeliveryUseCase creates the delivery log use case with its dependencies.
func (c *Container) initDeliveryUseCase() (deliveryUsecase.UseCase, error) {
	deliveryRepo, err := c.DeliveryRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery repository for delivery use case: %w", err)
	}

	return deliveryUsecase.NewDeliveryUseCase(deliveryRepo), nil
}

// initDispatchUseCase creates the dispatch worker with all its dependencies.
func (c *Container) initDispatchUseCase() (dispatchUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for dispatch use case: %w", err)
	}

	draftRepo, err := c.DraftRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get draft repository for dispatch use case: %w", err)
	}

	deliveryRepo, err := c.DeliveryRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery repository for dispatch use case: %w", err)
	}

	relay, err := c.Relay()
	if err != nil {
		return nil, fmt.Errorf("failed to get relay for dispatch use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for dispatch use case: %w", err)
	}

	useCaseConfig := dispatchUsecase.Config{
		PollInterval:          c.config.PollInterval,
		BatchSize:             c.config.WorkerBatchSize,
		RetryCeiling:          c.config.RetryCeiling,
		BackoffBase:           c.config.BackoffBase,
		SendTimeout:           c.config.SendTimeout,
		StaleSendingThreshold: c.config.StaleSendingThreshold,
		RateWindow:            c.config.SendWindow,
	}

	useCase := dispatchUsecase.NewDispatchUseCase(
		useCaseConfig,
		txManager,
		draftRepo,
		deliveryRepo,
		c.SendLimiter(),
		relay,
		businessMetrics,
		c.Logger(),
	)

	return useCase, nil
}

// initHTTPServer creates the operator API server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	draftUseCase, err := c.DraftUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get draft use case for http server: %w", err)
	}

	deliveryUseCase, err := c.DeliveryUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery use case for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}
	var meterProvider metric.MeterProvider
	if provider != nil {
		meterProvider = provider.MeterProvider()
	}

	draftHandler := draftHTTP.NewDraftHandler(draftUseCase, deliveryUseCase, logger)

	return http.NewServer(c.config, logger, draftHandler, meterProvider), nil
}
