package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/subscription-sales/api"
	"github.com/frahmantamala/subscription-sales/internal"
	"github.com/frahmantamala/subscription-sales/internal/auth"
	"github.com/frahmantamala/subscription-sales/internal/confirmation"
	confirmationPostgres "github.com/frahmantamala/subscription-sales/internal/confirmation/postgres"
	"github.com/frahmantamala/subscription-sales/internal/core/database"
	"github.com/frahmantamala/subscription-sales/internal/core/events"
	"github.com/frahmantamala/subscription-sales/internal/gateway"
	"github.com/frahmantamala/subscription-sales/internal/lock"
	"github.com/frahmantamala/subscription-sales/internal/notify/kafka"
	"github.com/frahmantamala/subscription-sales/internal/plan"
	planPostgres "github.com/frahmantamala/subscription-sales/internal/plan/postgres"
	"github.com/frahmantamala/subscription-sales/internal/sale"
	salePostgres "github.com/frahmantamala/subscription-sales/internal/sale/postgres"
	"github.com/frahmantamala/subscription-sales/internal/transport"
	"github.com/frahmantamala/subscription-sales/internal/transport/rest"
	"github.com/frahmantamala/subscription-sales/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *gorm.DB
	Query  *sqlx.DB
	Redis  *redis.Client
	Bus    *events.EventBus
	Kafka  *kafka.Publisher
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting http server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Close()
	deps.Logger.Info("server stopped")
}

// Close drains in-flight event handlers before releasing their backends.
func (d *Dependencies) Close() {
	d.Bus.Wait()

	if d.Kafka != nil {
		if err := d.Kafka.Close(); err != nil {
			d.Logger.Error("kafka producer close error", "error", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.Query.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func setupRoutes(deps *Dependencies) error {
	log := deps.Logger
	baseHandler := transport.NewBaseHandler(log)

	gatewayClient, err := gateway.NewClient(gateway.Config{
		BaseURL:      deps.Config.Gateway.BaseURL,
		ClientID:     deps.Config.Gateway.ClientID,
		ClientSecret: deps.Config.Gateway.ClientSecret,
		Scope:        deps.Config.Gateway.Scope,
		Timeout:      deps.Config.Gateway.RequestTimeout(),
	}, log)
	if err != nil {
		return err
	}

	var locker sale.EmailLocker
	if deps.Redis != nil {
		locker = lock.NewEmailLocker(deps.Redis, lock.Config{
			Expiry: deps.Config.Gateway.CustomerLock.Expiry,
			Tries:  deps.Config.Gateway.CustomerLock.Tries,
		}, log)
	}

	confirmation.NewRecorder(confirmationPostgres.NewConfirmationRepository(deps.DB), log).
		RegisterEventHandlers(deps.Bus)
	if deps.Kafka != nil {
		deps.Kafka.RegisterEventHandlers(deps.Bus)
	}

	planRepo := planPostgres.NewPlanRepository(deps.DB)
	orders := salePostgres.NewOrderRepository(deps.DB)

	orchestrator := sale.NewOrchestrator(
		sale.NewIntakeValidator(planRepo, salePostgres.NewSellerRepository(deps.DB)),
		sale.NewCustomerResolver(gatewayClient, locker, log),
		sale.NewPersistenceCoordinator(orders, salePostgres.NewTransactionRepository(deps.DB)),
		gatewayClient,
		log,
	)
	saleService := sale.NewService(sale.ServiceDeps{
		Transactor:   database.NewTransactor(deps.DB),
		Customers:    salePostgres.NewCustomerRepository(deps.DB),
		Orders:       orders,
		Query:        salePostgres.NewSalesQuery(deps.Query),
		Gateway:      gatewayClient,
		Orchestrator: orchestrator,
		Events:       deps.Bus,
	}, log)

	checks := map[string]rest.CheckFunc{
		"database": deps.Query.PingContext,
	}
	if deps.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}
	}

	handlers := rest.Handlers{
		Health: rest.NewHealthHandler(checks),
		Auth:   auth.NewHandler(baseHandler, auth.NewVerifier(deps.Config.Security.JWTSecret, deps.Config.Security.Issuer)),
		Sale:   sale.NewHandler(baseHandler, saleService),
		Plan:   plan.NewHandler(baseHandler, plan.NewService(planRepo, log)),
	}

	return rest.RegisterAllRoutes(deps.Router, handlers, rest.Options{
		AllowedOrigins: deps.Config.Server.Origins(),
		OpenAPISpec:    api.Spec,
	}, log)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.L()

	db, query, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		Query:  query,
		Bus:    events.NewEventBus(log),
		Router: chi.NewRouter(),
	}

	if config.Gateway.CustomerLock.Enabled {
		deps.Redis = lock.NewRedisClient(config.Redis.Addr, config.Redis.Password, config.Redis.DB)
	}

	if config.Kafka.Enabled {
		producer, err := kafka.NewSyncProducer(config.Kafka.Brokers)
		if err != nil {
			_ = query.Close()
			return nil, err
		}
		deps.Kafka = kafka.NewPublisher(producer, config.Kafka.TopicPrefix, log)
	}

	return deps, nil
}

// initDB opens one pgx pool and shares it between gorm and the sqlx read model.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	return db, dbConn, nil
}
