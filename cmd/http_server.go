package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/travelcrm/travel-crm/api"
	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/application"
	applicationPostgres "github.com/travelcrm/travel-crm/internal/application/postgres"
	"github.com/travelcrm/travel-crm/internal/audit"
	auditPostgres "github.com/travelcrm/travel-crm/internal/audit/postgres"
	"github.com/travelcrm/travel-crm/internal/auth"
	authPostgres "github.com/travelcrm/travel-crm/internal/auth/postgres"
	"github.com/travelcrm/travel-crm/internal/client"
	clientPostgres "github.com/travelcrm/travel-crm/internal/client/postgres"
	"github.com/travelcrm/travel-crm/internal/core/events"
	"github.com/travelcrm/travel-crm/internal/organization"
	organizationPostgres "github.com/travelcrm/travel-crm/internal/organization/postgres"
	"github.com/travelcrm/travel-crm/internal/transport/rest"
	"github.com/travelcrm/travel-crm/internal/transport/swagger"
	"github.com/travelcrm/travel-crm/internal/user"
	userPostgres "github.com/travelcrm/travel-crm/internal/user/postgres"
	"github.com/travelcrm/travel-crm/internal/web"
	"github.com/travelcrm/travel-crm/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const pgxDriver = "pgx"

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API and browser requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// Dependencies is the fully wired application.
type Dependencies struct {
	Config   *internal.Config
	SQL      *sql.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

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
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// drain audit writes before the pool goes away
		deps.EventBus.Wait()
		if err := deps.SQL.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWith(os.Stdout, config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	if err := auth.ValidateMatrix(); err != nil {
		return nil, err
	}
	if _, err := swagger.Load(context.Background(), api.OpenAPISpec); err != nil {
		return nil, err
	}

	sqlDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	codec, err := auth.NewTokenCodecFromConfig(config.Security)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	eventBus := events.NewEventBus(lg)
	auditRepo := auditPostgres.NewAuditRepository(gormDB)
	audit.NewRecorder(auditRepo, lg).RegisterEventHandlers(eventBus)

	hasher := auth.NewHasherFromConfig(config.Security.Argon2)
	userRepo := userPostgres.NewUserRepository(gormDB)
	tokenStore := authPostgres.NewTokenStore(sqlx.NewDb(sqlDB, pgxDriver))

	authService := auth.NewService(userRepo, hasher, codec, tokenStore, lg, auth.WithEventPublisher(eventBus))
	resolver := auth.NewResolver(codec, userRepo, lg, auth.WithBlacklist(tokenStore))
	guard := auth.NewGuard(resolver, lg, auth.WithGuardPublisher(eventBus))

	userService := user.NewService(userRepo, hasher, eventBus, lg, user.WithSessionRevoker(tokenStore))
	organizationRepo := organizationPostgres.NewOrganizationRepository(gormDB)
	organizationService := organization.NewService(organizationRepo, lg)
	clientService := client.NewService(clientPostgres.NewClientRepository(gormDB), organizationRepo, lg)
	applicationService := application.NewService(applicationPostgres.NewApplicationRepository(gormDB), clientService, userRepo, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Dependencies{
		DB:            sqlDB,
		Config:        config,
		Logger:        lg,
		Guard:         guard,
		Auth:          auth.NewHandler(authService, lg),
		Users:         user.NewHandler(userService, lg),
		Organizations: organization.NewHandler(organizationService, lg),
		Clients:       client.NewHandler(clientService, lg),
		Applications:  application.NewHandler(applicationService, lg),
		Audit:         audit.NewHandler(auditRepo, lg),
		Web:           web.NewHandler(authService, userService, resolver, config.Security, lg),
	})

	return &Dependencies{
		Config:   config,
		SQL:      sqlDB,
		Router:   router,
		EventBus: eventBus,
		Logger:   lg,
	}, nil
}

// initDB opens the shared pgx connection pool used by both gorm and sqlx.
func initDB(cfg internal.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(pgxDriver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// verify connection; close underlying *sql.DB on failure
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func initGorm(sqlDB *sql.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
}
