package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/visitdesk/visitdesk/internal/config"
	"github.com/visitdesk/visitdesk/internal/domain/identity"
	"github.com/visitdesk/visitdesk/internal/domain/visit"
	"github.com/visitdesk/visitdesk/internal/platform/auth"
	"github.com/visitdesk/visitdesk/internal/platform/blobstore"
	"github.com/visitdesk/visitdesk/internal/platform/db"
	"github.com/visitdesk/visitdesk/internal/platform/middleware"
	"github.com/visitdesk/visitdesk/internal/platform/response"
	"github.com/visitdesk/visitdesk/migrations"
)

// maxBodySize bounds request bodies; profile uploads are the largest.
const maxBodySize = "6M"

func main() {
	rootCmd := &cobra.Command{
		Use:   "visitdesk-server",
		Short: "Clinic visit scheduling API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// migrationFiles picks the on-disk directory when one is given and the
// migrations compiled into the binary otherwise.
func migrationFiles(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

// connect loads config and opens a pool for the one-shot commands.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			migrator := db.NewMigratorFS(pool, migrationFiles(dir), newLogger(cfg.Env))
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to the embedded set)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			migrator := db.NewMigratorFS(pool, migrationFiles(dir), newLogger(cfg.Env))
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to the embedded set)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo clinicians, patients and visits",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			n, err := seed(ctx, pool, visit.DateOf(time.Now().In(loc)))
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Printf("Seeded demo accounts and %d visit(s).\n", n)
			return nil
		},
	}
}

func newValidator() (*response.Validator, error) {
	v := response.NewValidator()
	if err := visit.RegisterValidations(v); err != nil {
		return nil, fmt.Errorf("register visit validations: %w", err)
	}
	if err := identity.RegisterValidations(v); err != nil {
		return nil, fmt.Errorf("register identity validations: %w", err)
	}
	return v, nil
}

// newBlobStore keeps uploads on disk under dir, or in memory when dir is empty.
func newBlobStore(dir string) (blobstore.Store, error) {
	if dir == "" {
		return blobstore.NewMemoryStore(), nil
	}
	return blobstore.NewFileStore(dir)
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rl.RequestsPerSecond <= 0 {
		rl = middleware.DefaultRateLimitConfig()
	}
	return rl
}

func runServer() error {
	logger := newLogger(os.Getenv("ENV"))

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	loc, _ := cfg.Location()

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	blobs, err := newBlobStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open upload store")
	}

	validator, err := newValidator()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build validator")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = response.ErrorHandler(logger)
	e.Validator = validator

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit(maxBodySize))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }))
	blobstore.NewHandler(blobs).RegisterRoutes(e)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)

	identitySvc := identity.NewService(identity.NewRepoPG(pool), tokens, blobs, logger)
	visitSvc := visit.NewService(visit.NewRepoPG(pool), visit.NewFilterBuilder(loc), logger, cfg.DefaultPageSize)

	// API groups
	api := e.Group("/api", middleware.RateLimit(rateLimitConfig(cfg)))
	clinician := api.Group("/clinician", auth.RequireRole(auth.RoleClinician, tokens, identitySvc))
	patient := api.Group("/patient", auth.RequireRole(auth.RolePatient, tokens, identitySvc))

	identity.NewHandler(identitySvc).RegisterRoutes(api, clinician, patient)
	visit.NewHandler(visitSvc, visit.Policy{
		NotFoundStatus:  cfg.VisitNotFoundStatus,
		UnmatchedStatus: cfg.VisitUnmatchedStatus,
	}).RegisterRoutes(clinician, patient)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("timezone", loc.String()).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
