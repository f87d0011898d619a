package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/samersec/deWin-i/internal/config"
	"github.com/samersec/deWin-i/internal/domain/account"
	"github.com/samersec/deWin-i/internal/domain/documents"
	"github.com/samersec/deWin-i/internal/domain/records"
	"github.com/samersec/deWin-i/internal/domain/scheduling"
	"github.com/samersec/deWin-i/internal/domain/triage"
	"github.com/samersec/deWin-i/internal/platform/auth"
	"github.com/samersec/deWin-i/internal/platform/db"
	"github.com/samersec/deWin-i/internal/platform/middleware"
	"github.com/samersec/deWin-i/internal/platform/notification"
	"github.com/samersec/deWin-i/internal/platform/session"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dewini-server",
		Short: "Dewini healthcare portal API server",
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
		Short: "Start the portal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
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
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create demo accounts for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := account.NewService(account.NewUserRepo(pool), account.NewResetTokenRepo(pool),
				notification.LogMailer{}, cfg.ResetBaseURL)

			seeds := []struct {
				role     auth.Role
				in       account.RegisterInput
				password string
			}{
				{auth.RoleDoctor, account.RegisterInput{
					Nom: "Johnson", Prenom: "Sarah", Email: "sarah@example.com", Password: "correct123",
				}, "correct123"},
				{auth.RolePatient, account.RegisterInput{
					Nom: "Martin", Prenom: "Bob", Email: "bob@example.com", Password: "patient123",
				}, "patient123"},
			}
			for _, s := range seeds {
				u, err := svc.Register(ctx, s.role, s.in)
				if err != nil {
					fmt.Printf("skipping %s: %v\n", s.in.Email, err)
					continue
				}
				fmt.Printf("created %s account %s (%s)\n", u.Role, u.Email, s.password)
			}
			return nil
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	log.Logger = logger

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Session store: Redis when configured, in-process otherwise.
	var store session.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid redis url")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		store = session.NewRedisStore(client)
		logger.Info().Msg("connected to redis")
	} else {
		store = session.NewMemoryStore()
		logger.Warn().Msg("REDIS_URL not set, sessions are held in memory")
	}

	var mailer notification.Mailer = notification.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer, err = notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build smtp mailer")
		}
	}

	blobs, err := documents.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload dir")
	}

	accountSvc := account.NewService(account.NewUserRepo(pool), account.NewResetTokenRepo(pool), mailer, cfg.ResetBaseURL)
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.SessionTTL)
	sessions := session.NewManager(store, accountSvc, cfg.SessionTTL, cfg.AuthTimeout)

	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepo(pool))
	recordsSvc := records.NewService(records.NewRecordRepo(pool))
	documentsSvc := documents.NewService(documents.NewDocumentRepo(pool), blobs)
	triageSvc := triage.NewService(triage.NewReportRepo(pool))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(auth.Middleware(tokens, sessions))
	if cfg.IsDev() {
		e.Use(auth.DevMiddleware())
	}

	api := e.Group("/api")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	account.NewHandler(accountSvc, sessions, tokens, cfg.IsProduction()).RegisterRoutes(api)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)
	records.NewHandler(recordsSvc).RegisterRoutes(api)
	documents.NewHandler(documentsSvc).RegisterRoutes(api)
	triage.NewHandler(triageSvc).RegisterRoutes(api)

	registerPages(e)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// registerPages wires the browser-facing navigation: the public entry pages
// and the role-guarded dashboard areas.
func registerPages(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		ident := auth.IdentityFromContext(c.Request().Context())
		if ident != nil {
			return c.Redirect(http.StatusSeeOther, auth.HomePath(ident.Role))
		}
		return c.Redirect(http.StatusSeeOther, auth.DefaultLoginPath)
	})

	page := func(name string) echo.HandlerFunc {
		return func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"page": name})
		}
	}

	e.GET("/login/patient", page("login-patient"))
	e.GET("/login/medecin", page("login-medecin"))
	e.GET("/signup/patient", page("signup-patient"))

	patientArea := e.Group("/patient", auth.Guard(auth.RolePatient))
	patientArea.GET("", page("patient-dashboard"))
	patientArea.GET("/*", page("patient-dashboard"))

	doctorArea := e.Group("/doctor", auth.Guard(auth.RoleDoctor))
	doctorArea.GET("", page("doctor-dashboard"))
	doctorArea.GET("/*", page("doctor-dashboard"))
}
