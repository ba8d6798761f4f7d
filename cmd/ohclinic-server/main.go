package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ohclinic/ohclinic/internal/config"
	"github.com/ohclinic/ohclinic/internal/domain/clinic"
	"github.com/ohclinic/ohclinic/internal/domain/company"
	"github.com/ohclinic/ohclinic/internal/domain/declaration"
	"github.com/ohclinic/ohclinic/internal/domain/msreport"
	"github.com/ohclinic/ohclinic/internal/domain/patient"
	"github.com/ohclinic/ohclinic/internal/domain/surveillance"
	"github.com/ohclinic/ohclinic/internal/domain/usechh"
	"github.com/ohclinic/ohclinic/internal/platform/auth"
	"github.com/ohclinic/ohclinic/internal/platform/blobstore"
	"github.com/ohclinic/ohclinic/internal/platform/db"
	"github.com/ohclinic/ohclinic/internal/platform/middleware"
	"github.com/ohclinic/ohclinic/internal/platform/pdf"
	"github.com/ohclinic/ohclinic/internal/platform/session"
	"github.com/ohclinic/ohclinic/internal/platform/web"
)

const version = "0.1.0"

// Request body limits. Header documents may be up to blobstore.MaxFileSize
// plus multipart framing; everything else is a urlencoded form.
const (
	formBodyLimit   = "2M"
	uploadBodyLimit = "8M"
	uploadPrefix    = "/company_form/header_document"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ohclinic-server",
		Short: "Occupational health clinic server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	return rootCmd
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.ClinicTimeZone)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic web server",
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
			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = cfg.MigrationsDir
			}
			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = cfg.MigrationsDir
			}
			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
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
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage clinic users",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a login, optionally with a medical staff identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}

			var staff *auth.StaffProfile
			if name, _ := cmd.Flags().GetString("full-name"); name != "" {
				mmc, _ := cmd.Flags().GetString("mmc")
				dosh, _ := cmd.Flags().GetString("dosh")
				staff = &auth.StaffProfile{FullName: name, MMCNo: mmc, DOSHRegNo: dosh}
			}

			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := auth.NewService(auth.NewUserRepo(pool), newLogger(cfg.Env))
			u, err := svc.CreateUser(ctx, username, password, role, staff)
			if err != nil {
				return err
			}
			fmt.Printf("Created user %s (id %d, role %s).\n", u.Username, u.ID, u.Role)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Login name")
	createCmd.Flags().String("password", "", "Password")
	createCmd.Flags().String("role", session.RoleDoctor, "Role (Doctor, Nurse, Admin)")
	createCmd.Flags().String("full-name", "", "Medical staff full name")
	createCmd.Flags().String("mmc", "", "MMC registration number")
	createCmd.Flags().String("dosh", "", "DOSH registration number")
	cmd.AddCommand(createCmd)

	return cmd
}

// bodyLimits applies the upload limit to header document routes and the form
// limit everywhere else.
func bodyLimits() echo.MiddlewareFunc {
	return middleware.BodyLimit(middleware.BodyLimitConfig{
		Default:  formBodyLimit,
		ByPrefix: map[string]string{uploadPrefix: uploadBodyLimit},
	})
}

func clinicDefaults(cfg *config.Config) clinic.Profile {
	return clinic.Profile{
		ClinicName: cfg.ClinicName,
		Address:    cfg.ClinicAddress,
		Phone:      cfg.ClinicPhone,
		DoctorName: cfg.ClinicDoctorName,
		DoctorMMC:  cfg.ClinicDoctorMMC,
		DoctorDOSH: cfg.ClinicDoctorDOSH,
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.ClinicTimeZone)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	applied, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	if applied > 0 {
		logger.Info().Int("count", applied).Msg("applied migrations")
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse templates")
	}
	pdfClient, err := pdf.New(pdf.Options{
		BaseURL:   cfg.PDFRendererURL,
		PaperSize: cfg.PDFPaperSize,
		Landscape: cfg.Landscape(),
		Timeout:   cfg.PDFTimeout,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid PDF renderer settings")
	}
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionMaxAge, cfg.IsProduction())
	headers := blobstore.NewHeaderDocs(cfg.HeaderDocDir)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = web.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(bodyLimits())
	e.Use(middleware.Sanitize(middleware.SanitizeConfig{Skipper: auth.Skipper, Logger: logger}))
	e.Use(auth.RequireSession(sessions))

	e.StaticFS("/static", web.StaticFS())
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/company_list")
	})

	// Services
	clinicSvc := clinic.NewService(clinic.NewRepo(pool), clinicDefaults(cfg), logger)
	companySvc := company.NewService(company.NewRepo(pool), logger)
	patientSvc := patient.NewService(patient.NewRepo(pool), logger)
	resolver := declaration.NewResolver(declaration.NewRepo(pool), logger)
	survSvc := surveillance.NewService(surveillance.NewRepo(pool), patientSvc, resolver, logger)
	reportSvc := msreport.NewService(msreport.NewRepo(pool), companySvc, patientSvc, survSvc, clinicSvc, headers, logger)
	usechhSvc := usechh.NewService(survSvc, patientSvc, companySvc, resolver, clinicSvc, headers, logger)
	authSvc := auth.NewService(auth.NewUserRepo(pool), logger)

	// Routes
	auth.NewHandler(authSvc, sessions).RegisterRoutes(e)

	app := e.Group("")
	company.NewHandler(companySvc, sessions).RegisterRoutes(app)
	patient.NewHandler(patientSvc, companySvc, sessions).RegisterRoutes(app)
	surveillance.NewHandler(survSvc, patientSvc, companySvc, clinicSvc, sessions).RegisterRoutes(app)
	msreport.NewHandler(reportSvc, renderer, pdfClient, sessions, logger).RegisterRoutes(app)
	usechh.NewHandler(usechhSvc, renderer, pdfClient, logger).RegisterRoutes(app)
	blobstore.NewHandler(headers, sessions, logger).RegisterRoutes(app)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
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
