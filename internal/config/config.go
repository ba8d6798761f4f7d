package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir  string        `mapstructure:"MIGRATIONS_DIR"`
	SessionSecret  string        `mapstructure:"SESSION_SECRET"`
	SessionMaxAge  int           `mapstructure:"SESSION_MAX_AGE"`
	PDFRendererURL string        `mapstructure:"PDF_RENDERER_URL"`
	PDFPaperSize   string        `mapstructure:"PDF_PAPER_SIZE"`
	PDFOrientation string        `mapstructure:"PDF_ORIENTATION"`
	PDFTimeout     time.Duration `mapstructure:"PDF_TIMEOUT"`
	HeaderDocDir   string        `mapstructure:"HEADER_DOC_DIR"`

	ClinicName       string `mapstructure:"CLINIC_NAME"`
	ClinicAddress    string `mapstructure:"CLINIC_ADDRESS"`
	ClinicPhone      string `mapstructure:"CLINIC_PHONE"`
	ClinicDoctorName string `mapstructure:"CLINIC_DOCTOR_NAME"`
	ClinicDoctorMMC  string `mapstructure:"CLINIC_DOCTOR_MMC"`
	ClinicDoctorDOSH string `mapstructure:"CLINIC_DOCTOR_DOSH"`
	// ClinicTimeZone is the database session time zone; declaration dates
	// are matched to examination days in it.
	ClinicTimeZone string `mapstructure:"CLINIC_TIMEZONE"`
}

var boundKeys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "MIGRATIONS_DIR",
	"SESSION_SECRET", "SESSION_MAX_AGE",
	"PDF_RENDERER_URL", "PDF_PAPER_SIZE", "PDF_ORIENTATION", "PDF_TIMEOUT",
	"HEADER_DOC_DIR",
	"CLINIC_NAME", "CLINIC_ADDRESS", "CLINIC_PHONE",
	"CLINIC_DOCTOR_NAME", "CLINIC_DOCTOR_MMC", "CLINIC_DOCTOR_DOSH", "CLINIC_TIMEZONE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("SESSION_MAX_AGE", 8*60*60)
	v.SetDefault("PDF_RENDERER_URL", "http://localhost:3000")
	v.SetDefault("PDF_PAPER_SIZE", "A4")
	v.SetDefault("PDF_ORIENTATION", "portrait")
	v.SetDefault("PDF_TIMEOUT", "30s")
	v.SetDefault("HEADER_DOC_DIR", "./data/headers")
	v.SetDefault("CLINIC_NAME", "Occupational Health Clinic")
	v.SetDefault("CLINIC_ADDRESS", "-")
	v.SetDefault("CLINIC_PHONE", "-")
	v.SetDefault("CLINIC_DOCTOR_NAME", "Occupational Health Doctor")
	v.SetDefault("CLINIC_DOCTOR_MMC", "-")
	v.SetDefault("CLINIC_DOCTOR_DOSH", "-")
	v.SetDefault("CLINIC_TIMEZONE", "Asia/Kuala_Lumpur")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range boundKeys {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.PDFOrientation = strings.ToLower(strings.TrimSpace(cfg.PDFOrientation))

	if cfg.IsDev() && cfg.SessionSecret == "" {
		log.Println("WARNING: SESSION_SECRET is empty, using an insecure development secret.")
		cfg.SessionSecret = "development-only-session-secret"
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Landscape reports whether generated PDFs use landscape orientation.
func (c *Config) Landscape() bool {
	return c.PDFOrientation == "landscape"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.PDFOrientation != "portrait" && c.PDFOrientation != "landscape" {
		return fmt.Errorf("PDF_ORIENTATION must be \"portrait\" or \"landscape\", got %q", c.PDFOrientation)
	}
	if _, err := time.LoadLocation(c.ClinicTimeZone); err != nil {
		return fmt.Errorf("CLINIC_TIMEZONE %q is not a known time zone", c.ClinicTimeZone)
	}
	if c.PDFTimeout <= 0 {
		return fmt.Errorf("PDF_TIMEOUT must be positive")
	}
	if !c.IsDev() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required when ENV=%q", c.Env)
	}
	if c.IsProduction() && len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters in production")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
