package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DataFile       string
	HTTPAddr       string
	AllowedOrigins []string
	UploadDir      string

	// Optional SQL mirror of the roster. Empty driver disables it.
	MirrorDriver string
	MirrorDSN    string
}

// Load reads envFile (".env" when empty) if it exists and then builds the
// config from the environment. Variables already set win over the file.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("Warning: %s not loaded, using system environment variables", envFile)
	}

	cfg := &Config{
		DataFile:       GetEnv("DATA_FILE", "students.txt"),
		HTTPAddr:       GetEnv("HTTP_ADDR", ":8080"),
		AllowedOrigins: GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		UploadDir:      GetEnv("UPLOAD_DIR", "uploads"),
		MirrorDriver:   strings.ToLower(GetEnv("MIRROR_DRIVER", "")),
		MirrorDSN:      GetEnv("MIRROR_DSN", ""),
	}

	switch cfg.MirrorDriver {
	case "", "sqlite":
	case "postgres":
		if cfg.MirrorDSN == "" {
			cfg.MirrorDSN = PostgresDSN()
		}
	default:
		log.Printf("Warning: unknown MIRROR_DRIVER %q, mirror disabled", cfg.MirrorDriver)
		cfg.MirrorDriver = ""
	}
	if cfg.MirrorDriver == "sqlite" && cfg.MirrorDSN == "" {
		cfg.MirrorDSN = "students.db"
	}

	return cfg, nil
}

// PostgresDSN assembles a DSN from the DB_* variables.
func PostgresDSN() string {
	return "host=" + os.Getenv("DB_HOST") +
		" user=" + os.Getenv("DB_USER") +
		" password=" + os.Getenv("DB_PASSWORD") +
		" dbname=" + os.Getenv("DB_NAME") +
		" port=" + GetEnv("DB_PORT", "5432") +
		" sslmode=disable"
}

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetStringSliceEnv retrieves a comma-separated list or returns a default value
func GetStringSliceEnv(key string, defaultValue []string) []string {
	var result []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
