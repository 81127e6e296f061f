package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tanc-norcal/membership-api/internal/adapters/cloudinary"
)

// Config is the deployment-provided runtime configuration.
type Config struct {
	Port string

	// AuthMode selects bearer-token verification ("token", default) or the
	// local dev shim ("dev", X-Debug-Subject header).
	AuthMode   string
	DevSubject string

	AuthSecret []byte
	TokenTTL   time.Duration

	StorageBackend string // "memory" (default) or "postgres"
	DatabaseURL    string

	Cloudinary cloudinary.Config

	AllowedOrigins []string
}

// LoadFromEnv reads the configuration. Identity/auth settings are hard
// requirements outside dev mode; media settings are not — a deployment
// without Cloudinary credentials runs with media disabled, and the caller is
// expected to log the returned warnings.
func LoadFromEnv() (Config, []string, error) {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		AuthMode:       getenv("AUTH_MODE", "token"),
		DevSubject:     getenv("DEV_SUBJECT", "dev|local"),
		TokenTTL:       24 * time.Hour,
		StorageBackend: getenv("STORAGE_BACKEND", "memory"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Cloudinary: cloudinary.Config{
			CloudName:    strings.TrimSpace(os.Getenv("CLOUDINARY_CLOUD_NAME")),
			UploadPreset: strings.TrimSpace(os.Getenv("CLOUDINARY_UPLOAD_PRESET")),
			APIKey:       strings.TrimSpace(os.Getenv("CLOUDINARY_API_KEY")),
			APISecret:    strings.TrimSpace(os.Getenv("CLOUDINARY_API_SECRET")),
		},
	}

	var warnings []string

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, nil, fmt.Errorf("TOKEN_TTL must be a duration (e.g. 24h): %w", err)
		}
		cfg.TokenTTL = d
	}

	secret := os.Getenv("AUTH_SECRET")
	switch cfg.AuthMode {
	case "dev":
		// Local runs bypass token verification entirely.
	case "token":
		if secret == "" {
			return Config{}, nil, fmt.Errorf("missing required env var: AUTH_SECRET")
		}
	default:
		return Config{}, nil, fmt.Errorf("AUTH_MODE must be token or dev, got %q", cfg.AuthMode)
	}
	cfg.AuthSecret = []byte(secret)

	if cfg.StorageBackend == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, nil, fmt.Errorf("STORAGE_BACKEND=postgres requires DATABASE_URL")
	}

	if cfg.Cloudinary.CloudName == "" {
		warnings = append(warnings, "CLOUDINARY_CLOUD_NAME not set; media uploads disabled")
	} else if cfg.Cloudinary.UploadPreset == "" && (cfg.Cloudinary.APIKey == "" || cfg.Cloudinary.APISecret == "") {
		warnings = append(warnings, "no CLOUDINARY_UPLOAD_PRESET or API credentials; media uploads disabled")
	}

	origins := getenv("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg, warnings, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
