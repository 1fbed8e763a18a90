package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/guildgate/guildgate-auth/internal/domain"
)

// Key addressing modes for the credential store.
const (
	KeyModeSingle  = "single"
	KeyModeSubject = "subject"
)

// Credential store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPPort    string
	ServiceName string

	// OAuth client registration with the identity provider.
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthorizeURL string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string

	// Privileged service credential and admin API used for provisioning.
	ServiceToken    string
	AdminAPIBaseURL string
	GroupID         string
	RoleID          string

	// Credential store addressing and backend.
	KeyMode       string
	CredentialKey string
	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string

	HTTPTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RateLimitRPM      int
	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
// Missing deployment secrets abort startup; they are never downgraded to a
// runtime provider error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		ServiceName:          getEnv("SERVICE_NAME", "guildgate-auth"),
		ClientID:             strings.TrimSpace(os.Getenv("OAUTH_CLIENT_ID")),
		ClientSecret:         strings.TrimSpace(os.Getenv("OAUTH_CLIENT_SECRET")),
		RedirectURI:          strings.TrimSpace(os.Getenv("OAUTH_REDIRECT_URI")),
		AuthorizeURL:         getEnv("OAUTH_AUTHORIZE_URL", "https://discord.com/oauth2/authorize"),
		TokenURL:             getEnv("OAUTH_TOKEN_URL", "https://discord.com/api/oauth2/token"),
		UserInfoURL:          getEnv("OAUTH_USERINFO_URL", "https://discord.com/api/v10/users/@me"),
		Scopes:               getList("OAUTH_SCOPES", []string{"identify", "guilds.join"}),
		ServiceToken:         strings.TrimSpace(os.Getenv("SERVICE_TOKEN")),
		AdminAPIBaseURL:      getEnv("ADMIN_API_BASE_URL", "https://discord.com/api/v10"),
		GroupID:              strings.TrimSpace(os.Getenv("GROUP_ID")),
		RoleID:               strings.TrimSpace(os.Getenv("ROLE_ID")),
		KeyMode:              getEnv("CREDENTIAL_KEY_MODE", KeyModeSubject),
		CredentialKey:        getEnv("CREDENTIAL_KEY", "default"),
		StoreBackend:         getEnv("CREDENTIAL_STORE", StoreMemory),
		RedisAddr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getInt("REDIS_DB", 0),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		HTTPTimeout:          getDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second),
		ShutdownTimeout:      getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 600),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	for _, req := range []struct {
		field string
		value string
	}{
		{"OAUTH_CLIENT_ID", cfg.ClientID},
		{"OAUTH_CLIENT_SECRET", cfg.ClientSecret},
		{"OAUTH_REDIRECT_URI", cfg.RedirectURI},
		{"SERVICE_TOKEN", cfg.ServiceToken},
		{"GROUP_ID", cfg.GroupID},
	} {
		if req.value == "" {
			return Config{}, &domain.ConfigurationError{Field: req.field}
		}
	}

	switch cfg.KeyMode {
	case KeyModeSingle, KeyModeSubject:
	default:
		return Config{}, fmt.Errorf("CREDENTIAL_KEY_MODE must be %q or %q", KeyModeSingle, KeyModeSubject)
	}

	switch cfg.StoreBackend {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, &domain.ConfigurationError{Field: "DATABASE_URL"}
		}
	default:
		return Config{}, fmt.Errorf("CREDENTIAL_STORE must be one of %q, %q, %q", StoreMemory, StoreRedis, StorePostgres)
	}

	return cfg, nil
}

// Target returns the provisioning target configured for the deployment.
func (c Config) Target() domain.ProvisioningTarget {
	return domain.ProvisioningTarget{GroupID: c.GroupID, RoleID: c.RoleID}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
