package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	ShutdownTimeout   time.Duration

	// APIBaseURL is the admin backend root, including its /api prefix.
	APIBaseURL      string
	APITimeout      time.Duration
	RefreshTimeout  time.Duration
	IdentityRefetch time.Duration

	AccessCookie  string
	RefreshCookie string

	// Bots are "Name=https://health.url" entries for the bots view.
	Bots []string

	EventsOrigins []string

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() (Config, error) {
	cfg := Config{
		HTTPAddr:  EnvString("CONSOLE_HTTP_ADDR", "127.0.0.1:3000"),
		LogLevel:  EnvString("CONSOLE_LOG_LEVEL", "info"),
		LogFormat: EnvString("CONSOLE_LOG_FORMAT", "auto"),

		ReadHeaderTimeout: EnvDuration("CONSOLE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("CONSOLE_HTTP_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:      EnvDuration("CONSOLE_HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       EnvDuration("CONSOLE_HTTP_IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    EnvInt("CONSOLE_HTTP_MAX_HEADER_BYTES", 1<<20),
		ShutdownTimeout:   EnvDuration("CONSOLE_SHUTDOWN_TIMEOUT", 10*time.Second),

		APIBaseURL:      EnvString("CONSOLE_API_BASE_URL", ""),
		APITimeout:      EnvDuration("CONSOLE_API_TIMEOUT", 15*time.Second),
		RefreshTimeout:  EnvDuration("CONSOLE_REFRESH_TIMEOUT", 0),
		IdentityRefetch: EnvDuration("CONSOLE_IDENTITY_REFETCH", 5*time.Minute),

		AccessCookie:  EnvString("CONSOLE_ACCESS_COOKIE", "AccessToken"),
		RefreshCookie: EnvString("CONSOLE_REFRESH_COOKIE", "RefreshToken"),

		Bots:          EnvList("CONSOLE_BOTS", nil),
		EventsOrigins: EnvList("CONSOLE_EVENTS_ORIGINS", []string{"http://localhost", "http://127.0.0.1"}),

		CORSAllowedOrigins:   EnvList("CONSOLE_CORS_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("CONSOLE_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("CONSOLE_CORS_MAX_AGE", 600),
	}
	return cfg, cfg.Validate()
}

// Validate reports configuration the console cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return errors.New("config: CONSOLE_API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: CONSOLE_API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "auto", "json", "pretty":
	default:
		return fmt.Errorf("config: CONSOLE_LOG_FORMAT must be auto, json or pretty, got %q", c.LogFormat)
	}
	return nil
}

// BaseURL returns the parsed backend root. Validate must have passed.
func (c Config) BaseURL() *url.URL {
	u, _ := url.Parse(strings.TrimRight(c.APIBaseURL, "/"))
	return u
}
