package config

import (
	"errors"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrMissingDatabaseURL is returned by Load when no storage connection string is configured.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL (or MONGODB_URL) is required")

// DefaultCSPSources are the CDNs the client shell loads three.js and its
// typeface from.
var DefaultCSPSources = []string{
	"https://threejs.org",
	"https://cdn.jsdelivr.net",
	"https://unpkg.com",
}

type Config struct {
	DatabaseURL    string        // mongodb://, mongodb+srv://, postgres:// or postgresql://
	RedisURI       string        // optional; enables shared list cache and cross-instance live feed
	Port           string
	StaticDir      string        // client shell files, index.html is the fallback document
	AllowedOrigins []string      // CORS: from ALLOWED_ORIGINS, "*" when unset
	AllowedHost    string        // production Host header check; empty disables it
	CSPSources     []string      // extra Content-Security-Policy sources for the client shell
	Environment    string        // ENV: production, development, etc.
	LogLevel       string
	RetryDelay     time.Duration // fixed delay between storage connection attempts
	CacheTTL       time.Duration // name list cache lifetime
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	databaseURL := strings.TrimSpace(getEnv("DATABASE_URL", getEnv("MONGODB_URL", getEnv("MONGODB_URI", ""))))
	if databaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	return &Config{
		DatabaseURL:    databaseURL,
		RedisURI:       strings.TrimSpace(getEnv("REDIS_URI", "")),
		Port:           getEnv("PORT", "3000"),
		StaticDir:      getEnv("STATIC_DIR", "./public"),
		AllowedOrigins: allowedOrigins,
		AllowedHost:    strings.TrimSpace(getEnv("ALLOWED_HOST", "")),
		CSPSources:     getList("CSP_EXTRA_SOURCES", DefaultCSPSources),
		Environment:    strings.ToLower(strings.TrimSpace(getEnv("ENV", "development"))),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RetryDelay:     getDuration("DB_RETRY_DELAY", 5*time.Second),
		CacheTTL:       getDuration("CACHE_TTL", 30*time.Second),
	}, nil
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// MaskedDatabaseURL returns the connection string with the password hidden, for logging.
func (c *Config) MaskedDatabaseURL() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "<unparseable connection string>"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go duration strings ("5s", "1m") and falls back on anything unparseable.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// getList splits a space or comma separated variable. Unset uses defaultValue;
// set but blank yields an empty list.
func getList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return append([]string(nil), defaultValue...)
	}
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
