package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

type Config struct {
	DatabaseURL    string
	JWTSecret      string
	JWTIssuer      string
	HTTPListenAddr string
	LogLevel       string
	CORSOrigins    []string
	MailcowHost    string
	MailcowAPIKey  string
	// CredentialsKey is the base64-encoded 32-byte AES key used to encrypt
	// mailbox and domain-admin passwords at rest.
	CredentialsKey string
	DevMode        bool
}

func Load() (*Config, error) {
	origins := getEnv("CORS_ORIGINS", "http://localhost:5173")
	var corsList []string
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			corsList = append(corsList, trimmed)
		}
	}

	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTIssuer:      getEnv("JWT_ISSUER", "mailpanel-api"),
		HTTPListenAddr: getEnv("HTTP_LISTEN_ADDR", ":8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    corsList,
		MailcowHost:    getEnv("MAILCOW_HOST", ""),
		MailcowAPIKey:  getEnv("MAILCOW_API_KEY", ""),
		CredentialsKey: getEnv("CREDENTIALS_KEY", ""),
		DevMode:        getEnv("DEV_MODE", "") == "true",
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.MailcowHost == "" {
		missing = append(missing, "MAILCOW_HOST")
	}
	if c.MailcowAPIKey == "" {
		missing = append(missing, "MAILCOW_API_KEY")
	}
	if c.CredentialsKey == "" {
		missing = append(missing, "CREDENTIALS_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	key, err := base64.StdEncoding.DecodeString(c.CredentialsKey)
	if err != nil {
		return fmt.Errorf("CREDENTIALS_KEY must be base64: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("CREDENTIALS_KEY must decode to 32 bytes, got %d", len(key))
	}
	return nil
}

// MailcowBaseURL returns the provider API base URL with the scheme forced to
// https when the operator configured a bare hostname, and without a trailing
// slash.
func (c *Config) MailcowBaseURL() string {
	host := c.MailcowHost
	if !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}
	host = strings.TrimRight(host, "/")
	return host + "/api/v1"
}

// CredentialsKeyBytes returns the decoded AES key. Validate must have been
// called first.
func (c *Config) CredentialsKeyBytes() []byte {
	key, _ := base64.StdEncoding.DecodeString(c.CredentialsKey)
	return key
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
