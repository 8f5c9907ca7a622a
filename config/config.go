// Package config provides configuration management for the service.
// It handles loading and validation of configuration values from environment variables,
// with support for required variables, default values, and collective error reporting:
// every problem is gathered first and reported in a single error.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// PoolConfig represents configuration for the database connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// DSN renders the pool settings as a postgres:// URL, the form both pgxpool
// and golang-migrate understand.
func (p *PoolConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// StoreConfig selects the user store backend.
type StoreConfig struct {
	Driver        string
	DB            *PoolConfig // nil unless Driver is postgres
	RunMigrations bool
}

// SeedAccount is a login account that exists outside the user store.
type SeedAccount struct {
	Username    string
	Password    string
	Authorities []string
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// JWTSecret signs and verifies tokens. Empty means "generate a random key
	// at start-up", which invalidates every token on restart.
	JWTSecret     string
	TokenValidity time.Duration
	SeedAccounts  []SeedAccount
	BcryptCost    int
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Store  *StoreConfig
	Auth   *AuthConfig
	Server *ServerConfig
	Log    *LogConfig
}

// DefaultTokenValidity is one day, 86,400,000 ms.
const DefaultTokenValidity = 24 * time.Hour

const defaultSeedAccounts = "user:password,admin:admin:ADMIN"

// getRequiredEnv gets a required environment variable.
// Appends an error to the errors slice if the variable is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv gets an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt gets an optional environment variable parsed as an int.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// getOptionalEnvBool gets an optional environment variable parsed as a bool.
func getOptionalEnvBool(key string, defaultValue bool, errors *[]string) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueBool, err := strconv.ParseBool(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected boolean, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueBool
}

// getOptionalEnvDuration gets an optional environment variable parsed as time.Duration.
// `time.ParseDuration` expects a string like "15m", "24h".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	if valueDuration <= 0 {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: duration must be positive, got '%s'", key, valueStr))
		return defaultValue
	}
	return valueDuration
}

// clampPoolSize keeps the pool between 1 and 100 connections, recording an
// error when the configured value had to be changed.
func clampPoolSize(size int, varName string, errors *[]string) int {
	if size < 1 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is less than minimum 1", varName, size))
		return 1
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is greater than maximum 100", varName, size))
		return 100
	}
	return size
}

// parseSeedAccounts reads "name:password[:AUTH1|AUTH2],..." entries.
// An empty string disables seed accounts entirely.
func parseSeedAccounts(raw string, errors *[]string) []SeedAccount {
	var accounts []SeedAccount
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			*errors = append(*errors, fmt.Sprintf("invalid seed account %q: expected name:password[:AUTHORITY|...]", entry))
			continue
		}
		account := SeedAccount{Username: parts[0], Password: parts[1]}
		if len(parts) == 3 && parts[2] != "" {
			account.Authorities = strings.Split(parts[2], "|")
		}
		accounts = append(accounts, account)
	}
	return accounts
}

func parseOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Store configuration. The in-memory store needs nothing else; postgres
	// needs a full set of connection settings.
	driver := strings.ToLower(getOptionalEnv("STORE_DRIVER", StoreMemory))
	store := &StoreConfig{
		Driver:        driver,
		RunMigrations: getOptionalEnvBool("DB_RUN_MIGRATIONS", true, &errors),
	}
	switch driver {
	case StoreMemory:
	case StorePostgres:
		store.DB = &PoolConfig{
			User:     getRequiredEnv("DB_USER", &errors),
			Password: getRequiredEnv("DB_PASSWORD", &errors),
			DBName:   getRequiredEnv("DB_NAME", &errors),
			Host:     getOptionalEnv("DB_HOST", "localhost"),
			Port:     getOptionalEnvInt("DB_PORT", 5432, &errors),
			MaxSize:  clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errors), "DB_POOL_SIZE", &errors),
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid value for STORE_DRIVER: expected %q or %q, got %q", StoreMemory, StorePostgres, driver))
	}

	// Auth configuration
	authConfig := &AuthConfig{
		JWTSecret:     getOptionalEnv("JWT_SECRET", ""),
		TokenValidity: getOptionalEnvDuration("JWT_TOKEN_VALIDITY", DefaultTokenValidity, &errors),
		SeedAccounts:  parseSeedAccounts(getOptionalEnv("AUTH_SEED_ACCOUNTS", defaultSeedAccounts), &errors),
		BcryptCost:    getOptionalEnvInt("BCRYPT_COST", bcrypt.DefaultCost, &errors),
	}
	if authConfig.BcryptCost < bcrypt.MinCost || authConfig.BcryptCost > bcrypt.MaxCost {
		errors = append(errors, fmt.Sprintf("invalid value for BCRYPT_COST: must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	// Server configuration
	serverConfig := &ServerConfig{
		Port:           getOptionalEnv("PORT", "8080"),
		AllowedOrigins: parseOrigins(getOptionalEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	logConfig := &LogConfig{
		Level:  getOptionalEnv("LOG_LEVEL", "info"),
		Format: getOptionalEnv("LOG_FORMAT", "json"),
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		Store:  store,
		Auth:   authConfig,
		Server: serverConfig,
		Log:    logConfig,
	}, nil
}
