package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App         AppConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Logger      LoggerConfig
	Auth        AuthConfig
	Store       StoreConfig
	RemoteStore RemoteStoreConfig
	Similarity  SimilarityConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret     string
	JWTTTLMinutes int
}

// StoreBackend selects the team store implementation.
type StoreBackend string

const (
	StoreBackendHTTP     StoreBackend = "http"
	StoreBackendPostgres StoreBackend = "postgres"
)

// StoreConfig selects how the team store is backed.
type StoreConfig struct {
	Backend StoreBackend
}

// RemoteStoreConfig configures the HTTP team store adapter. Resource paths are
// resolved here once instead of being guessed per call site.
type RemoteStoreConfig struct {
	BaseURL        string
	BearerToken    string
	TimeoutSeconds int
	TeamsPath      string
	ManagersPath   string
	TeamLeadsPath  string
	MembersPath    string
}

// SimilarityConfig tunes the near-duplicate name detector.
type SimilarityConfig struct {
	MaxDistance     int
	CacheTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	backend := StoreBackend(getEnv("STORE_BACKEND", string(StoreBackendPostgres)))
	if backend != StoreBackendHTTP && backend != StoreBackendPostgres {
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "team-hierarchy-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", "dev-secret"),
			JWTTTLMinutes: getEnvAsInt("AUTH_JWT_TTL_MINUTES", 60),
		},
		Store: StoreConfig{
			Backend: backend,
		},
		RemoteStore: RemoteStoreConfig{
			BaseURL:        getEnv("REMOTE_STORE_BASE_URL", "http://127.0.0.1:9090"),
			BearerToken:    os.Getenv("REMOTE_STORE_BEARER_TOKEN"),
			TimeoutSeconds: getEnvAsInt("REMOTE_STORE_TIMEOUT_SECONDS", 15),
			TeamsPath:      getEnv("REMOTE_STORE_TEAMS_PATH", "/api/v1/teams"),
			ManagersPath:   getEnv("REMOTE_STORE_MANAGERS_PATH", "/api/v1/team-managers"),
			TeamLeadsPath:  getEnv("REMOTE_STORE_TEAM_LEADS_PATH", "/api/v1/team-leads"),
			MembersPath:    getEnv("REMOTE_STORE_MEMBERS_PATH", "/api/v1/team-members"),
		},
		Similarity: SimilarityConfig{
			MaxDistance:     getEnvAsInt("SIMILARITY_MAX_DISTANCE", 3),
			CacheTTLSeconds: getEnvAsInt("NAME_CHECK_CACHE_TTL_SECONDS", 30),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the remote store request timeout.
func (r RemoteStoreConfig) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// CacheTTL returns the detector listing cache TTL; zero disables caching.
func (s SimilarityConfig) CacheTTL() time.Duration {
	if s.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
