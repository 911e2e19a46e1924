package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers for run history.
const (
	DBDriverMongo  = "mongo"
	DBDriverSQLite = "sqlite"
)

// Config holds the application's configuration values.
type Config struct {
	HostIP        string        // Host IP for the server
	RESTPort      int           // Port for the REST API
	GinMode       string        // Mode for the Gin framework (e.g., release, debug, test)
	JWTSecret     string        // Secret key for JWT signing
	JWTIssuer     string        // Issuer claim for JWTs
	DBDriver      string        // Run history storage: mongo or sqlite
	DBHost        string        // Hostname or IP address for the database
	DBPort        int           // Port number for the database
	DBUser        string        // Username for the database
	DBPassword    string        // Password for the database
	DBName        string        // Name of the database
	SQLitePath    string        // Path of the SQLite run history file
	RedisAddr     string        // Redis address for the leaderboard and locks, empty to disable
	RedisPassword string        // Password for Redis
	MaxCarrots    int           // Default robot capacity
	MoveDelay     time.Duration // Pause after each move step
	TurnDelay     time.Duration // Pause after each turn
	TraceDir      string        // Directory for compressed frame traces, empty to disable
	SceneURL      string        // Scene fetched for sessions created without one, empty for the built-in scene
}

// Load reads the configuration from the environment. It loads a .env file
// first when one is present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	var errs []error
	mustGetEnv := func(key string) string {
		value, err := lookupEnv(key)
		if err != nil {
			errs = append(errs, err)
		}
		return value
	}
	getEnvAsInt := func(key string, defaultValue int) int {
		value, err := getEnvAsIntWithDefault(key, defaultValue)
		if err != nil {
			errs = append(errs, err)
		}
		return value
	}

	c := Config{
		HostIP:        getEnvWithDefault("HOST_IP", "0.0.0.0"),
		RESTPort:      getEnvAsInt("REST_PORT", 8080),
		GinMode:       getEnvWithDefault("GIN_MODE", "release"),
		JWTSecret:     mustGetEnv("JWT_SECRET"),
		JWTIssuer:     mustGetEnv("JWT_ISSUER"),
		DBDriver:      getEnvWithDefault("DB_DRIVER", DBDriverMongo),
		SQLitePath:    getEnvWithDefault("SQLITE_PATH", "data/runs.db"),
		RedisAddr:     getEnvWithDefault("REDIS_ADDR", ""),
		RedisPassword: getEnvWithDefault("REDIS_PASSWORD", ""),
		MaxCarrots:    getEnvAsInt("MAX_CARROTS", 25),
		MoveDelay:     time.Duration(getEnvAsInt("MOVE_DELAY_MS", 200)) * time.Millisecond,
		TurnDelay:     time.Duration(getEnvAsInt("TURN_DELAY_MS", 300)) * time.Millisecond,
		TraceDir:      getEnvWithDefault("TRACE_DIR", ""),
		SceneURL:      getEnvWithDefault("SCENE_URL", ""),
	}

	switch c.DBDriver {
	case DBDriverMongo:
		c.DBHost = mustGetEnv("DB_HOST")
		c.DBPort = getEnvAsInt("DB_PORT", 27017)
		c.DBUser = mustGetEnv("DB_USER")
		c.DBPassword = mustGetEnv("DB_PASS")
		c.DBName = mustGetEnv("DB_NAME")
	case DBDriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DBDriverMongo, DBDriverSQLite, c.DBDriver))
	}
	if c.MaxCarrots < 1 {
		errs = append(errs, fmt.Errorf("MAX_CARROTS must be positive, got %d", c.MaxCarrots))
	}

	if len(errs) > 0 {
		return c, fmt.Errorf("invalid configuration: %v", errs)
	}
	return c, nil
}

// lookupEnv retrieves the value of a required environment variable.
func lookupEnv(key string) (string, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return "", fmt.Errorf("environment variable %s is not set", key)
	}
	return value, nil
}

// getEnvAsIntWithDefault retrieves the value of an environment variable as an integer, or the default value if not set.
func getEnvAsIntWithDefault(key string, defaultValue int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
	}
	return value, nil
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
