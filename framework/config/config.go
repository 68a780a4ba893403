package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Async     AsyncConfig
	Echo      EchoConfig
	Metrics   MetricsConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Scope string // scope hint passed to the container
	Port  string
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // console | json
}

type AsyncConfig struct {
	Workers int
}

type EchoConfig struct {
	Port string
}

type MetricsConfig struct {
	Enabled bool
}

type SchedulerConfig struct {
	Enabled bool
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  Get("APP_NAME", "TinyIoC"),
			Env:   Get("APP_ENV", "local"),
			Scope: Get("APP_SCOPE", "app"),
			Port:  Get("APP_PORT", "8000"),
		},
		Log: LogConfig{
			Level:  Get("LOG_LEVEL", "info"),
			Format: Get("LOG_FORMAT", "console"),
		},
		Async: AsyncConfig{
			Workers: GetInt("ASYNC_WORKERS", 5),
		},
		Echo: EchoConfig{
			Port: Get("ECHO_PORT", "9000"),
		},
		Metrics: MetricsConfig{
			Enabled: GetBool("METRICS_ENABLED", true),
		},
		Scheduler: SchedulerConfig{
			Enabled: GetBool("SCHEDULER_ENABLED", true),
		},
	}
}

// Get returns a raw env value, falling back to defaultVal when unset or empty.
func Get(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// GetInt returns an int env value. Unparsable values fall back too.
func GetInt(key string, defaultVal int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return b
}
