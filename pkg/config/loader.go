package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "GPUINDEX"

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/gpuindex")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "gpu-price-index")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "gpuindex")
	v.SetDefault("database.user", "gpuindex")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.migration_timeout", "60s")

	// Redis defaults
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "gpuindex:")

	// Provider defaults
	for name, baseURL := range map[string]string{
		"vastai": "https://console.vast.ai/api/v0",
		"lambda": "https://cloud.lambdalabs.com/api/v1",
		"runpod": "https://api.runpod.io",
	} {
		prefix := "providers." + name + "."
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"base_url", baseURL)
		v.SetDefault(prefix+"api_key", "")
		v.SetDefault(prefix+"timeout", "20s")
		v.SetDefault(prefix+"retry_attempts", 2)
		v.SetDefault(prefix+"retry_delay", "2s")
		v.SetDefault(prefix+"circuit_breaker.max_failures", 3)
		v.SetDefault(prefix+"circuit_breaker.timeout", "5m")
	}

	// Merge defaults
	v.SetDefault("merge.priority", []string{"runpod", "lambda", "vastai"})

	// Sync defaults
	v.SetDefault("sync.secret", "")
	v.SetDefault("sync.schedule", "@every 1h")
	v.SetDefault("sync.timeout", "5m")
	v.SetDefault("sync.workers", 1)
	v.SetDefault("sync.sample_limit", 20)

	// Index defaults
	v.SetDefault("index.base", 100.0)
	v.SetDefault("index.overall_divisor", 1000.0)
	v.SetDefault("index.high_end_divisor", 1000.0)
	v.SetDefault("index.mid_range_divisor", 500.0)
	v.SetDefault("index.brand_divisor", 1000.0)
	v.SetDefault("index.high_end_threshold", 1000.0)
	v.SetDefault("index.mid_range_min", 400.0)
	v.SetDefault("index.mid_range_max", 1000.0)
	v.SetDefault("index.flagship_models", []string{"RTX 4090", "RTX 5090", "H100", "H200", "A100", "RX 7900 XTX"})
	v.SetDefault("index.history_limit", 10000)
	v.SetDefault("index.cache_ttl", "60s")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "5m")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.rate_limit_window", "1m")
	v.SetDefault("api.default_limit", 100)
	v.SetDefault("api.max_limit", 1000)
	v.SetDefault("api.cors.allowed_origins", []string{"*"})

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.max_message_size", 4096)

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
}
