package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Funkit   FunkitConfig   `yaml:"funkit"`
	NATS     NATSConfig     `yaml:"nats"`
	CORS     CORSConfig     `yaml:"cors"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Session  SessionConfig  `yaml:"session"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration. An empty DSN disables the
// registration subsystem; the quote pipeline has no storage dependency.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// FunkitConfig funkit API configuration. The API key authenticates both the
// checkout quote and the Stripe on-ramp quote endpoints.
type FunkitConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
	Timeout int    `yaml:"timeout"` // per-request timeout (seconds)
}

// NATSConfig NATS event publishing configuration. Optional; an empty URL
// disables publishing.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout"` // connect timeout (seconds)
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"` // preflight max age (seconds)
}

// MetricsConfig access control for the /metrics endpoint
type MetricsConfig struct {
	AllowedIPs []string `yaml:"allowedIPs"` // IPs or CIDR ranges, localhost always allowed
}

// SessionConfig session token configuration for the registration subsystem
type SessionConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

var AppConfig *Config

// LoadConfig loads the YAML configuration file and applies environment
// variable overrides. Environment variables always win over file values.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
		}
	}

	config := defaultConfig()

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	overrideFromEnv(config)

	if config.Funkit.BaseURL == "" {
		return nil, fmt.Errorf("funkit.baseUrl is required")
	}

	AppConfig = config
	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Funkit: FunkitConfig{
			BaseURL: "https://api.fun.xyz/v1",
			Timeout: 10,
		},
		NATS: NATSConfig{
			Timeout: 10,
		},
		CORS: CORSConfig{
			MaxAge: 3600,
		},
	}
}

// overrideFromEnv applies environment variable overrides
func overrideFromEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	if baseURL := os.Getenv("FUNKIT_BASE_URL"); baseURL != "" {
		config.Funkit.BaseURL = baseURL
	}
	if apiKey := os.Getenv("FUNKIT_API_KEY"); apiKey != "" {
		config.Funkit.APIKey = apiKey
	}
	if timeout := os.Getenv("FUNKIT_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.Funkit.Timeout = t
		}
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}

	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		origins := strings.Split(corsOrigins, ",")
		config.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				config.CORS.AllowedOrigins = append(config.CORS.AllowedOrigins, trimmed)
			}
		}
	}

	if allowedIPs := os.Getenv("METRICS_ALLOWED_IPS"); allowedIPs != "" {
		ips := strings.Split(allowedIPs, ",")
		config.Metrics.AllowedIPs = make([]string, 0, len(ips))
		for _, ip := range ips {
			if trimmed := strings.TrimSpace(ip); trimmed != "" {
				config.Metrics.AllowedIPs = append(config.Metrics.AllowedIPs, trimmed)
			}
		}
	}

	if secret := os.Getenv("SESSION_JWT_SECRET"); secret != "" {
		config.Session.JWTSecret = secret
	}
}
