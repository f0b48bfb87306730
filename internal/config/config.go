package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
	AccessTTL    time.Duration
}

type LedgerConfig struct {
	Enabled         bool
	Endpoint        string
	ContractAddress string
	FromAddress     string
	Timeout         time.Duration
	MaxInFlight     int
}

type WeatherConfig struct {
	BaseURL   string
	Timeout   time.Duration
	CacheTTL  time.Duration
	RateLimit float64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Ledger      LedgerConfig
	Weather     WeatherConfig
	Redis       RedisConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
			AccessTTL:    v.GetDuration("JWT_ACCESS_TTL"),
		},
		Ledger: LedgerConfig{
			Enabled:         v.GetBool("LEDGER_ENABLED"),
			Endpoint:        v.GetString("LEDGER_ENDPOINT"),
			ContractAddress: v.GetString("LEDGER_CONTRACT_ADDRESS"),
			FromAddress:     v.GetString("LEDGER_FROM_ADDRESS"),
			Timeout:         v.GetDuration("LEDGER_TIMEOUT"),
			MaxInFlight:     v.GetInt("LEDGER_MAX_IN_FLIGHT"),
		},
		Weather: WeatherConfig{
			BaseURL:   v.GetString("WEATHER_BASE_URL"),
			Timeout:   v.GetDuration("WEATHER_TIMEOUT"),
			CacheTTL:  v.GetDuration("WEATHER_CACHE_TTL"),
			RateLimit: v.GetFloat64("WEATHER_RATE_LIMIT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3000
	}
	if cfg.Auth.AccessTTL == 0 {
		cfg.Auth.AccessTTL = 24 * time.Hour
	}
	if cfg.Ledger.Endpoint == "" {
		cfg.Ledger.Endpoint = "http://localhost:8545"
	}
	if cfg.Ledger.Timeout == 0 {
		cfg.Ledger.Timeout = 10 * time.Second
	}
	if cfg.Ledger.MaxInFlight == 0 {
		cfg.Ledger.MaxInFlight = 16
	}
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = "https://api.open-meteo.com/v1/forecast"
	}
	if cfg.Weather.Timeout == 0 {
		cfg.Weather.Timeout = 10 * time.Second
	}
	if cfg.Weather.CacheTTL == 0 {
		cfg.Weather.CacheTTL = 10 * time.Minute
	}
	if cfg.Weather.RateLimit == 0 {
		cfg.Weather.RateLimit = 10
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Ledger.Enabled && cfg.Ledger.ContractAddress == "" {
		return fmt.Errorf("LEDGER_CONTRACT_ADDRESS is required when LEDGER_ENABLED is set")
	}
	if cfg.Weather.RateLimit < 0 {
		return fmt.Errorf("WEATHER_RATE_LIMIT must not be negative")
	}
	if cfg.Ledger.MaxInFlight < 0 {
		return fmt.Errorf("LEDGER_MAX_IN_FLIGHT must not be negative")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
