// Package config loads and validates the bridge server configuration.
package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the bridge server configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Relay      RelayConfig      `mapstructure:"relay"`
	Oracle     OracleConfig     `mapstructure:"oracle"`
	Router     RouterConfig     `mapstructure:"router"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host" default:"0.0.0.0"`
	Port            int           `mapstructure:"port" default:"8080"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" default:"30s"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" default:"60s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"30s"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host" default:"localhost" validate:"required"`
	Port     int    `mapstructure:"port" default:"5432"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database" default:"bridge" validate:"required"`
	SSLMode  string `mapstructure:"ssl_mode" default:"disable"`
}

// AuthConfig contains caller authentication settings
type AuthConfig struct {
	// Shared secret for operator JWTs issued out of band.
	JWTSecret string `mapstructure:"jwt_secret" validate:"required"`
	// Maximum age of a signed user message before it is rejected.
	MessageMaxAge time.Duration `mapstructure:"message_max_age" default:"5m"`
}

// TokenConfig describes a stablecoin accepted by the ledger
type TokenConfig struct {
	Address  string `mapstructure:"address" validate:"required"`
	Symbol   string `mapstructure:"symbol"`
	Decimals uint8  `mapstructure:"decimals" default:"18"`
}

// LedgerConfig contains fiat bridge ledger settings
type LedgerConfig struct {
	Owner              string        `mapstructure:"owner" validate:"required"`
	TransactionManager string        `mapstructure:"transaction_manager" validate:"required"`
	FeeReceiver        string        `mapstructure:"fee_receiver" validate:"required"`
	Vault              string        `mapstructure:"vault" validate:"required"`
	SpreadFeeBps       uint32        `mapstructure:"spread_fee_bps" default:"100"`
	SupportedTokens    []TokenConfig `mapstructure:"supported_tokens"`
}

// ChainConfig describes a destination chain the relay may dispatch to
type ChainConfig struct {
	Selector uint64 `mapstructure:"selector" validate:"required"`
	Name     string `mapstructure:"name"`
}

// RelayConfig contains cross-chain relay settings
type RelayConfig struct {
	Owner           string        `mapstructure:"owner" validate:"required"`
	FeeToken        string        `mapstructure:"fee_token" validate:"required"`
	FiatBridge      string        `mapstructure:"fiat_bridge"`
	AllowedChains   []ChainConfig `mapstructure:"allowed_chains"`
	SupportedTokens []string      `mapstructure:"supported_tokens"`
}

// OracleConfig contains the price feed client settings
type OracleConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" default:"10s"`
}

// RouterConfig contains the cross-chain router client settings
type RouterConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" default:"30s"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled     bool `mapstructure:"enabled" default:"true"`
	MetricsPort int  `mapstructure:"metrics_port" default:"9090"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level" default:"info"`
	Format     string `mapstructure:"format" default:"json"`
	OutputPath string `mapstructure:"output_path" default:"stdout"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaults.Set(&config); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
