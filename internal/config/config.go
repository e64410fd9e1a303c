// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Security    SecurityConfig    `mapstructure:"security"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Link        LinkConfig        `mapstructure:"link"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	Coordinator CoordinatorConfig `mapstructure:"coordinator"`
	Discovery   DiscoveryConfig   `mapstructure:"discovery"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	App         AppConfig         `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TLS             TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// LinkConfig holds the link parameters the process starts with
type LinkConfig struct {
	PortName    string        `mapstructure:"port_name"`
	BaudRate    uint32        `mapstructure:"baud_rate"`
	DataBits    uint8         `mapstructure:"data_bits"`
	Parity      string        `mapstructure:"parity"`
	StopBits    uint8         `mapstructure:"stop_bits"`
	FlowControl string        `mapstructure:"flow_control"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// DTROnOpen is "on", "off" or empty to leave the driver default
	DTROnOpen string `mapstructure:"dtr_on_open"`
}

// WorkerConfig represents background worker configuration
type WorkerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// Body is "log" for the placeholder or "port" to hold the serial port open
	Body string `mapstructure:"body"`
}

// CoordinatorConfig represents reconciliation loop configuration
type CoordinatorConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// DiscoveryConfig represents port discovery configuration
type DiscoveryConfig struct {
	USBOnly bool `mapstructure:"usb_only"`
}

// MetricsConfig represents Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

const envPrefix = "LINK_SERVICE"

// Load loads configuration from path (or config.yaml in the usual places when
// path is empty) and environment variables. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variable support
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.tls.enabled", false)

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Link defaults
	v.SetDefault("link.port_name", "")
	v.SetDefault("link.baud_rate", 9600)
	v.SetDefault("link.data_bits", 8)
	v.SetDefault("link.parity", "none")
	v.SetDefault("link.stop_bits", 1)
	v.SetDefault("link.flow_control", "none")
	v.SetDefault("link.timeout", "100ms")
	v.SetDefault("link.dtr_on_open", "")

	// Worker defaults
	v.SetDefault("worker.interval", "100ms")
	v.SetDefault("worker.body", "log")

	// Coordinator defaults
	v.SetDefault("coordinator.refresh_interval", "50ms")

	// Discovery defaults
	v.SetDefault("discovery.usb_only", true)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// App defaults
	v.SetDefault("app.name", "link-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	// Basic validation
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Server.TLS.Enabled && (config.Server.TLS.CertFile == "" || config.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls.cert_file and server.tls.key_file are required when TLS is enabled")
	}

	if config.Worker.Interval <= 0 {
		return fmt.Errorf("worker.interval must be positive")
	}
	if config.Coordinator.RefreshInterval <= 0 {
		return fmt.Errorf("coordinator.refresh_interval must be positive")
	}

	validBodies := []string{"log", "port"}
	if !slices.Contains(validBodies, config.Worker.Body) {
		return fmt.Errorf("worker.body must be one of: %v", validBodies)
	}

	validDTR := []string{"", "on", "off"}
	if !slices.Contains(validDTR, config.Link.DTROnOpen) {
		return fmt.Errorf("link.dtr_on_open must be one of: %v", validDTR)
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	if !slices.Contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !slices.Contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	if config.Metrics.Enabled && !strings.HasPrefix(config.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	return nil
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
