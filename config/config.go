package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// target database name, not configurable
const TargetDatabase = "CLICOM_MONGO"

// supported source drivers
const (
	DriverMySQL      = "mysql"
	DriverPostgreSQL = "postgresql"
)

// connection settings for the relational source
type SourceConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// connection settings for the document store
type TargetConfig struct {
	URI string `yaml:"uri"`
}

// behaviour switches for a single import run
type ImportConfig struct {
	Sort   bool `yaml:"sort"`
	DryRun bool `yaml:"dry_run"`
}

// Config is built once at startup and passed down explicitly.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Target TargetConfig `yaml:"target"`
	Import ImportConfig `yaml:"import"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Driver: DriverMySQL,
			Host:   "localhost",
			Port:   3306,
			User:   "root",
			DBName: "clicom",
		},
		Target: TargetConfig{
			URI: "mongodb://localhost:27017",
		},
	}
}

// LoadConfig layers the optional yaml file and then the environment over the
// defaults. An empty path skips the file.
func LoadConfig(filepath string) (*Config, error) {
	config := Default()

	if filepath != "" {
		content, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(content, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// overlays the environment variables on the current values
func (c *Config) ApplyEnv() {
	c.Source.Driver = GetEnv("SOURCE_DRIVER", c.Source.Driver)
	c.Source.Host = GetEnv("MYSQL_HOST", c.Source.Host)
	c.Source.Port = GetEnvInt("MYSQL_PORT", c.Source.Port)
	c.Source.User = GetEnv("MYSQL_USER", c.Source.User)
	c.Source.Password = GetEnv("MYSQL_PASSWORD", c.Source.Password)
	c.Source.DBName = GetEnv("MYSQL_DATABASE", c.Source.DBName)
	c.Target.URI = GetEnv("MONGODB_URI", c.Target.URI)
}

// Validate checks the settings needed to open both connections.
func (c *Config) Validate() error {
	c.Source.Driver = strings.ToLower(strings.TrimSpace(c.Source.Driver))
	switch c.Source.Driver {
	case DriverMySQL, DriverPostgreSQL:
	default:
		return fmt.Errorf("invalid source driver %q", c.Source.Driver)
	}
	if c.Source.Host == "" {
		return fmt.Errorf("source host must be specified")
	}
	if c.Source.Port <= 0 || c.Source.Port > 65535 {
		return fmt.Errorf("invalid source port %d", c.Source.Port)
	}
	if c.Source.DBName == "" {
		return fmt.Errorf("source database name must be specified")
	}
	if c.Target.URI == "" {
		return fmt.Errorf("target connection string must be specified")
	}
	return nil
}
