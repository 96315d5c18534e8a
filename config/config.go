// Package config loads server settings and opens the configured store.
//
// Settings are resolved in order: built-in defaults, an optional YAML file
// (-config flag or CONFIG_FILE), environment variables, then flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	Port            string        `yaml:"port"`
	GinMode         string        `yaml:"gin_mode"`
	DBDriver        string        `yaml:"db_driver"`
	DatabaseDSN     string        `yaml:"database_dsn"`
	MongoURI        string        `yaml:"mongo_uri"`
	MongoDatabase   string        `yaml:"mongo_database"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Port = "5000"
	c.GinMode = "debug"
	c.DBDriver = DriverSQLite
	c.DatabaseDSN = "restaurant_review.db?_pragma=busy_timeout(5000)"
	c.MongoURI = "mongodb://localhost:27017/?replicaSet=rs0"
	c.MongoDatabase = "restaurant_review"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.ShutdownTimeout = 10 * time.Second
}

// Load builds a Config from defaults, the YAML file, the environment and
// args (usually os.Args[1:]).
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs := flag.NewFlagSet("restaurant-review-api", flag.ContinueOnError)
	configFile := fs.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	port := fs.String("port", "", "HTTP port")
	driver := fs.String("db-driver", "", "store backend: sqlite or mongo")
	dsn := fs.String("dsn", "", "SQLite database DSN")
	mongoURI := fs.String("mongo-uri", "", "MongoDB connection URI")
	mongoDB := fs.String("mongo-db", "", "MongoDB database name")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	logFormat := fs.String("log-format", "", "text or json")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configFile != "" {
		if err := cfg.loadYAML(*configFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "db-driver":
			cfg.DBDriver = *driver
		case "dsn":
			cfg.DatabaseDSN = *dsn
		case "mongo-uri":
			cfg.MongoURI = *mongoURI
		case "mongo-db":
			cfg.MongoDatabase = *mongoDB
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		}
	})

	return cfg, cfg.Validate()
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	for env, dst := range map[string]*string{
		"PORT":           &c.Port,
		"GIN_MODE":       &c.GinMode,
		"DB_DRIVER":      &c.DBDriver,
		"DATABASE_DSN":   &c.DatabaseDSN,
		"MONGO_URI":      &c.MongoURI,
		"MONGO_DATABASE": &c.MongoDatabase,
		"LOG_LEVEL":      &c.LogLevel,
		"LOG_FORMAT":     &c.LogFormat,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("database DSN is required for the %s driver", DriverSQLite)
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("mongo URI and database are required for the %s driver", DriverMongo)
		}
	default:
		return fmt.Errorf("unknown db driver %q (want %s or %s)", c.DBDriver, DriverSQLite, DriverMongo)
	}
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	switch c.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("unknown gin mode %q (want %s, %s or %s)", c.GinMode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
	return nil
}
