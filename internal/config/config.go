package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Hash     HashConfig     `mapstructure:"hash"`
	Identity IdentityConfig `mapstructure:"identity"`
	Anchor   AnchorConfig   `mapstructure:"anchor"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	PostgresDSN     string        `mapstructure:"postgres_dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the driver-appropriate connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.PostgresDSN
	}
	return c.Path
}

// HashConfig holds the fingerprint pipeline knobs. Seed accepts either an
// integer or an arbitrary string; the feature constants themselves are fixed
// and versioned in the feature package.
type HashConfig struct {
	Seed      string `mapstructure:"seed"`
	Bits      int    `mapstructure:"bits"`
	MaxFrames int    `mapstructure:"max_frames"`
}

type IdentityConfig struct {
	KeyDir string `mapstructure:"key_dir"`
	// AutoProvision generates a keypair on the first sign call instead of
	// failing. The new private key lands on disk unencrypted, so the signing
	// service logs every auto-provisioned identity.
	AutoProvision bool `mapstructure:"auto_provision"`
}

type AnchorConfig struct {
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/fingerprints.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("hash.seed", "")
	v.SetDefault("hash.bits", 256)
	v.SetDefault("hash.max_frames", 0)
	v.SetDefault("identity.key_dir", "")
	v.SetDefault("identity.auto_provision", true)
	v.SetDefault("anchor.check_timeout", 10*time.Second)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.postgres_dsn", "SIGIL_POSTGRES_DSN")
	v.BindEnv("database.path", "SIGIL_DB_PATH")
	v.BindEnv("hash.seed", "SIGIL_SEED")
	v.BindEnv("identity.key_dir", "SIGIL_KEY_DIR")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
