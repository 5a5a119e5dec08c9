package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load reads configuration from an optional YAML file and the environment.
// Environment variables use the key path with dots replaced by underscores,
// e.g. JWT_SECRET or DATABASE_DRIVER.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.gin_mode", "debug")

	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "construction")
	v.SetDefault("database.password", "construction")
	v.SetDefault("database.name", "construction_management")
	v.SetDefault("database.path", "./data/construction.db")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "default-secret-key-change-me")
	v.SetDefault("jwt.expire_minutes", 24*60)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.email", "admin@example.com")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.full_name", "System Administrator")

	v.SetDefault("cors.origins", []string{"http://localhost:3000"})

	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.max_attachment_bytes", 10<<20)
	v.SetDefault("upload.max_image_bytes", 5<<20)

	v.SetDefault("password_reset.code_ttl_minutes", 15)
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.JWT.Secret == "" {
		return errors.New("jwt secret must not be empty")
	}
	if cfg.JWT.ExpireMinutes <= 0 {
		return fmt.Errorf("invalid jwt expiry: %d minutes", cfg.JWT.ExpireMinutes)
	}
	switch cfg.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}
	if cfg.PasswordReset.CodeTTLMinutes <= 0 {
		return fmt.Errorf("invalid password reset code ttl: %d minutes", cfg.PasswordReset.CodeTTLMinutes)
	}
	return nil
}
