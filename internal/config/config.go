package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Admin         AdminConfig         `mapstructure:"admin"`
	CORS          CORSConfig          `mapstructure:"cors"`
	Upload        UploadConfig        `mapstructure:"upload"`
	PasswordReset PasswordResetConfig `mapstructure:"password_reset"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
	LogLevel string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
}

// AdminConfig describes the account created on first start.
// An empty password disables the bootstrap.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	FullName string `mapstructure:"full_name"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

type UploadConfig struct {
	Dir                string `mapstructure:"dir"`
	MaxAttachmentBytes int64  `mapstructure:"max_attachment_bytes"`
	MaxImageBytes      int64  `mapstructure:"max_image_bytes"`
}

type PasswordResetConfig struct {
	CodeTTLMinutes int `mapstructure:"code_ttl_minutes"`
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (j JWTConfig) ExpireDuration() time.Duration {
	return time.Duration(j.ExpireMinutes) * time.Minute
}

func (p PasswordResetConfig) CodeTTL() time.Duration {
	return time.Duration(p.CodeTTLMinutes) * time.Minute
}
