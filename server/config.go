package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"dedupserver/database"
	"dedupserver/quality"
)

// DefaultConfigPath файл конфигурации, читаемый при наличии
const DefaultConfigPath = "config.yaml"

// Config конфигурация сервера. Значения из config.yaml перекрываются переменными окружения.
type Config struct {
	// Сервер
	Port            string        `yaml:"port" env:"SERVER_PORT" env-default:"9999"`
	MaxUploadMB     int64         `yaml:"max_upload_mb" env:"MAX_UPLOAD_MB" env-default:"32"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`

	// Логирование
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`

	// Анализ дубликатов
	Workers        int  `yaml:"workers" env:"DEDUP_WORKERS" env-default:"0"`
	FoldDiacritics bool `yaml:"fold_diacritics" env:"DEDUP_FOLD_DIACRITICS" env-default:"false"`

	// База отчетов (пусто - отчеты не сохраняются)
	ReportDatabasePath string `yaml:"report_database_path" env:"REPORT_DATABASE_PATH" env-default:""`

	// Connection pooling
	MaxOpenConns    int           `yaml:"db_max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"db_max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"db_conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
}

// LoadConfig загружает конфигурацию: файл path, если он существует, иначе только окружение
func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		if err := cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// Валидация
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Validate валидирует конфигурацию
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.MaxUploadMB <= 0 {
		return errors.New("max upload size must be greater than 0")
	}

	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("log format must be json or console, got %q", c.LogFormat)
	}

	if c.MaxOpenConns <= 0 {
		return errors.New("max open connections must be greater than 0")
	}

	if c.MaxIdleConns <= 0 {
		return errors.New("max idle connections must be greater than 0")
	}

	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max idle connections cannot be greater than max open connections")
	}

	return nil
}

// AnalyzerOptions настройки анализатора дубликатов
func (c *Config) AnalyzerOptions() quality.Options {
	return quality.Options{
		Workers:        c.Workers,
		FoldDiacritics: c.FoldDiacritics,
	}
}

// DBConfig настройки пула подключений базы отчетов
func (c *Config) DBConfig() database.DBConfig {
	return database.DBConfig{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// MaxUploadBytes лимит размера тела запроса
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
