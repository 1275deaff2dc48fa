package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Wallet   WalletConfig
	Cache    CacheConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig содержит настройки проверки access-токенов внешнего IdP
type JWTConfig struct {
	// Secret — общий HMAC-секрет, которым IdP подписывает токены
	Secret string `mapstructure:"secret"`
}

// WalletConfig содержит настройки кошелька
type WalletConfig struct {
	// AccessWindowHrs — длительность гранта доступа в часах (24 по умолчанию)
	AccessWindowHrs int `mapstructure:"access_window_hrs"`
}

// AccessWindow возвращает окно доступа как time.Duration
func (w WalletConfig) AccessWindow() time.Duration {
	hrs := w.AccessWindowHrs
	if hrs <= 0 {
		hrs = 24
	}
	return time.Duration(hrs) * time.Hour
}

// CacheConfig содержит настройки кеша каталога
type CacheConfig struct {
	// QuizListTTLSec — TTL кеша списка викторин в секундах
	QuizListTTLSec int `mapstructure:"quiz_list_ttl_sec"`
}

// QuizListTTL возвращает TTL кеша каталога как time.Duration
func (c CacheConfig) QuizListTTL() time.Duration {
	sec := c.QuizListTTLSec
	if sec <= 0 {
		sec = 60
	}
	return time.Duration(sec) * time.Second
}

// PostgresConnectionString формирует DSN для подключения к PostgreSQL
func (d DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Значения по умолчанию
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 10)
	v.SetDefault("server.writeTimeout", 10)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("wallet.access_window_hrs", 24)
	v.SetDefault("cache.quiz_list_ttl_sec", 60)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Переменные окружения перекрывают файл (DATABASE_PASSWORD, JWT_SECRET и т.д.)
	v.AutomaticEnv()
	v.SetEnvPrefix("")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Секреты из окружения имеют приоритет
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if password := os.Getenv("DATABASE_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is not configured")
	}

	log.Printf("Конфигурация загружена из %s", path)
	return &cfg, nil
}
