package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultEnv           = "local"
	defaultConfigDir     = ".greenkeep"
	configName           = "config"
)

type Config struct {
	Env            string
	ServerAddress  string
	EnableTLS      bool
	ConfigDir      string
	TokenPath      string
	SessionPath    string
	DBPath         string
	SyncInterval   time.Duration
	HealthInterval  time.Duration
	RequestTimeout time.Duration
	// TenantID - тенант, от имени которого работает superadmin.
	TenantID string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", defaultEnv)
	v.SetDefault("server_address", defaultServerAddress)
	v.SetDefault("enable_tls", false)
	v.SetDefault("config_dir", "")
	v.SetDefault("sync_interval_seconds", 30)
	v.SetDefault("health_interval_seconds", 10)
	v.SetDefault("request_timeout_seconds", 15)
	v.SetDefault("tenant_id", "")
}

// Load читает .env, переменные окружения и YAML-файл конфигурации.
// configFile может быть пустым: тогда файл ищется в ~/.greenkeep и текущем каталоге.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(filepath.Join(home, defaultConfigDir))
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("чтение конфигурации: %w", err)
		}
		// Конфиг не найден, используем значения по умолчанию
	}

	configDir := v.GetString("config_dir")
	if configDir == "" {
		configDir = filepath.Join(home, defaultConfigDir)
	}

	cfg := &Config{
		Env:            v.GetString("app_env"),
		ServerAddress:  v.GetString("server_address"),
		EnableTLS:      v.GetBool("enable_tls"),
		ConfigDir:      configDir,
		TokenPath:      filepath.Join(configDir, "token"),
		SessionPath:    filepath.Join(configDir, "session.json"),
		DBPath:         filepath.Join(configDir, "greenkeep.db"),
		SyncInterval:   time.Duration(v.GetInt("sync_interval_seconds")) * time.Second,
		HealthInterval:  time.Duration(v.GetInt("health_interval_seconds")) * time.Second,
		RequestTimeout: time.Duration(v.GetInt("request_timeout_seconds")) * time.Second,
		TenantID:       v.GetString("tenant_id"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}
	return cfg, nil
}

// MustLoad загружает конфигурацию клиента
func MustLoad(configFile string) *Config {
	cfg, err := Load(configFile)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval_seconds должен быть положительным")
	}
	if c.HealthInterval <= 0 {
		return fmt.Errorf("health_interval_seconds должен быть положительным")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout_seconds должен быть положительным")
	}
	return nil
}

// BaseURL возвращает адрес сервера со схемой. Адрес с уже указанной
// схемой используется как есть.
func (c *Config) BaseURL() string {
	if hasScheme(c.ServerAddress) {
		return c.ServerAddress
	}
	if c.EnableTLS {
		return "https://" + c.ServerAddress
	}
	return "http://" + c.ServerAddress
}

func hasScheme(addr string) bool {
	return strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://")
}

// EnsureDir создает каталог данных клиента.
func (c *Config) EnsureDir() error {
	if err := os.MkdirAll(c.ConfigDir, 0o700); err != nil {
		return fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}
	return nil
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
