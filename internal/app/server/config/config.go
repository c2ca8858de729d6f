package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env     string
	DB      db
	Server  server
	Auth    auth
	Cache   cache
	Storage storage
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress      string        `env:"RUN_ADDRESS"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

type auth struct {
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL"`
}

type cache struct {
	RedisURL  string        `env:"REDIS_URL"`
	TenantTTL time.Duration `env:"TENANT_CACHE_TTL"`
}

type storage struct {
	Driver string `env:"STORAGE_DRIVER"`
}

// GlobalMigrations - каталог миграций общей схемы (тенанты, пользователи).
func (c *Config) GlobalMigrations() string {
	return strings.TrimRight(c.DB.Migrations, "/") + "/global"
}

// TenantMigrations - каталог миграций раздела тенанта.
func (c *Config) TenantMigrations() string {
	return strings.TrimRight(c.DB.Migrations, "/") + "/tenant"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("run_address", ":8080")
	v.SetDefault("migrations_path", "migrations")
	v.SetDefault("storage_driver", DriverPostgres)
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("tenant_cache_ttl", "1m")
	v.SetDefault("shutdown_timeout", "10s")
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env: v.GetString("app_env"),
		DB: db{
			DatabaseURI: v.GetString("database_uri"),
			Migrations:  v.GetString("migrations_path"),
		},
		Server: server{
			RunAddress:      v.GetString("run_address"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		Auth: auth{
			JWTSecret: v.GetString("jwt_secret"),
			JWTTTL:    v.GetDuration("jwt_ttl"),
		},
		Cache: cache{
			RedisURL:  v.GetString("redis_url"),
			TenantTTL: v.GetDuration("tenant_cache_ttl"),
		},
		Storage: storage{Driver: strings.ToLower(v.GetString("storage_driver"))},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalln(err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.DB.DatabaseURI == "" {
			return fmt.Errorf("DATABASE_URI is required for the %s driver", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}
