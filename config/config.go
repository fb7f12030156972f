package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port int
	}
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}
	JWT struct {
		SecretKey string
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Scheduler struct {
		Enabled           bool
		DailySpec         string
		BusinessHoursSpec string
		Timezone          string
		DistributedLock   bool
		LeaseTTL          time.Duration
	}
	CORS struct {
		AllowedOrigins []string
	}
	Log struct {
		File string
	}
	// NotifyDefaults включает email-уведомления арендодателю о просроченной аренде
	NotifyDefaults bool
}

// NewConfig создает новый экземпляр конфигурации из переменных окружения
// и, если они есть, файлов .env и config.yaml
func NewConfig() (*Config, error) {
	// .env не перекрывает уже заданные переменные окружения
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// SERVER_PORT -> server.port, DB_HOST -> db.host и т.д.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "tenantx")

	v.SetDefault("jwt.secret.key", "your-secret-key-here")

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "your-email@gmail.com")
	v.SetDefault("smtp.password", "your-app-password")
	v.SetDefault("smtp.from", "your-email@gmail.com")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.daily.spec", "0 6 * * *")
	v.SetDefault("scheduler.business.hours.spec", "0 8,12,16,20 * * *")
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.distributed.lock", false)
	v.SetDefault("scheduler.lease.ttl", 30*time.Minute)

	v.SetDefault("cors.allowed.origins", []string{"*"})

	v.SetDefault("log.file", "")
	v.SetDefault("notify.defaults", false)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Server.Port = v.GetInt("server.port")
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("неверный формат порта сервера: %d", cfg.Server.Port)
	}

	// Настройки базы данных
	cfg.DB.Host = v.GetString("db.host")
	cfg.DB.Port = v.GetInt("db.port")
	if cfg.DB.Port <= 0 {
		return nil, fmt.Errorf("неверный формат порта базы данных: %d", cfg.DB.Port)
	}
	cfg.DB.User = v.GetString("db.user")
	cfg.DB.Password = v.GetString("db.password")
	cfg.DB.DBName = v.GetString("db.name")

	cfg.JWT.SecretKey = v.GetString("jwt.secret.key")

	// Настройки SMTP
	cfg.SMTP.Host = v.GetString("smtp.host")
	cfg.SMTP.Port = v.GetInt("smtp.port")
	cfg.SMTP.Username = v.GetString("smtp.username")
	cfg.SMTP.Password = v.GetString("smtp.password")
	cfg.SMTP.From = v.GetString("smtp.from")

	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")

	// Настройки планировщика
	cfg.Scheduler.Enabled = v.GetBool("scheduler.enabled")
	cfg.Scheduler.DailySpec = v.GetString("scheduler.daily.spec")
	cfg.Scheduler.BusinessHoursSpec = v.GetString("scheduler.business.hours.spec")
	cfg.Scheduler.Timezone = v.GetString("scheduler.timezone")
	cfg.Scheduler.DistributedLock = v.GetBool("scheduler.distributed.lock")
	cfg.Scheduler.LeaseTTL = v.GetDuration("scheduler.lease.ttl")

	cfg.CORS.AllowedOrigins = v.GetStringSlice("cors.allowed.origins")

	cfg.Log.File = v.GetString("log.file")
	cfg.NotifyDefaults = v.GetBool("notify.defaults")

	if err := cfg.validateScheduler(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateScheduler() error {
	for _, spec := range []string{c.Scheduler.DailySpec, c.Scheduler.BusinessHoursSpec} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("неверное расписание планировщика %q: %w", spec, err)
		}
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("неверный часовой пояс планировщика %q: %w", c.Scheduler.Timezone, err)
	}
	if c.Scheduler.DistributedLock && c.Scheduler.LeaseTTL <= 0 {
		return errors.New("время жизни блокировки планировщика должно быть больше 0")
	}
	return nil
}

// Location возвращает часовой пояс, в котором работает расписание
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PostgresDSN формирует строку подключения для gorm
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.DBName,
	)
}

// MigrationURL формирует URL для golang-migrate
func (c *Config) MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
	)
}
