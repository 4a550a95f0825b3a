package config

import (
	"fmt"
	"os"
	"time"
)

// Config configuración principal de la aplicación
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	WhatsApp WhatsAppConfig
	Updates  UpdatesConfig
}

// ServerConfig configuración del servidor HTTP
type ServerConfig struct {
	Port            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig API keys de la pasarela. GeneralKey protege la superficie
// externa completa; ServiceKey protege las rutas de sesión consumidas por el
// sistema de negocio.
type AuthConfig struct {
	GeneralKey string
	ServiceKey string
}

// DatabaseConfig configuración de PostgreSQL (compartida con el sqlstore de
// credenciales de whatsmeow)
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configuración de Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// WhatsAppConfig configuración de la capa de sesiones WhatsApp
type WhatsAppConfig struct {
	LogLevel        string
	InitiateTimeout time.Duration
}

// UpdatesConfig retención y reenvío de actualizaciones de entrega
type UpdatesConfig struct {
	MaxPerSession  int
	MaxAge         time.Duration
	PruneSchedule  string
	WebhookBaseURL string
}

// Load carga la configuración desde variables de entorno
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "5001"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			ReadTimeout:     getDurationEnv("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			GeneralKey: getEnv("KEY", ""),
			ServiceKey: getEnv("SERVICE_API_KEY", ""),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", getEnv("POSTGRES_HOST", "localhost")),
			Port:            getEnv("DB_PORT", getEnv("POSTGRES_PORT", "5432")),
			User:            getEnv("DB_USER", getEnv("POSTGRES_USER", "postgres")),
			Password:        getEnv("DB_PASSWORD", getEnv("POSTGRES_PASSWORD", "postgres")),
			DBName:          getEnv("DB_NAME", getEnv("POSTGRES_DB", "wagateway")),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		WhatsApp: WhatsAppConfig{
			LogLevel:        getEnv("WA_LOG_LEVEL", "info"),
			InitiateTimeout: getDurationEnv("INITIATE_TIMEOUT", 25*time.Second),
		},
		Updates: UpdatesConfig{
			MaxPerSession:  getIntEnv("MAX_MESSAGE_UPDATES_PER_SESSION", 100),
			MaxAge:         getDurationEnv("MAX_MESSAGE_UPDATE_AGE", 24*time.Hour),
			PruneSchedule:  getEnv("MESSAGE_UPDATE_PRUNE_SCHEDULE", "*/10 * * * *"),
			WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate valida la configuración
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	switch c.WhatsApp.LogLevel {
	case "silent", "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("WA_LOG_LEVEL must be one of silent, error, warn, info, debug")
	}
	if c.Updates.MaxPerSession <= 0 {
		return fmt.Errorf("MAX_MESSAGE_UPDATES_PER_SESSION must be positive")
	}
	return nil
}

// IsProduction indica si corre en modo producción
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDSN retorna el DSN de PostgreSQL
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr retorna la dirección de Redis
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intValue int
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
