package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config is the process-wide configuration, loaded once from the environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	MinIO    MinIOConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	WS       WSConfig
}

var (
	instance *Config
	once     sync.Once
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the postgres connection string gorm expects.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type JWTConfig struct {
	Secret         string
	ExpirationTime time.Duration
}

// WSConfig carries the session-layer tunables.
type WSConfig struct {
	HeartbeatInterval time.Duration
	MaxMissedBeats    int
}

// Load reads configuration from the environment exactly once. Every key has
// a default, so a bare process comes up against local services.
func Load() *Config {
	once.Do(func() {
		viper.SetDefault("TUTOR_HOST", "")
		viper.SetDefault("TUTOR_PORT", "8000")
		viper.SetDefault("TUTOR_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("TUTOR_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("TUTOR_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("TUTOR_ALLOWED_ORIGINS", "")

		viper.SetDefault("POSTGRES_HOST", "localhost")
		viper.SetDefault("POSTGRES_PORT", "5432")
		viper.SetDefault("POSTGRES_USER", "postgres")
		viper.SetDefault("POSTGRES_PASSWORD", "password")
		viper.SetDefault("POSTGRES_DB", "tutor")
		viper.SetDefault("POSTGRES_SSLMODE", "disable")

		viper.SetDefault("REDIS_ADDR", "localhost:6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("REDIS_MAX_RETRIES", 3)
		viper.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
		viper.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_POOL_SIZE", 100)
		viper.SetDefault("REDIS_MIN_IDLE_CONNS", 10)

		viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
		viper.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
		viper.SetDefault("MINIO_SECRET_KEY", "minioadmin")
		viper.SetDefault("MINIO_BUCKET", "tutor-audio")
		viper.SetDefault("MINIO_USE_SSL", false)

		viper.SetDefault("KAFKA_ENABLED", false)
		viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
		viper.SetDefault("KAFKA_TOPIC", "tutor-events")

		viper.SetDefault("TUTOR_JWT_SECRET", "secret")
		viper.SetDefault("TUTOR_JWT_EXPIRE", "24h")

		viper.SetDefault("TUTOR_HEARTBEAT_INTERVAL_SECONDS", 30)
		viper.SetDefault("TUTOR_MAX_MISSED_BEATS", 3)

		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Host:           viper.GetString("TUTOR_HOST"),
				Port:           viper.GetString("TUTOR_PORT"),
				ReadTimeout:    viper.GetDuration("TUTOR_READ_TIMEOUT"),
				WriteTimeout:   viper.GetDuration("TUTOR_WRITE_TIMEOUT"),
				IdleTimeout:    viper.GetDuration("TUTOR_IDLE_TIMEOUT"),
				AllowedOrigins: splitCSV(viper.GetString("TUTOR_ALLOWED_ORIGINS")),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("POSTGRES_HOST"),
				Port:     viper.GetString("POSTGRES_PORT"),
				User:     viper.GetString("POSTGRES_USER"),
				Password: viper.GetString("POSTGRES_PASSWORD"),
				DBName:   viper.GetString("POSTGRES_DB"),
				SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
			},
			Redis: RedisConfig{
				Addr:         viper.GetString("REDIS_ADDR"),
				Password:     viper.GetString("REDIS_PASSWORD"),
				DB:           viper.GetInt("REDIS_DB"),
				MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
				DialTimeout:  viper.GetDuration("REDIS_DIAL_TIMEOUT"),
				ReadTimeout:  viper.GetDuration("REDIS_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("REDIS_WRITE_TIMEOUT"),
				PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
				MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
			},
			MinIO: MinIOConfig{
				Endpoint:  viper.GetString("MINIO_ENDPOINT"),
				AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
				SecretKey: viper.GetString("MINIO_SECRET_KEY"),
				Bucket:    viper.GetString("MINIO_BUCKET"),
				UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			},
			Kafka: KafkaConfig{
				Enabled: viper.GetBool("KAFKA_ENABLED"),
				Brokers: splitCSV(viper.GetString("KAFKA_BROKERS")),
				Topic:   viper.GetString("KAFKA_TOPIC"),
			},
			JWT: JWTConfig{
				Secret:         viper.GetString("TUTOR_JWT_SECRET"),
				ExpirationTime: viper.GetDuration("TUTOR_JWT_EXPIRE"),
			},
			WS: WSConfig{
				HeartbeatInterval: time.Duration(viper.GetInt("TUTOR_HEARTBEAT_INTERVAL_SECONDS")) * time.Second,
				MaxMissedBeats:    viper.GetInt("TUTOR_MAX_MISSED_BEATS"),
			},
		}
	})

	return instance
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
