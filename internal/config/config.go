package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fieldline/fieldline/internal/storage"
)

// Config holds process configuration for the mapping layer's
// collaborators: the document store, the read cache, upload storage
// and the store fetch throttle.
type Config struct {
	LogLevel string
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	MinIO    storage.Config
	Store    StoreConfig
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// StoreConfig tunes the client-side fetch throttle applied to store
// round-trips. FetchRPS <= 0 disables throttling.
type StoreConfig struct {
	FetchRPS   float64
	FetchBurst int
}

// LoadConfig loads configuration from environment variables and an
// optional .env file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGODB_DATABASE", "fieldline")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_TTL_SECONDS", 60)
	viper.SetDefault("STORE_FETCH_RPS", 0)
	viper.SetDefault("STORE_FETCH_BURST", 1)
	viper.SetDefault("MINIO_BUCKET", "fieldline")

	cfg := &Config{
		LogLevel: viper.GetString("LOG_LEVEL"),
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			CacheTTL: time.Duration(viper.GetInt("CACHE_TTL_SECONDS")) * time.Second,
		},
		MinIO: storage.Config{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: viper.GetString("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetString("MINIO_USE_SSL") == "true",
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		Store: StoreConfig{
			FetchRPS:   viper.GetFloat64("STORE_FETCH_RPS"),
			FetchBurst: viper.GetInt("STORE_FETCH_BURST"),
		},
	}

	return cfg, nil
}
