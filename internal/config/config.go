package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/georepo-validation/internal/pkg/validator"
)

type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Worker     WorkerConfig
	Validation ValidationConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
	Parallelism       int
}

// ValidationConfig carries the dataset-level defaults: vertex tolerance,
// matching thresholds, and the overlap area epsilon. All absolute values in
// map units (degrees for EPSG:4326).
type ValidationConfig struct {
	Tolerance             float64 `validate:"gt=0"`
	OverlapAreaThreshold  float64 `validate:"gte=0"`
	GeometrySimilarityNew float64 `validate:"gte=0,lte=1"`
	GeometrySimilarityOld float64 `validate:"gte=0,lte=1"`
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
			Parallelism:       viper.GetInt("WORKER_PARALLELISM"),
		},
		Validation: ValidationConfig{
			Tolerance:             viper.GetFloat64("VALIDATION_TOLERANCE"),
			OverlapAreaThreshold:  viper.GetFloat64("VALIDATION_OVERLAP_AREA_THRESHOLD"),
			GeometrySimilarityNew: viper.GetFloat64("VALIDATION_GEOMETRY_SIMILARITY_NEW"),
			GeometrySimilarityOld: viper.GetFloat64("VALIDATION_GEOMETRY_SIMILARITY_OLD"),
		},
	}

	// Set default values if not provided
	if cfg.Worker.ConsumerGroup == "" {
		cfg.Worker.ConsumerGroup = "boundary-validation-workers"
	}
	if cfg.Worker.StreamReadTimeout == 0 {
		cfg.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.Parallelism == 0 {
		cfg.Worker.Parallelism = 4
	}
	if cfg.Validation.Tolerance == 0 {
		cfg.Validation.Tolerance = 1e-8
	}
	if cfg.Validation.GeometrySimilarityNew == 0 {
		cfg.Validation.GeometrySimilarityNew = 0.9
	}
	if cfg.Validation.GeometrySimilarityOld == 0 {
		cfg.Validation.GeometrySimilarityOld = 0.9
	}

	if err := validator.Validate(cfg.Validation); err != nil {
		return nil, fmt.Errorf("invalid validation config: %w", err)
	}

	return cfg, nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
