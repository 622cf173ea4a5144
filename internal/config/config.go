package config

import (
	"context"
	"errors"
	"time"

	"deskpulserest/internal/identity"
	"deskpulserest/internal/repositories/caseapi"
	"deskpulserest/internal/repositories/elsearch"
	"deskpulserest/internal/repositories/redis"
	"deskpulserest/internal/timewindow"
	"deskpulserest/pkg/logger"

	"github.com/google/uuid"
)

// App holds every client the handlers need.
type App struct {
	Redis    *redis.RedisInternal
	ES       *elsearch.Client
	Logger   *logger.Logger
	CaseAPI  *caseapi.Client
	Resolver timewindow.Resolver
}

// NewConfig - a function that returns a new Config struct
func NewConfig() (*App, error) {

	cfg := new(App)

	executionID := uuid.New().String()[0:5]

	err := cfg.newClientRedis()
	if err != nil {
		return cfg, err
	}

	err = cfg.newClientES()
	if err != nil {
		return cfg, err
	}

	loggerConfig := logger.Config{
		Service:       "deskpulse-api",
		Version:       "1.0.0",
		Environment:   "homol", // or "development", "staging"
		IndexName:     "deskpulse-api-logs",
		FlushInterval: 5 * time.Second,
		BatchSize:     1,
		BufferSize:    1000,
		LogLevel:      logger.LevelInfo,
		EnableCaller:  true,
		ExecutionID:   executionID,
	}

	cfg.Logger = logger.NewLogger(cfg.ES.ES, loggerConfig)

	err = cfg.newClientCaseAPI()
	if err != nil {
		return cfg, err
	}

	cfg.Resolver = timewindow.CentralTime{}

	return cfg, nil
}

// CloseAll - a function that closes all connections
func (cfg *App) CloseAll() {
	if cfg.Redis != nil {
		_ = cfg.Redis.Redis.Close()
	}

	if cfg.ES != nil {
		_ = cfg.ES.ES.Indices.Flush.WithContext(context.Background())
	}

	if cfg.Logger != nil {
		_ = cfg.Logger.Close()
	}
}

// newClientRedis is a function that returns a new Redis client
func (cfg *App) newClientRedis() error {

	r, err := redis.NewRedisInternal()
	if err != nil {
		return errors.New("creating redis client: " + err.Error())
	}

	cfg.Redis = r

	return nil
}

func (cfg *App) newClientES() error {
	es, err := elsearch.NewClient(&elsearch.Config{
		MaxRetries:         3,
		RetryBackoff:       3,
		Timeout:            5 * time.Second,
		EnableLogging:      true,
		InsecureSkipVerify: true,
	})
	if err != nil {
		return errors.New("creating elastic client: " + err.Error())
	}

	cfg.ES = es
	return nil
}

func (cfg *App) newClientCaseAPI() error {
	tokens, err := identity.NewClientCredentialsFromEnv()
	if err != nil {
		return errors.New("creating case backend credentials: " + err.Error())
	}

	client, err := caseapi.NewClient(&caseapi.Config{}, tokens)
	if err != nil {
		return errors.New("creating case backend client: " + err.Error())
	}

	cfg.CaseAPI = client
	return nil
}
