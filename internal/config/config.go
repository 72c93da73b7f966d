package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Rider configures the rider client.
type Rider struct {
	APIURL         string
	PushURL        string
	Token          string
	RequestTimeout time.Duration
	Redis          struct {
		Addr       string
		SuggestTTL time.Duration
	}
}

// Sim configures the development backend.
type Sim struct {
	Port         string
	JWTSecret    string
	KafkaBrokers []string
	MapsAPIKey   string
	AssignDelay  time.Duration
	StartDelay   time.Duration
}

func LoadRider() (Rider, error) {
	var cfg Rider
	cfg.APIURL = strings.TrimRight(env("RIDER_API_URL", "http://localhost:8080"), "/")
	cfg.PushURL = env("RIDER_PUSH_URL", "ws://localhost:8080/ws")
	cfg.Token = env("RIDER_TOKEN", "")
	cfg.RequestTimeout = envDuration("RIDER_REQUEST_TIMEOUT", 10*time.Second)
	cfg.Redis.Addr = env("REDIS_ADDR", "")
	cfg.Redis.SuggestTTL = envDuration("RIDER_SUGGEST_CACHE_TTL", 10*time.Minute)
	if cfg.Token == "" {
		return cfg, errors.New("RIDER_TOKEN is required")
	}
	return cfg, nil
}

func LoadSim() (Sim, error) {
	var cfg Sim
	cfg.Port = env("PORT", "8080")
	cfg.JWTSecret = env("JWT_SECRET", "")
	if brokers := env("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.MapsAPIKey = env("MAPS_API_KEY", "")
	cfg.AssignDelay = envDuration("SIM_ASSIGN_DELAY", 3*time.Second)
	cfg.StartDelay = envDuration("SIM_START_DELAY", 5*time.Second)
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
