package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr   string
	Transport    string
	HostColor    string
	AdvertiseGen bool

	WriteTimeout time.Duration
	DialTimeout  time.Duration
	Tick         time.Duration
	MaxFrame     int

	RedisURL string
	LobbyTTL time.Duration

	MessagesDir string
	MetricsAddr string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:   ":7878",
		Transport:    "tcp",
		HostColor:    "white",
		AdvertiseGen: true,
		WriteTimeout: 5 * time.Second,
		DialTimeout:  10 * time.Second,
		Tick:         50 * time.Millisecond,
		MaxFrame:     1 << 20,
		LobbyTTL:     time.Hour,
	}

	if v := strings.TrimSpace(os.Getenv("NETCHESS_LISTEN")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("NETCHESS_TRANSPORT")); v != "" {
		cfg.Transport = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("NETCHESS_HOST_COLOR")); v != "" {
		cfg.HostColor = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("NETCHESS_MOVEGEN")); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.AdvertiseGen = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("NETCHESS_WRITE_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WriteTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("NETCHESS_DIAL_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DialTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("NETCHESS_TICK_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Tick = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("NETCHESS_MAX_FRAME")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxFrame = n
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("NETCHESS_LOBBY_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LobbyTTL = time.Duration(n) * time.Second
		}
	}
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("NETCHESS_MESSAGES_DIR"))
	cfg.MetricsAddr = strings.TrimSpace(os.Getenv("NETCHESS_METRICS_ADDR"))

	if cfg.Transport != "tcp" && cfg.Transport != "ws" {
		return nil, fmt.Errorf("NETCHESS_TRANSPORT must be tcp or ws, got %q", cfg.Transport)
	}
	if cfg.HostColor != "white" && cfg.HostColor != "black" {
		return nil, errors.New("NETCHESS_HOST_COLOR must be white or black")
	}

	return cfg, nil
}
