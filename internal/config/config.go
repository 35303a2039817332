// Package config loads client configuration from an optional YAML file with
// CLIENT_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all client settings.
type Config struct {
	// Transport selects the adapter: "websocket" or "nats". Ignored when
	// Offline is set.
	Transport string `yaml:"transport"`
	// Offline runs a local-only session without any server.
	Offline bool `yaml:"offline"`

	HubURL  string `yaml:"hub_url"`
	NATSURL string `yaml:"nats_url"`

	JoinCode   string `yaml:"join_code"`
	PlayerName string `yaml:"player_name"`

	StatusAddr  string `yaml:"status_addr"`
	HistoryPath string `yaml:"history_path"`
	LogLevel    string `yaml:"log_level"`

	HitCooldownMS int `yaml:"hit_cooldown_ms"`
	HeartbeatSec  int `yaml:"heartbeat_sec"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Transport:     "websocket",
		HubURL:        "wss://localhost:8080/gamehub",
		NATSURL:       "nats://localhost:4222",
		PlayerName:    "player",
		StatusAddr:    ":8090",
		HistoryPath:   "gameclient.db",
		LogLevel:      "info",
		HitCooldownMS: 500,
		HeartbeatSec:  15,
	}
}

// Load reads the YAML file at path (if it exists) over the defaults, then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Transport = getEnv("CLIENT_TRANSPORT", c.Transport)
	c.Offline = getEnvAsBool("CLIENT_OFFLINE", c.Offline)
	c.HubURL = getEnv("CLIENT_HUB_URL", c.HubURL)
	c.NATSURL = getEnv("CLIENT_NATS_URL", c.NATSURL)
	c.JoinCode = getEnv("CLIENT_JOIN_CODE", c.JoinCode)
	c.PlayerName = getEnv("CLIENT_PLAYER_NAME", c.PlayerName)
	c.StatusAddr = getEnv("CLIENT_STATUS_ADDR", c.StatusAddr)
	c.HistoryPath = getEnv("CLIENT_HISTORY_PATH", c.HistoryPath)
	c.LogLevel = getEnv("CLIENT_LOG_LEVEL", c.LogLevel)
	c.HitCooldownMS = getEnvAsInt("CLIENT_HIT_COOLDOWN_MS", c.HitCooldownMS)
	c.HeartbeatSec = getEnvAsInt("CLIENT_HEARTBEAT_SEC", c.HeartbeatSec)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
