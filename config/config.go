package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingSetting is returned when a required setting is absent
var ErrMissingSetting = errors.New("missing required setting")

const (
	DefaultInferenceURL = "http://localhost:9001"
	DefaultDeviceURL    = "http://localhost:9100"
	DefaultTowerRegions = "towers_regions.json"
)

// Config holds the settings of the external collaborators
type Config struct {
	APIKey           string
	InferenceURL     string
	TroopWorkspace   string
	CardWorkspace    string
	DeviceURL        string
	TowerRegionsPath string
	RedisAddr        string
	LedgerPath       string
}

// Load reads envFile into the environment (a missing file is fine) and
// collects the settings, failing on the first required one that is unset
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading %s: %w", envFile, err)
		}
	}

	c := &Config{
		InferenceURL:     getDefault("INFERENCE_URL", DefaultInferenceURL),
		DeviceURL:        getDefault("DEVICE_URL", DefaultDeviceURL),
		TowerRegionsPath: getDefault("TOWER_REGIONS", DefaultTowerRegions),
		RedisAddr:        get("REDIS_ADDR"),
		LedgerPath:       get("LEDGER_PATH"),
	}
	var err error
	if c.APIKey, err = requireEnv("ROBOFLOW_API_KEY"); err != nil {
		return nil, err
	}
	if c.TroopWorkspace, err = requireEnv("WORKSPACE_TROOP_DETECTION"); err != nil {
		return nil, err
	}
	if c.CardWorkspace, err = requireEnv("WORKSPACE_CARD_DETECTION"); err != nil {
		return nil, err
	}
	return c, nil
}

func get(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getDefault(key, def string) string {
	if v := get(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) (string, error) {
	v := get(key)
	if v == "" {
		return "", fmt.Errorf("%w: %s not set", ErrMissingSetting, key)
	}
	return v, nil
}
