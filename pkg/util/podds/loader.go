package podds

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a TOML or YAML configuration file at path, merges it on top of the
// built-in defaults, applies PODDS_* environment overrides and validates the result.
// An empty path skips the file and uses defaults plus the environment
func LoadConfig(path string) (*PoddsConfig, error) {
	cfg := DefaultPoddsConfig()

	if path != "" {
		if err := decodeConfigFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing)
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func decodeConfigFile(path string, cfg *PoddsConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("failed to decode toml config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode yaml config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file type: %s", path)
	}
	return nil
}

// applyEnvOverrides lets operators inject secrets and endpoints at deploy time
// without touching the config file
func applyEnvOverrides(cfg *PoddsConfig) {
	setStr(&cfg.ApiBaseURL, "PODDS_API_BASE_URL")
	setStr(&cfg.ApiKey, "PODDS_API_KEY")
	setDuration(&cfg.RequestTimeout, "PODDS_REQUEST_TIMEOUT")
	setInt(&cfg.MaxRetries, "PODDS_MAX_RETRIES")
	setInt(&cfg.RateLimitPerMinute, "PODDS_RATE_LIMIT_PER_MINUTE")

	setStr(&cfg.CacheBackend, "PODDS_CACHE_BACKEND")
	setDuration(&cfg.CacheTTL, "PODDS_CACHE_TTL")
	setStr(&cfg.CachePath, "PODDS_CACHE_PATH")
	setStr(&cfg.RedisAddr, "PODDS_REDIS_ADDR")
	setStr(&cfg.RedisPassword, "PODDS_REDIS_PASSWORD")
	setInt(&cfg.RedisDB, "PODDS_REDIS_DB")

	setInt(&cfg.SeasonFloor, "PODDS_SEASON_FLOOR")
	setInt(&cfg.PicksLegs, "PODDS_PICKS_LEGS")
	setFloat64(&cfg.PicksMinConfidence, "PODDS_PICKS_MIN_CONFIDENCE")
	setIntList(&cfg.PicksLeagues, "PODDS_PICKS_LEAGUES")

	setStr(&cfg.Transport, "PODDS_TRANSPORT")
	setStr(&cfg.HttpAddr, "PODDS_HTTP_ADDR")
	setStr(&cfg.LogLevel, "PODDS_LOG_LEVEL")
	setStr(&cfg.LogOutput, "PODDS_LOG_OUTPUT")
	setStr(&cfg.LogFile, "PODDS_LOG_FILE")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// setIntList parses a comma separated list such as "39,140,78"
func setIntList(dst *[]int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return
		}
		out = append(out, n)
	}
	*dst = out
}
