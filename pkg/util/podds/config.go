package podds

import (
	"fmt"
	"time"
)

// PoddsConfig contains all configurable parameters that influence prediction outcomes
// and the plumbing around them. This centralizes all magic numbers for easy adjustment
type PoddsConfig struct {
	// === DATA PROVIDER (API-Football) ===
	ApiBaseURL         string        `toml:"api_base_url" yaml:"api_base_url"`
	ApiKey             string        `toml:"api_key" yaml:"api_key"`
	RequestTimeout     time.Duration `toml:"request_timeout" yaml:"request_timeout"`
	MaxRetries         int           `toml:"max_retries" yaml:"max_retries"`
	RetryBackoff       time.Duration `toml:"retry_backoff" yaml:"retry_backoff"`
	RateLimitPerMinute int           `toml:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	// === RESPONSE CACHE ===
	CacheBackend  string        `toml:"cache_backend" yaml:"cache_backend"` // memory, sqlite or redis
	CacheTTL      time.Duration `toml:"cache_ttl" yaml:"cache_ttl"`
	CachePath     string        `toml:"cache_path" yaml:"cache_path"` // sqlite database file
	RedisAddr     string        `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int           `toml:"redis_db" yaml:"redis_db"`

	// === SEASON RESOLUTION ===
	SeasonFloor int `toml:"season_floor" yaml:"season_floor"` // earliest season with reliable statistics

	// === GOAL EXPECTANCY ===
	HomeAdvantage             float64 `toml:"home_advantage" yaml:"home_advantage"`
	DefaultLeagueAverageGoals float64 `toml:"default_league_average_goals" yaml:"default_league_average_goals"`
	DefaultHomeLambda         float64 `toml:"default_home_lambda" yaml:"default_home_lambda"`
	DefaultAwayLambda         float64 `toml:"default_away_lambda" yaml:"default_away_lambda"`
	LambdaFloor               float64 `toml:"lambda_floor" yaml:"lambda_floor"`

	// === POISSON DISTRIBUTION ===
	GoalCap       int     `toml:"goal_cap" yaml:"goal_cap"`               // scorelines 0..GoalCap for each side
	OverUnderLine float64 `toml:"over_under_line" yaml:"over_under_line"` // total goals line

	// === SIGNAL BLENDING ===
	HeadToHeadWeight   float64 `toml:"head_to_head_weight" yaml:"head_to_head_weight"`
	HeadToHeadMinGames int     `toml:"head_to_head_min_games" yaml:"head_to_head_min_games"`
	HeadToHeadMaxGames int     `toml:"head_to_head_max_games" yaml:"head_to_head_max_games"`
	MarketWeight       float64 `toml:"market_weight" yaml:"market_weight"`

	// === NARRATIVE THRESHOLDS ===
	BTTSThreshold float64 `toml:"btts_threshold" yaml:"btts_threshold"`
	OverThreshold float64 `toml:"over_threshold" yaml:"over_threshold"`

	// === PICKS OF THE DAY ===
	PicksLeagues       []int   `toml:"picks_leagues" yaml:"picks_leagues"`
	PicksLegs          int     `toml:"picks_legs" yaml:"picks_legs"`
	PicksMinConfidence float64 `toml:"picks_min_confidence" yaml:"picks_min_confidence"`
	PicksConcurrency   int     `toml:"picks_concurrency" yaml:"picks_concurrency"`

	// === SERVER ===
	Transport string `toml:"transport" yaml:"transport"` // stdio or http
	HttpAddr  string `toml:"http_addr" yaml:"http_addr"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogOutput string `toml:"log_output" yaml:"log_output"` // c, f or b
	LogFile   string `toml:"log_file" yaml:"log_file"`
}

// MaxGoalCap bounds the scoreline table
const MaxGoalCap = 20

// DefaultPoddsConfig returns the default configuration with all standard values
func DefaultPoddsConfig() *PoddsConfig {
	return &PoddsConfig{
		ApiBaseURL:         "https://v3.football.api-sports.io",
		RequestTimeout:     15 * time.Second,
		MaxRetries:         3,
		RetryBackoff:       500 * time.Millisecond,
		RateLimitPerMinute: 30,

		CacheBackend: "memory",
		CacheTTL:     time.Hour,
		CachePath:    "/tmp/podds-cache.db",
		RedisAddr:    "localhost:6379",

		SeasonFloor: 2015,

		// These fallbacks are relied upon by compatibility tests, do not tune them casually
		HomeAdvantage:             1.2,
		DefaultLeagueAverageGoals: 2.5,
		DefaultHomeLambda:         1.5,
		DefaultAwayLambda:         1.0,
		LambdaFloor:               0.1,

		GoalCap:       5,
		OverUnderLine: 2.5,

		HeadToHeadWeight:   0.4,
		HeadToHeadMinGames: 3,
		HeadToHeadMaxGames: 10,
		MarketWeight:       0.3,

		BTTSThreshold: 0.5,
		OverThreshold: 0.5,

		// Premier League, La Liga, Serie A, Bundesliga, Ligue 1
		PicksLeagues:       []int{39, 140, 135, 78, 61},
		PicksLegs:          3,
		PicksMinConfidence: 0.6,
		PicksConcurrency:   4,

		Transport: "stdio",
		HttpAddr:  ":8080",
		LogLevel:  "info",
		LogOutput: "f",
		LogFile:   "/tmp/podds.log",
	}
}

// Global configuration instance
var Config *PoddsConfig

// init initializes the global configuration with default values
func init() {
	Config = DefaultPoddsConfig()
}

// UpdateConfig allows updating the global configuration
func UpdateConfig(newConfig *PoddsConfig) error {
	if err := ValidateConfig(newConfig); err != nil {
		return err
	}
	Config = newConfig
	return nil
}

// === CONFIGURATION VALIDATION ===

// ValidateConfig ensures all configuration values are within reasonable ranges
func ValidateConfig(config *PoddsConfig) error {
	if config == nil {
		return fmt.Errorf("config must not be nil")
	}

	if config.ApiBaseURL == "" {
		return fmt.Errorf("ApiBaseURL must be set")
	}

	if config.MaxRetries < 0 {
		return fmt.Errorf("MaxRetries must not be negative, got: %d", config.MaxRetries)
	}

	if config.RateLimitPerMinute < 0 {
		return fmt.Errorf("RateLimitPerMinute must not be negative, got: %d", config.RateLimitPerMinute)
	}

	switch config.CacheBackend {
	case "memory", "sqlite", "redis", "none":
	default:
		return fmt.Errorf("CacheBackend must be one of memory, sqlite, redis or none, got: %q", config.CacheBackend)
	}

	if config.SeasonFloor < 1900 {
		return fmt.Errorf("SeasonFloor looks wrong, got: %d", config.SeasonFloor)
	}

	if config.HomeAdvantage <= 0 || config.HomeAdvantage > 3 {
		return fmt.Errorf("HomeAdvantage should be between 0 and 3, got: %f", config.HomeAdvantage)
	}

	if config.DefaultLeagueAverageGoals <= 0 {
		return fmt.Errorf("DefaultLeagueAverageGoals must be positive, got: %f", config.DefaultLeagueAverageGoals)
	}

	if config.LambdaFloor <= 0 {
		return fmt.Errorf("LambdaFloor must be positive, got: %f", config.LambdaFloor)
	}

	if config.GoalCap < 3 {
		return fmt.Errorf("GoalCap should be at least 3 to capture realistic scores, got: %d", config.GoalCap)
	}
	if config.GoalCap > MaxGoalCap {
		return fmt.Errorf("GoalCap should be at most %d, got: %d", MaxGoalCap, config.GoalCap)
	}

	weights := map[string]float64{
		"HeadToHeadWeight": config.HeadToHeadWeight,
		"MarketWeight":     config.MarketWeight,
		"BTTSThreshold":    config.BTTSThreshold,
		"OverThreshold":    config.OverThreshold,
	}
	for name, w := range weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got: %f", name, w)
		}
	}

	if config.HeadToHeadMaxGames < config.HeadToHeadMinGames {
		return fmt.Errorf("HeadToHeadMaxGames (%d) must not be below HeadToHeadMinGames (%d)",
			config.HeadToHeadMaxGames, config.HeadToHeadMinGames)
	}

	if config.PicksLegs < 1 {
		return fmt.Errorf("PicksLegs must be at least 1, got: %d", config.PicksLegs)
	}

	if config.PicksConcurrency < 1 {
		return fmt.Errorf("PicksConcurrency must be at least 1, got: %d", config.PicksConcurrency)
	}

	switch config.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("Transport must be stdio or http, got: %q", config.Transport)
	}

	return nil
}
