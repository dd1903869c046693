package podds

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultPoddsConfig()
	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, 1.2, cfg.HomeAdvantage)
	assert.Equal(t, 2.5, cfg.DefaultLeagueAverageGoals)
	assert.Equal(t, 5, cfg.GoalCap)
	assert.Equal(t, 0.4, cfg.HeadToHeadWeight)
	assert.Equal(t, 0.3, cfg.MarketWeight)
	assert.Equal(t, 3, cfg.HeadToHeadMinGames)
	assert.Equal(t, 10, cfg.HeadToHeadMaxGames)
}

func TestValidateConfigRejects(t *testing.T) {
	cases := map[string]func(*PoddsConfig){
		"no base url":    func(c *PoddsConfig) { c.ApiBaseURL = "" },
		"cache backend":  func(c *PoddsConfig) { c.CacheBackend = "memcached" },
		"home advantage": func(c *PoddsConfig) { c.HomeAdvantage = 0 },
		"lambda floor":   func(c *PoddsConfig) { c.LambdaFloor = 0 },
		"goal cap":       func(c *PoddsConfig) { c.GoalCap = 2 },
		"huge goal cap":  func(c *PoddsConfig) { c.GoalCap = MaxGoalCap + 1 },
		"market weight":  func(c *PoddsConfig) { c.MarketWeight = 1.5 },
		"h2h window":     func(c *PoddsConfig) { c.HeadToHeadMaxGames = 2 },
		"legs":           func(c *PoddsConfig) { c.PicksLegs = 0 },
		"transport":      func(c *PoddsConfig) { c.Transport = "grpc" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultPoddsConfig()
			mutate(cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
	assert.Error(t, ValidateConfig(nil))
}

func TestUpdateConfig(t *testing.T) {
	original := Config
	t.Cleanup(func() { Config = original })

	bad := DefaultPoddsConfig()
	bad.GoalCap = 1
	require.Error(t, UpdateConfig(bad))
	assert.Same(t, original, Config)

	good := DefaultPoddsConfig()
	good.MarketWeight = 0.5
	require.NoError(t, UpdateConfig(good))
	assert.Same(t, good, Config)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigToml(t *testing.T) {
	path := writeFile(t, "podds.toml", `
api_key = "from-file"
cache_backend = "sqlite"
season_floor = 2018
market_weight = 0.25
picks_leagues = [39, 40]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ApiKey)
	assert.Equal(t, "sqlite", cfg.CacheBackend)
	assert.Equal(t, 2018, cfg.SeasonFloor)
	assert.Equal(t, 0.25, cfg.MarketWeight)
	assert.Equal(t, []int{39, 40}, cfg.PicksLeagues)
	assert.Equal(t, 1.2, cfg.HomeAdvantage, "unset keys keep their defaults")
}

func TestLoadConfigYaml(t *testing.T) {
	path := writeFile(t, "podds.yaml", `
api_key: from-yaml
transport: http
http_addr: ":9090"
goal_cap: 6
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.ApiKey)
	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, ":9090", cfg.HttpAddr)
	assert.Equal(t, 6, cfg.GoalCap)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	path := writeFile(t, "podds.toml", `api_key = "from-file"`)
	t.Setenv("PODDS_API_KEY", "from-env")
	t.Setenv("PODDS_CACHE_TTL", "90s")
	t.Setenv("PODDS_PICKS_LEAGUES", "39, 78")
	t.Setenv("PODDS_SEASON_FLOOR", "not-a-number")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ApiKey)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, []int{39, 78}, cfg.PicksLeagues)
	assert.Equal(t, 2015, cfg.SeasonFloor, "unparseable values are ignored")
}

func TestLoadConfigFailures(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "podds.ini", "api_key=x"))
	assert.ErrorContains(t, err, "unsupported config file type")

	_, err = LoadConfig(writeFile(t, "podds.toml", `goal_cap = 1`))
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPoddsConfig().ApiBaseURL, cfg.ApiBaseURL)
}
