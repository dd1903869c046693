package processor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/podds/pkg/cache"
	"github.com/richard-senior/podds/pkg/util/podds"
)

type seasonSource struct{}

func (seasonSource) TeamSeasonStatistics(_ context.Context, teamID, leagueID, season int) (*podds.TeamSeasonStatistics, error) {
	return &podds.TeamSeasonStatistics{
		TeamID:       teamID,
		LeagueID:     leagueID,
		Season:       season,
		Played:       podds.VenueSplit{Home: 5, Away: 5, Total: 10},
		GoalsFor:     podds.VenueSplit{Home: 9, Away: 6, Total: 15},
		GoalsAgainst: podds.VenueSplit{Home: 4, Away: 7, Total: 11},
	}, nil
}

func (seasonSource) LeagueStandings(_ context.Context, leagueID, season int) (*podds.LeagueStandings, error) {
	return &podds.LeagueStandings{LeagueID: leagueID, Season: season, Groups: [][]podds.StandingEntry{{
		{TeamID: 1, Played: 10, GoalsFor: 15, GoalsAgainst: 11},
	}}}, nil
}

func (seasonSource) HeadToHead(context.Context, int, int) ([]podds.Fixture, error) { return nil, nil }

func (seasonSource) FixtureOdds(context.Context, int) (*podds.MarketOdds, error) { return nil, nil }

func (seasonSource) FixturesByDate(context.Context, int, int, time.Time) ([]podds.Fixture, error) {
	return nil, nil
}

func TestProcessRequest(t *testing.T) {
	cfg := podds.DefaultPoddsConfig()
	p := NewWithSources(cfg, cache.NewMemoryCache(), seasonSource{}, seasonSource{})
	defer p.Close()
	assert.Nil(t, p.Datasource)
	require.NotNil(t, p.Tools)

	out, err := p.ProcessRequest(context.Background(), []byte(`{"home": 33, "away": 34, "league": 39, "season": 2024}`))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Contains(t, doc, "predictions")
	assert.Contains(t, doc, "comparison")
	assert.Contains(t, string(out), "\n  \"predictions\"", "output is indented")

	_, err = p.ProcessRequest(context.Background(), []byte(`{"home": "x"`))
	assert.ErrorContains(t, err, "invalid request JSON")

	_, err = p.ProcessRequest(context.Background(), []byte(`{"home": 33, "away": 33, "league": 39, "season": 2024}`))
	assert.ErrorIs(t, err, podds.ErrInvalidRequest)
}

func TestNewBuildsDatasource(t *testing.T) {
	cfg := podds.DefaultPoddsConfig()
	cfg.CacheBackend = "none"
	p, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer p.Close()
	assert.NotNil(t, p.Datasource)
	assert.IsType(t, cache.Nop{}, p.Cache)

	cfg.CacheBackend = "sqlite"
	cfg.CachePath = t.TempDir() + "/cache.db"
	p, err = New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &cache.SQLiteCache{}, p.Cache)
	require.NoError(t, p.Close())
}

func TestNewPurgesExpiredSQLiteEntries(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/cache.db"

	sc, err := cache.NewSQLiteCache(ctx, path)
	require.NoError(t, err)
	require.NoError(t, sc.Set(ctx, "fixtures?date=2024-01-01", []byte(`[]`), time.Nanosecond))
	require.NoError(t, sc.Set(ctx, "teams/statistics?team=42", []byte(`{}`), time.Hour))
	require.NoError(t, sc.Close())

	cfg := podds.DefaultPoddsConfig()
	cfg.CacheBackend = "sqlite"
	cfg.CachePath = path
	p, err := New(ctx, cfg)
	require.NoError(t, err)
	defer p.Close()

	assert.Zero(t, purgeExpired(ctx, p.Cache), "startup already removed the expired row")
	data, err := p.Cache.Get(ctx, "teams/statistics?team=42")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	assert.Zero(t, purgeExpired(ctx, cache.NewMemoryCache()), "only persistent caches are purged")
}
