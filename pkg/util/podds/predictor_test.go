package podds

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var percentPattern = regexp.MustCompile(`^\d{1,3}%$`)

func newTestPredictor(src StatsSource) *Predictor {
	cfg := DefaultPoddsConfig()
	return NewPredictor(src, cfg)
}

func TestPredictMatch(t *testing.T) {
	src := newFakeSource()
	src.seedSeason(2023)
	req := MatchRequest{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 39, Season: 2025}

	res, err := newTestPredictor(src).PredictMatch(context.Background(), req)
	require.NoError(t, err)

	p := res.Predictions
	assert.Equal(t, Winner{ID: 1, Name: "Arsenal"}, p.Winner)
	assert.Equal(t, "2.00", p.Goals.Home)
	assert.Equal(t, "1.60", p.Goals.Away)
	// λh=2 puts equal mass on 1 and 2 home goals, rounding decides which comes first
	assert.Contains(t, []string{"1 - 1", "2 - 1"}, p.MostProbableScore)
	assert.Regexp(t, `^Based on 2023/2024 statistics, Arsenal are favourites at home \(\d+%\)\.`, p.Advice)
	for _, s := range []string{p.Percent.Home, p.Percent.Draw, p.Percent.Away} {
		assert.Regexp(t, percentPattern, s)
	}
	assert.InDelta(t, 100-p.OverProbability, p.UnderProbability, 0.1001)
	assert.Equal(t, p.BTTS, res.Probabilities.BothTeamsScore > 0.5)
	assert.Contains(t, []string{"+2.5", "-2.5"}, p.UnderOver)

	c := res.Comparison
	assert.Equal(t, SidePair{Home: "70%", Away: "40%"}, c.Form)
	assert.Equal(t, SidePair{Home: "56%", Away: "44%"}, c.Att)
	assert.Equal(t, c.Att, c.Def)
	assert.Equal(t, SidePair{Home: "71%", Away: "29%"}, c.Goals)
	assert.Equal(t, 0, c.H2H.TotalGames)
	assert.Equal(t, "0%", c.H2H.Home)

	assert.Nil(t, res.MarketOdds)
	assert.Equal(t, res.Probabilities.Poisson, res.Probabilities.Outcome)
	assert.InDelta(t, 1.0, res.Probabilities.Outcome.Sum(), 1e-9)
	assert.Equal(t, 2023, res.Meta.Season)
	assert.Equal(t, 2025, res.Meta.RequestedSeason)
	assert.Equal(t, []int{2025, 2024, 2023}, res.Meta.SeasonsAttempted)
	assert.False(t, res.Meta.HeadToHeadBlended)
	assert.False(t, res.Meta.MarketBlended)
	assert.NotContains(t, src.calls, "odds 0", "no fixture means no odds lookup")
}

func TestPredictMatchJSONShape(t *testing.T) {
	src := newFakeSource()
	src.seedSeason(2023)

	res, err := newTestPredictor(src).PredictMatch(context.Background(), MatchRequest{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 39, Season: 2023})
	require.NoError(t, err)
	data, err := json.Marshal(res)
	require.NoError(t, err)

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "market_odds")
	assert.Nil(t, doc["market_odds"])
	for _, key := range []string{"winner", "advice", "mostProbableScore", "btts", "under_over", "goals", "percent",
		"btts_probability", "over_2_5_probability", "under_2_5_probability"} {
		assert.Contains(t, doc["predictions"], key)
	}
	for _, key := range []string{"form", "att", "def", "poisson_distribution", "h2h", "goals", "total"} {
		assert.Contains(t, doc["comparison"], key)
	}
}

func TestPredictMatchBlendsHeadToHead(t *testing.T) {
	src := newFakeSource()
	src.seedSeason(2023)
	src.h2h = []Fixture{
		meeting(1, 10, 1, 2, 3, 0),
		meeting(2, 20, 2, 1, 0, 2),
		meeting(3, 30, 1, 2, 1, 0),
	}

	res, err := newTestPredictor(src).PredictMatch(context.Background(), MatchRequest{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 39, Season: 2023})
	require.NoError(t, err)
	assert.True(t, res.Meta.HeadToHeadBlended)
	assert.Greater(t, res.Probabilities.Outcome.Home, res.Probabilities.Poisson.Home)
	assert.InDelta(t, 1.0, res.Probabilities.Outcome.Sum(), 1e-9)
	assert.InDelta(t, 3.6, res.Probabilities.Expectancy.Total(), 1e-9, "blending moves goals between sides only")
	assert.Equal(t, HeadToHeadComparison{Home: "100%", Draw: "0%", Away: "0%", TotalGames: 3}, res.Comparison.H2H)

	home, err := strconv.ParseFloat(res.Predictions.Goals.Home, 64)
	require.NoError(t, err)
	assert.Greater(t, home, 2.0)
}

func TestPredictMatchIgnoresFailedHeadToHead(t *testing.T) {
	src := newFakeSource()
	src.seedSeason(2023)
	src.h2h = []Fixture{meeting(1, 10, 1, 2, 3, 0), meeting(2, 20, 1, 2, 3, 0), meeting(3, 30, 1, 2, 3, 0)}
	src.h2hErr = errors.New("provider down")

	res, err := newTestPredictor(src).PredictMatch(context.Background(), MatchRequest{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 39, Season: 2023})
	require.NoError(t, err)
	assert.False(t, res.Meta.HeadToHeadBlended)
	assert.Equal(t, 0, res.Comparison.H2H.TotalGames)
}

func TestPredictMatchBlendsMarket(t *testing.T) {
	src := newFakeSource()
	src.seedSeason(2023)
	src.odds[77] = &MarketOdds{Bookmaker: "Bet365", Home: 4.0, Draw: 3.5, Away: 1.9}

	res, err := newTestPredictor(src).PredictMatch(context.Background(), MatchRequest{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 39, Season: 2023, FixtureID: 77})
	require.NoError(t, err)
	require.NotNil(t, res.MarketOdds)
	assert.Equal(t, "Bet365", res.MarketOdds.Bookmaker)
	assert.True(t, res.Meta.MarketBlended)
	assert.Less(t, res.Probabilities.Outcome.Home, res.Probabilities.Poisson.Home)
	assert.Equal(t, 77, res.Meta.FixtureID)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"market_odds":{"bookmaker":"Bet365"`)
}

func TestPredictMatchBlendsHeadToHeadThenMarket(t *testing.T) {
	src := newFakeSource()
	src.seedSeason(2023)
	src.h2h = []Fixture{
		meeting(1, 10, 1, 2, 3, 0),
		meeting(2, 20, 2, 1, 0, 2),
		meeting(3, 30, 1, 2, 1, 1),
	}
	odds := &MarketOdds{Bookmaker: "Bet365", Home: 4.0, Draw: 3.5, Away: 1.9}
	src.odds[77] = odds
	cfg := DefaultPoddsConfig()

	res, err := NewPredictor(src, cfg).PredictMatch(context.Background(), MatchRequest{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 39, Season: 2023, FixtureID: 77})
	require.NoError(t, err)
	assert.True(t, res.Meta.HeadToHeadBlended)
	assert.True(t, res.Meta.MarketBlended)

	rec := ParseHeadToHead(src.h2h, 1, 2, cfg.HeadToHeadMaxGames)
	require.Equal(t, 3, rec.TotalGames)
	afterH2H, geH2H, ok := BlendHeadToHead(res.Probabilities.Poisson, GoalExpectancy{Home: 2.0, Away: 1.6}, rec, cfg)
	require.True(t, ok)
	want, wantGE, ok := BlendMarket(afterH2H, geH2H, odds, cfg)
	require.True(t, ok)

	got := res.Probabilities.Outcome
	assert.InDelta(t, want.Home, got.Home, 1e-9)
	assert.InDelta(t, want.Draw, got.Draw, 1e-9)
	assert.InDelta(t, want.Away, got.Away, 1e-9)
	assert.InDelta(t, wantGE.Home, res.Probabilities.Expectancy.Home, 1e-9)
	assert.InDelta(t, wantGE.Away, res.Probabilities.Expectancy.Away, 1e-9)
	assert.InDelta(t, geH2H.Total(), res.Probabilities.Expectancy.Total(), 1e-9, "the market stage spreads the head to head total")

	marketOnly, _, _ := BlendMarket(res.Probabilities.Poisson, GoalExpectancy{Home: 2.0, Away: 1.6}, odds, cfg)
	assert.NotEqual(t, marketOnly.Home, got.Home, "the market stage starts from the head to head blend")
}

func TestPredictMatchSkipsUnusableOdds(t *testing.T) {
	src := newFakeSource()
	src.seedSeason(2023)
	src.odds[77] = &MarketOdds{Home: 1.0, Draw: 3.5, Away: 1.9}

	res, err := newTestPredictor(src).PredictMatch(context.Background(), MatchRequest{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 39, Season: 2023, FixtureID: 77})
	require.NoError(t, err)
	assert.Nil(t, res.MarketOdds)
	assert.False(t, res.Meta.MarketBlended)

	src.odds[77] = nil
	src.oddsErr = errors.New("quota exceeded")
	res, err = newTestPredictor(src).PredictMatch(context.Background(), MatchRequest{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 39, Season: 2023, FixtureID: 77})
	require.NoError(t, err)
	assert.Nil(t, res.MarketOdds)
}

func TestPredictMatchErrors(t *testing.T) {
	src := newFakeSource()
	p := newTestPredictor(src)

	_, err := p.PredictMatch(context.Background(), MatchRequest{HomeTeamID: 1, AwayTeamID: 1, LeagueID: 39, Season: 2023})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = p.PredictMatch(context.Background(), MatchRequest{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 39, Season: 2023})
	var noStats *NoUsableStatisticsError
	assert.ErrorAs(t, err, &noStats)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.PredictMatch(ctx, MatchRequest{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 39, Season: 2023})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictMatchUsesFallbackNames(t *testing.T) {
	src := newFakeSource()
	src.seedSeason(2023)
	src.stats[statsKey{2, 2023}].TeamName = ""

	res, err := newTestPredictor(src).PredictMatch(context.Background(), MatchRequest{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 39, Season: 2023})
	require.NoError(t, err)
	assert.Equal(t, "Team 2", res.Meta.AwayTeamName)
}
