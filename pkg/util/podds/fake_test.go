package podds

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type statsKey struct {
	team   int
	season int
}

// fakeSource serves canned statistics keyed by team and season
type fakeSource struct {
	mu        sync.Mutex
	stats     map[statsKey]*TeamSeasonStatistics
	standings map[int]*LeagueStandings
	h2h       []Fixture
	h2hErr    error
	odds      map[int]*MarketOdds
	oddsErr   error
	fixtures  map[int][]Fixture
	calls     []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		stats:     make(map[statsKey]*TeamSeasonStatistics),
		standings: make(map[int]*LeagueStandings),
		odds:      make(map[int]*MarketOdds),
		fixtures:  make(map[int][]Fixture),
	}
}

func (f *fakeSource) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeSource) TeamSeasonStatistics(ctx context.Context, teamID, leagueID, season int) (*TeamSeasonStatistics, error) {
	f.record(fmt.Sprintf("stats %d %d", teamID, season))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ts, ok := f.stats[statsKey{teamID, season}]
	if !ok {
		return nil, &UpstreamFetchError{Endpoint: "/teams/statistics", Err: ErrNotFound}
	}
	return ts, nil
}

func (f *fakeSource) LeagueStandings(ctx context.Context, leagueID, season int) (*LeagueStandings, error) {
	f.record(fmt.Sprintf("standings %d %d", leagueID, season))
	ls, ok := f.standings[season]
	if !ok {
		return nil, ErrNotFound
	}
	return ls, nil
}

func (f *fakeSource) HeadToHead(ctx context.Context, teamA, teamB int) ([]Fixture, error) {
	f.record(fmt.Sprintf("h2h %d %d", teamA, teamB))
	return f.h2h, f.h2hErr
}

func (f *fakeSource) FixtureOdds(ctx context.Context, fixtureID int) (*MarketOdds, error) {
	f.record(fmt.Sprintf("odds %d", fixtureID))
	if f.oddsErr != nil {
		return nil, f.oddsErr
	}
	return f.odds[fixtureID], nil
}

func (f *fakeSource) FixturesByDate(ctx context.Context, leagueID, season int, date time.Time) ([]Fixture, error) {
	f.record(fmt.Sprintf("fixtures %d %d", leagueID, season))
	return f.fixtures[leagueID], nil
}

// teamStats builds a season record from venue splits
func teamStats(id, season int, name string, playedHome, playedAway, gfHome, gfAway, gaHome, gaAway int, form string) *TeamSeasonStatistics {
	return &TeamSeasonStatistics{
		TeamID:       id,
		TeamName:     name,
		Season:       season,
		Played:       VenueSplit{Home: playedHome, Away: playedAway, Total: playedHome + playedAway},
		GoalsFor:     VenueSplit{Home: gfHome, Away: gfAway, Total: gfHome + gfAway},
		GoalsAgainst: VenueSplit{Home: gaHome, Away: gaAway, Total: gaHome + gaAway},
		Form:         form,
	}
}

// standingsWithAverage returns a single group whose goals per match is avg
func standingsWithAverage(season int, avg float64) *LeagueStandings {
	goals := int(avg * 10)
	return &LeagueStandings{
		LeagueID: 39,
		Season:   season,
		Groups: [][]StandingEntry{{
			{TeamID: 1, Played: 10, GoalsFor: goals - goals/2, GoalsAgainst: goals / 2},
		}},
	}
}

// seedSeason makes teams 1 (home) and 2 (away) usable in season
func (f *fakeSource) seedSeason(season int) {
	f.stats[statsKey{1, season}] = teamStats(1, season, "Arsenal", 10, 10, 20, 12, 5, 10, "WWDWL")
	f.stats[statsKey{2, season}] = teamStats(2, season, "Chelsea", 10, 10, 15, 8, 9, 12, "LDWDL")
	f.standings[season] = standingsWithAverage(season, 2.5)
}

func meeting(id int, daysAgo int, homeID, awayID, homeGoals, awayGoals int) Fixture {
	return Fixture{
		ID:         id,
		Date:       time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo),
		Status:     "FT",
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		HomeGoals:  homeGoals,
		AwayGoals:  awayGoals,
	}
}
