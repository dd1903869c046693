package podds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/richard-senior/podds/internal/logger"
	"github.com/richard-senior/podds/pkg/cache"
	"github.com/richard-senior/podds/pkg/transport"
)

// ApiFootballDatasource reads statistics from the API-Football v3 REST API.
// Every successful response is kept in the injected cache for the configured TTL
type ApiFootballDatasource struct {
	baseURL string
	apiKey  string
	client  *transport.HttpClient
	cache   cache.Cache
	ttl     time.Duration
}

var (
	_ StatsSource   = (*ApiFootballDatasource)(nil)
	_ FixtureSource = (*ApiFootballDatasource)(nil)
)

// NewApiFootballDatasource builds a datasource from cfg. A nil cache disables caching
func NewApiFootballDatasource(cfg *PoddsConfig, c cache.Cache) *ApiFootballDatasource {
	if c == nil {
		c = cache.Nop{}
	}
	return &ApiFootballDatasource{
		baseURL: strings.TrimRight(cfg.ApiBaseURL, "/"),
		apiKey:  cfg.ApiKey,
		client: transport.NewHttpClient(transport.HttpClientOptions{
			Timeout:            cfg.RequestTimeout,
			MaxRetries:         cfg.MaxRetries,
			RetryBackoff:       cfg.RetryBackoff,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
		}),
		cache: c,
		ttl:   cfg.CacheTTL,
	}
}

/////////////////////////////////////////////////////////////////////////
////// Provider payloads
/////////////////////////////////////////////////////////////////////////

type apiEnvelope struct {
	// errors is [] when fine and an object of messages otherwise
	Errors   json.RawMessage `json:"errors"`
	Response json.RawMessage `json:"response"`
}

type apiTeam struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type apiSplit struct {
	Home  *int `json:"home"`
	Away  *int `json:"away"`
	Total *int `json:"total"`
}

func (s apiSplit) venueSplit() VenueSplit {
	return VenueSplit{Home: intOr(s.Home, 0), Away: intOr(s.Away, 0), Total: intOr(s.Total, 0)}
}

type apiTeamStatistics struct {
	Team   apiTeam `json:"team"`
	League struct {
		ID     int `json:"id"`
		Season int `json:"season"`
	} `json:"league"`
	Form     string `json:"form"`
	Fixtures struct {
		Played apiSplit `json:"played"`
	} `json:"fixtures"`
	Goals struct {
		For struct {
			Total apiSplit `json:"total"`
		} `json:"for"`
		Against struct {
			Total apiSplit `json:"total"`
		} `json:"against"`
	} `json:"goals"`
}

type apiStanding struct {
	Rank int     `json:"rank"`
	Team apiTeam `json:"team"`
	All  struct {
		Played int `json:"played"`
		Goals  struct {
			For     int `json:"for"`
			Against int `json:"against"`
		} `json:"goals"`
	} `json:"all"`
}

type apiStandingsResponse struct {
	League struct {
		ID        int             `json:"id"`
		Season    int             `json:"season"`
		Standings [][]apiStanding `json:"standings"`
	} `json:"league"`
}

type apiFixture struct {
	Fixture struct {
		ID     int    `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID     int `json:"id"`
		Season int `json:"season"`
	} `json:"league"`
	Teams struct {
		Home apiTeam `json:"home"`
		Away apiTeam `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type apiOddsResponse struct {
	Bookmakers []struct {
		Name string `json:"name"`
		Bets []struct {
			Name   string `json:"name"`
			Values []struct {
				Value string `json:"value"`
				Odd   string `json:"odd"`
			} `json:"values"`
		} `json:"bets"`
	} `json:"bookmakers"`
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// isEmptyJSON reports whether raw is missing, null, [] or {}
func isEmptyJSON(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	switch string(t) {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}

/////////////////////////////////////////////////////////////////////////
////// Fetching
/////////////////////////////////////////////////////////////////////////

// fetch GETs endpoint through the cache and decodes the envelope's response into out
func (d *ApiFootballDatasource) fetch(ctx context.Context, endpoint string, params url.Values, out any) error {
	key := cache.Key(endpoint, params)

	data, err := d.cache.Get(ctx, key)
	cached := err == nil
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		logger.Warn("Cache read failed for", key, err)
	}
	if !cached {
		target := d.baseURL + endpoint
		if len(params) > 0 {
			target += "?" + params.Encode()
		}
		data, err = d.client.GetJSON(ctx, target, map[string]string{"x-apisports-key": d.apiKey})
		if err != nil {
			return &UpstreamFetchError{Endpoint: endpoint, Err: err}
		}
	}

	var env apiEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &UpstreamFetchError{Endpoint: endpoint, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if !isEmptyJSON(env.Errors) {
		return &UpstreamFetchError{Endpoint: endpoint, Err: fmt.Errorf("provider errors: %s", env.Errors)}
	}
	if isEmptyJSON(env.Response) {
		return fmt.Errorf("%s %s: %w", endpoint, params.Encode(), ErrNotFound)
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return &UpstreamFetchError{Endpoint: endpoint, Err: fmt.Errorf("unexpected response shape: %w", err)}
	}

	if !cached {
		if err := d.cache.Set(ctx, key, data, d.ttl); err != nil {
			logger.Warn("Cache write failed for", key, err)
		}
	}
	return nil
}

// TeamSeasonStatistics fetches one team's record for a league season
func (d *ApiFootballDatasource) TeamSeasonStatistics(ctx context.Context, teamID, leagueID, season int) (*TeamSeasonStatistics, error) {
	params := url.Values{}
	params.Set("team", strconv.Itoa(teamID))
	params.Set("league", strconv.Itoa(leagueID))
	params.Set("season", strconv.Itoa(season))

	var raw apiTeamStatistics
	if err := d.fetch(ctx, "/teams/statistics", params, &raw); err != nil {
		return nil, err
	}
	return &TeamSeasonStatistics{
		TeamID:       teamID,
		TeamName:     raw.Team.Name,
		LeagueID:     leagueID,
		Season:       season,
		Played:       raw.Fixtures.Played.venueSplit(),
		GoalsFor:     raw.Goals.For.Total.venueSplit(),
		GoalsAgainst: raw.Goals.Against.Total.venueSplit(),
		Form:         raw.Form,
	}, nil
}

// LeagueStandings fetches every group of a league table
func (d *ApiFootballDatasource) LeagueStandings(ctx context.Context, leagueID, season int) (*LeagueStandings, error) {
	params := url.Values{}
	params.Set("league", strconv.Itoa(leagueID))
	params.Set("season", strconv.Itoa(season))

	var raw []apiStandingsResponse
	if err := d.fetch(ctx, "/standings", params, &raw); err != nil {
		return nil, err
	}
	ls := &LeagueStandings{LeagueID: leagueID, Season: season}
	for _, r := range raw {
		for _, group := range r.League.Standings {
			entries := make([]StandingEntry, 0, len(group))
			for _, s := range group {
				entries = append(entries, StandingEntry{
					TeamID:       s.Team.ID,
					TeamName:     s.Team.Name,
					Rank:         s.Rank,
					Played:       s.All.Played,
					GoalsFor:     s.All.Goals.For,
					GoalsAgainst: s.All.Goals.Against,
				})
			}
			ls.Groups = append(ls.Groups, entries)
		}
	}
	return ls, nil
}

// HeadToHead fetches past meetings of two teams. No meetings is not an error
func (d *ApiFootballDatasource) HeadToHead(ctx context.Context, teamA, teamB int) ([]Fixture, error) {
	params := url.Values{}
	params.Set("h2h", fmt.Sprintf("%d-%d", teamA, teamB))

	var raw []apiFixture
	if err := d.fetch(ctx, "/fixtures/headtohead", params, &raw); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return convertFixtures(raw), nil
}

// FixtureOdds returns the first bookmaker's match winner prices, nil when none are offered
func (d *ApiFootballDatasource) FixtureOdds(ctx context.Context, fixtureID int) (*MarketOdds, error) {
	params := url.Values{}
	params.Set("fixture", strconv.Itoa(fixtureID))

	var raw []apiOddsResponse
	if err := d.fetch(ctx, "/odds", params, &raw); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(raw) == 0 || len(raw[0].Bookmakers) == 0 {
		return nil, nil
	}
	bm := raw[0].Bookmakers[0]
	for _, bet := range bm.Bets {
		if bet.Name != "Match Winner" {
			continue
		}
		odds := &MarketOdds{Bookmaker: bm.Name}
		for _, v := range bet.Values {
			price, err := strconv.ParseFloat(v.Odd, 64)
			if err != nil {
				logger.Warn(fmt.Sprintf("unparseable odd %q for fixture %d", v.Odd, fixtureID))
				continue
			}
			switch v.Value {
			case "Home":
				odds.Home = price
			case "Draw":
				odds.Draw = price
			case "Away":
				odds.Away = price
			}
		}
		return odds, nil
	}
	return nil, nil
}

// FixturesByDate lists a league's fixtures on one day
func (d *ApiFootballDatasource) FixturesByDate(ctx context.Context, leagueID, season int, date time.Time) ([]Fixture, error) {
	params := url.Values{}
	params.Set("league", strconv.Itoa(leagueID))
	params.Set("season", strconv.Itoa(season))
	params.Set("date", date.Format(time.DateOnly))

	var raw []apiFixture
	if err := d.fetch(ctx, "/fixtures", params, &raw); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	fixtures := convertFixtures(raw)
	for i := range fixtures {
		if fixtures[i].LeagueID == 0 {
			fixtures[i].LeagueID = leagueID
		}
	}
	return fixtures, nil
}

func convertFixtures(raw []apiFixture) []Fixture {
	fixtures := make([]Fixture, 0, len(raw))
	for _, r := range raw {
		date, err := time.Parse(time.RFC3339, r.Fixture.Date)
		if err != nil {
			logger.Debug(fmt.Sprintf("fixture %d has unparseable date %q", r.Fixture.ID, r.Fixture.Date))
		}
		fixtures = append(fixtures, Fixture{
			ID:           r.Fixture.ID,
			Date:         date,
			LeagueID:     r.League.ID,
			Season:       r.League.Season,
			Status:       r.Fixture.Status.Short,
			HomeTeamID:   r.Teams.Home.ID,
			HomeTeamName: r.Teams.Home.Name,
			AwayTeamID:   r.Teams.Away.ID,
			AwayTeamName: r.Teams.Away.Name,
			HomeGoals:    intOr(r.Goals.Home, -1),
			AwayGoals:    intOr(r.Goals.Away, -1),
		})
	}
	return fixtures
}

// CacheOptions maps the cache section of cfg onto cache.Options
func CacheOptions(cfg *PoddsConfig) cache.Options {
	return cache.Options{
		Backend:       cfg.CacheBackend,
		Path:          cfg.CachePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}
}
