package podds

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/richard-senior/podds/internal/logger"
)

// FixtureSource lists the fixtures of a league on one day
type FixtureSource interface {
	FixturesByDate(ctx context.Context, leagueID, season int, date time.Time) ([]Fixture, error)
}

// PickLeg is one selection on a picks ticket
type PickLeg struct {
	FixtureID   int       `json:"fixtureId"`
	LeagueID    int       `json:"leagueId"`
	Kickoff     time.Time `json:"kickoff"`
	HomeTeam    string    `json:"homeTeam"`
	AwayTeam    string    `json:"awayTeam"`
	Market      string    `json:"market"`
	Selection   string    `json:"selection"`
	Probability float64   `json:"probability"`
	// Odds is the bookmaker price for 1X2 selections, 0 when there is none
	Odds float64 `json:"odds"`
}

// PicksTicket is a multi leg recommendation for one day
type PicksTicket struct {
	ID                  string    `json:"id"`
	Date                string    `json:"date"`
	Legs                []PickLeg `json:"legs"`
	CombinedProbability float64   `json:"combinedProbability"`
	CombinedOdds        float64   `json:"combinedOdds"`
	FixturesScanned     int       `json:"fixturesScanned"`
}

// PicksOptions narrows a scan. Zero values fall back to configuration
type PicksOptions struct {
	Date    time.Time
	Leagues []int
	Legs    int
}

// PicksScanner predicts every fixture of a day and keeps the most confident selections
type PicksScanner struct {
	fixtures  FixtureSource
	predictor *Predictor
	cfg       *PoddsConfig
}

// NewPicksScanner returns a scanner. A nil cfg uses the global Config
func NewPicksScanner(fixtures FixtureSource, predictor *Predictor, cfg *PoddsConfig) *PicksScanner {
	if cfg == nil {
		cfg = Config
	}
	return &PicksScanner{fixtures: fixtures, predictor: predictor, cfg: cfg}
}

// SeasonForDate returns the starting year of the season a date falls in.
// Seasons are taken to start in July
func SeasonForDate(date time.Time) int {
	if date.Month() >= time.July {
		return date.Year()
	}
	return date.Year() - 1
}

// Scan builds the ticket for opts.Date
func (s *PicksScanner) Scan(ctx context.Context, opts PicksOptions) (*PicksTicket, error) {
	date := opts.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	leagues := opts.Leagues
	if len(leagues) == 0 {
		leagues = s.cfg.PicksLeagues
	}
	legs := opts.Legs
	if legs <= 0 {
		legs = s.cfg.PicksLegs
	}
	season := SeasonForDate(date)

	var upcoming []Fixture
	for _, league := range leagues {
		fixtures, err := s.fixtures.FixturesByDate(ctx, league, season, date)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn(fmt.Sprintf("no fixtures for league %d on %s", league, date.Format(time.DateOnly)), err)
			continue
		}
		for _, f := range fixtures {
			if f.IsUpcoming() {
				upcoming = append(upcoming, f)
			}
		}
	}

	candidates := make([]*PickLeg, len(upcoming))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PicksConcurrency)
	for i, f := range upcoming {
		i, f := i, f
		g.Go(func() error {
			result, err := s.predictor.PredictMatch(gctx, MatchRequest{
				HomeTeamID: f.HomeTeamID,
				AwayTeamID: f.AwayTeamID,
				LeagueID:   f.LeagueID,
				Season:     season,
				FixtureID:  f.ID,
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn(fmt.Sprintf("skipping fixture %d", f.ID), err)
				return nil
			}
			leg := strongestMarket(f, result, s.cfg.OverUnderLine)
			candidates[i] = &leg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var qualified []PickLeg
	for _, leg := range candidates {
		if leg != nil && leg.Probability >= s.cfg.PicksMinConfidence {
			qualified = append(qualified, *leg)
		}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		if qualified[i].Probability != qualified[j].Probability {
			return qualified[i].Probability > qualified[j].Probability
		}
		return qualified[i].FixtureID < qualified[j].FixtureID
	})
	if len(qualified) > legs {
		qualified = qualified[:legs]
	}

	ticket := &PicksTicket{
		ID:              uuid.NewString(),
		Date:            date.Format(time.DateOnly),
		Legs:            qualified,
		FixturesScanned: len(upcoming),
	}
	if len(qualified) > 0 {
		ticket.CombinedProbability, ticket.CombinedOdds = 1, 1
		for _, leg := range qualified {
			ticket.CombinedProbability *= leg.Probability
			ticket.CombinedOdds *= leg.Odds
		}
	}
	logger.Info(fmt.Sprintf("picks ticket %s has %d legs from %d fixtures", ticket.ID, len(ticket.Legs), len(upcoming)))
	return ticket, nil
}

// strongestMarket returns the single most probable selection of a prediction
func strongestMarket(f Fixture, r *PredictionResult, overLine float64) PickLeg {
	p := r.Probabilities
	line := fmt.Sprintf("%g", overLine)
	var home, draw, away float64
	if r.MarketOdds != nil {
		home, draw, away = r.MarketOdds.Home, r.MarketOdds.Draw, r.MarketOdds.Away
	}
	options := []PickLeg{
		{Market: "1X2", Selection: r.Meta.HomeTeamName, Probability: p.Outcome.Home, Odds: home},
		{Market: "1X2", Selection: "Draw", Probability: p.Outcome.Draw, Odds: draw},
		{Market: "1X2", Selection: r.Meta.AwayTeamName, Probability: p.Outcome.Away, Odds: away},
		{Market: "Goals " + line, Selection: "Over", Probability: p.Over},
		{Market: "Goals " + line, Selection: "Under", Probability: p.Under},
		{Market: "BTTS", Selection: "Yes", Probability: p.BothTeamsScore},
		{Market: "BTTS", Selection: "No", Probability: 1 - p.BothTeamsScore},
	}
	best := options[0]
	for _, o := range options[1:] {
		if o.Probability > best.Probability {
			best = o
		}
	}
	best.FixtureID = f.ID
	best.LeagueID = f.LeagueID
	best.Kickoff = f.Date
	best.HomeTeam = r.Meta.HomeTeamName
	best.AwayTeam = r.Meta.AwayTeamName
	return best
}
