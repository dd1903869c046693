package podds

import (
	"context"
	"fmt"

	"github.com/richard-senior/podds/internal/logger"
)

// StatsSource supplies the statistics a prediction is built from
type StatsSource interface {
	TeamSeasonStatistics(ctx context.Context, teamID, leagueID, season int) (*TeamSeasonStatistics, error)
	LeagueStandings(ctx context.Context, leagueID, season int) (*LeagueStandings, error)
	// HeadToHead returns past meetings of the two teams in any order
	HeadToHead(ctx context.Context, teamA, teamB int) ([]Fixture, error)
	// FixtureOdds returns nil odds with a nil error when no market is offered
	FixtureOdds(ctx context.Context, fixtureID int) (*MarketOdds, error)
}

// Predictor runs the match model against a StatsSource
type Predictor struct {
	src StatsSource
	cfg *PoddsConfig
}

// NewPredictor returns a predictor reading from src. A nil cfg uses the global Config
func NewPredictor(src StatsSource, cfg *PoddsConfig) *Predictor {
	if cfg == nil {
		cfg = Config
	}
	return &Predictor{src: src, cfg: cfg}
}

// PredictMatch produces a prediction for the requested fixture. The only model failure is
// a *NoUsableStatisticsError. Head-to-head and odds lookups that fail are skipped
func (p *Predictor) PredictMatch(ctx context.Context, req MatchRequest) (*PredictionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cfg := p.cfg

	rs, err := ResolveSeason(ctx, p.src, req, cfg.SeasonFloor)
	if err != nil {
		return nil, err
	}

	ge := ExpectedGoals(rs.Home, rs.Away, rs.Standings, cfg)
	base := Distribute(ge.Home, ge.Away, cfg.GoalCap, cfg.OverUnderLine)
	probs := base.Outcome
	logger.Debug(fmt.Sprintf("expected goals %d v %d", req.HomeTeamID, req.AwayTeamID), ge.Home, ge.Away)

	h2h, err := p.headToHead(ctx, req)
	if err != nil {
		return nil, err
	}
	probs, ge, h2hBlended := BlendHeadToHead(probs, ge, h2h, cfg)

	odds, err := p.odds(ctx, req)
	if err != nil {
		return nil, err
	}
	probs, ge, mktBlended := BlendMarket(probs, ge, odds, cfg)
	if mktBlended {
		logger.Debug(fmt.Sprintf("blended %s prices for fixture %d, margin", odds.Bookmaker, req.FixtureID), odds.Overround())
	}

	// BTTS, over/under and the scoreline come from the final expectancies,
	// the outcome triple stays as blended
	final := Distribute(ge.Home, ge.Away, cfg.GoalCap, cfg.OverUnderLine)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buildResult(assembly{
		req:        req,
		season:     rs,
		poisson:    base.Outcome,
		final:      probs,
		expectancy: ge,
		scorelines: final,
		h2h:        h2h,
		odds:       odds,
		h2hBlended: h2hBlended,
		mktBlended: mktBlended,
	}, cfg), nil
}

// headToHead returns an empty record when the lookup fails, only cancellation is an error
func (p *Predictor) headToHead(ctx context.Context, req MatchRequest) (HeadToHeadRecord, error) {
	fixtures, err := p.src.HeadToHead(ctx, req.HomeTeamID, req.AwayTeamID)
	if err != nil {
		if ctx.Err() != nil {
			return HeadToHeadRecord{}, ctx.Err()
		}
		logger.Warn(fmt.Sprintf("head to head unavailable for %d v %d", req.HomeTeamID, req.AwayTeamID), err)
		return HeadToHeadRecord{}, nil
	}
	return ParseHeadToHead(fixtures, req.HomeTeamID, req.AwayTeamID, p.cfg.HeadToHeadMaxGames), nil
}

// odds returns nil when there is no fixture id or no usable market
func (p *Predictor) odds(ctx context.Context, req MatchRequest) (*MarketOdds, error) {
	if req.FixtureID <= 0 {
		return nil, nil
	}
	odds, err := p.src.FixtureOdds(ctx, req.FixtureID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn(fmt.Sprintf("odds unavailable for fixture %d", req.FixtureID), err)
		return nil, nil
	}
	if !odds.Valid() {
		logger.Info(fmt.Sprintf("ignoring unusable odds for fixture %d", req.FixtureID))
		return nil, nil
	}
	return odds, nil
}
