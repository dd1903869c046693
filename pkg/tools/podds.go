package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/richard-senior/podds/internal/logger"
	"github.com/richard-senior/podds/pkg/protocol"
	"github.com/richard-senior/podds/pkg/transport"
	"github.com/richard-senior/podds/pkg/util"
	"github.com/richard-senior/podds/pkg/util/podds"
)

// ErrInvalidParams marks an error caused by the caller's arguments
var ErrInvalidParams = errors.New("invalid params")

// HandlerFunc runs a tool with its decoded arguments
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Definition pairs a tool description with its handler
type Definition struct {
	Tool    protocol.Tool
	Handler HandlerFunc
}

// Podds exposes match prediction and daily picks as MCP tools
type Podds struct {
	predictor *podds.Predictor
	scanner   *podds.PicksScanner
	cfg       *podds.PoddsConfig
}

func NewPodds(predictor *podds.Predictor, scanner *podds.PicksScanner, cfg *podds.PoddsConfig) *Podds {
	if cfg == nil {
		cfg = podds.Config
	}
	return &Podds{predictor: predictor, scanner: scanner, cfg: cfg}
}

// Definitions lists every podds tool
func (p *Podds) Definitions() []Definition {
	return []Definition{
		{Tool: PredictMatchTool(), Handler: p.HandlePredictMatch},
		{Tool: PicksOfTheDayTool(), Handler: p.HandlePicksOfTheDay},
		{Tool: SeasonCandidatesTool(), Handler: p.HandleSeasonCandidates},
	}
}

func PredictMatchTool() protocol.Tool {
	return protocol.Tool{
		Name: "predict_match",
		Description: `
		Predicts the outcome of a football match using a Poisson goal model built from both teams'
		season statistics, blended with recent head to head results and, when a fixture id is given,
		bookmaker odds. Returns the favourite, win/draw/loss percentages, expected goals, the most
		probable score, both teams to score and over/under 2.5 goals.
		Team, league and fixture ids are API-Football ids.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"home":    {Type: "integer", Description: "Home team id"},
				"away":    {Type: "integer", Description: "Away team id"},
				"league":  {Type: "integer", Description: "League id, e.g. 39 for the Premier League"},
				"season":  {Type: "string", Description: "Season start year such as 2024, or 2024/2025"},
				"fixture": {Type: "integer", Description: "Optional fixture id, enables blending with market odds"},
			},
			Required: []string{"home", "away", "league", "season"},
		},
	}
}

func PicksOfTheDayTool() protocol.Tool {
	return protocol.Tool{
		Name:        "picks_of_the_day",
		Description: "Scans the day's fixtures in several leagues and returns the most confident selections as a multi leg ticket.",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"date":    {Type: "string", Description: "Day to scan as YYYY-MM-DD, defaults to today"},
				"legs":    {Type: "integer", Description: "Number of selections on the ticket"},
				"leagues": {Type: "array", Description: "League ids to scan", Items: &protocol.ToolProperty{Type: "integer"}},
			},
			Required: []string{},
		},
	}
}

func SeasonCandidatesTool() protocol.Tool {
	return protocol.Tool{
		Name:        "season_candidates",
		Description: "Lists the seasons a prediction would try, newest first, when statistics for the requested season are missing.",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"season": {Type: "string", Description: "Requested season"},
				"floor":  {Type: "integer", Description: "Earliest season to consider"},
			},
			Required: []string{"season"},
		},
	}
}

func requiredInt(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidParams, key)
	}
	n, err := util.GetAsInteger(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidParams, key, err)
	}
	return n, nil
}

func optionalInt(args map[string]any, key string) (int, error) {
	if v, ok := args[key]; !ok || v == nil || v == "" {
		return 0, nil
	}
	return requiredInt(args, key)
}

func requiredSeason(args map[string]any) (int, error) {
	v, ok := args["season"]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: season is required", ErrInvalidParams)
	}
	season, err := podds.ParseSeason(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return season, nil
}

// MatchRequestFromArgs builds a request from tool arguments
func MatchRequestFromArgs(args map[string]any) (podds.MatchRequest, error) {
	var req podds.MatchRequest
	var err error
	if req.HomeTeamID, err = requiredInt(args, "home"); err != nil {
		return req, err
	}
	if req.AwayTeamID, err = requiredInt(args, "away"); err != nil {
		return req, err
	}
	if req.LeagueID, err = requiredInt(args, "league"); err != nil {
		return req, err
	}
	if req.Season, err = requiredSeason(args); err != nil {
		return req, err
	}
	if req.FixtureID, err = optionalInt(args, "fixture"); err != nil {
		return req, err
	}
	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return req, nil
}

// HandlePredictMatch runs a single prediction
func (p *Podds) HandlePredictMatch(ctx context.Context, args map[string]any) (any, error) {
	req, err := MatchRequestFromArgs(args)
	if err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("predicting %d v %d league %d season %d", req.HomeTeamID, req.AwayTeamID, req.LeagueID, req.Season))
	return p.predictor.PredictMatch(ctx, req)
}

// HandlePicksOfTheDay builds the day's ticket
func (p *Podds) HandlePicksOfTheDay(ctx context.Context, args map[string]any) (any, error) {
	var opts podds.PicksOptions
	if v, ok := args["date"]; ok && v != nil && v != "" {
		s, err := util.GetAsString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: date: %v", ErrInvalidParams, err)
		}
		if opts.Date, err = time.Parse(time.DateOnly, s); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidParams)
		}
	}
	legs, err := optionalInt(args, "legs")
	if err != nil {
		return nil, err
	}
	opts.Legs = legs
	if opts.Leagues, err = util.GetAsIntegerList(args["leagues"]); err != nil {
		return nil, fmt.Errorf("%w: leagues: %v", ErrInvalidParams, err)
	}
	return p.scanner.Scan(ctx, opts)
}

// HandleSeasonCandidates lists the fallback seasons for a request
func (p *Podds) HandleSeasonCandidates(_ context.Context, args map[string]any) (any, error) {
	season, err := requiredSeason(args)
	if err != nil {
		return nil, err
	}
	floor, err := optionalInt(args, "floor")
	if err != nil {
		return nil, err
	}
	if floor == 0 {
		floor = p.cfg.SeasonFloor
	}
	candidates := podds.SeasonCandidates(season, floor)
	labels := make([]string, len(candidates))
	for i, c := range candidates {
		labels[i] = podds.SeasonLabel(c)
	}
	return map[string]any{
		"season":     season,
		"floor":      floor,
		"candidates": candidates,
		"labels":     labels,
	}, nil
}

// PredictionsHandler serves GET /predictions?home=&away=&league=&season=&fixture=
func (p *Podds) PredictionsHandler(w http.ResponseWriter, r *http.Request) {
	req, err := MatchRequestFromArgs(queryArgs(r.URL.Query()))
	if err != nil {
		transport.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	result, err := p.predictor.PredictMatch(r.Context(), req)
	if err != nil {
		var noStats *podds.NoUsableStatisticsError
		status := http.StatusBadGateway
		switch {
		case errors.As(err, &noStats):
			status = http.StatusNotFound
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		}
		transport.WriteJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	transport.WriteJSON(w, http.StatusOK, result)
}

func queryArgs(q url.Values) map[string]any {
	args := make(map[string]any, len(q))
	for k := range q {
		args[k] = q.Get(k)
	}
	return args
}
