package podds

import (
	"fmt"
	"math"
	"strings"
)

// PredictionResult is the record returned for a single match prediction
type PredictionResult struct {
	Predictions   Predictions        `json:"predictions"`
	Comparison    Comparison         `json:"comparison"`
	MarketOdds    *MarketOdds        `json:"market_odds"`
	Probabilities ModelProbabilities `json:"probabilities"`
	Meta          PredictionMeta     `json:"meta"`
}

// Winner names the favoured side, "Draw" when a draw is most likely
type Winner struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SidePair is a home/away pair of formatted values
type SidePair struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// PercentTriple is a home/draw/away set of percent strings
type PercentTriple struct {
	Home string `json:"home"`
	Draw string `json:"draw"`
	Away string `json:"away"`
}

type Predictions struct {
	Winner            Winner        `json:"winner"`
	Advice            string        `json:"advice"`
	MostProbableScore string        `json:"mostProbableScore"`
	BTTS              bool          `json:"btts"`
	UnderOver         string        `json:"under_over"`
	Goals             SidePair      `json:"goals"`
	Percent           PercentTriple `json:"percent"`
	BTTSProbability   float64       `json:"btts_probability"`
	OverProbability   float64       `json:"over_2_5_probability"`
	UnderProbability  float64       `json:"under_2_5_probability"`
}

// HeadToHeadComparison is the percentage view of recent meetings
type HeadToHeadComparison struct {
	Home       string `json:"home"`
	Draw       string `json:"draw"`
	Away       string `json:"away"`
	TotalGames int    `json:"totalGames"`
}

type Comparison struct {
	Form                SidePair             `json:"form"`
	Att                 SidePair             `json:"att"`
	Def                 SidePair             `json:"def"`
	PoissonDistribution SidePair             `json:"poisson_distribution"`
	H2H                 HeadToHeadComparison `json:"h2h"`
	Goals               SidePair             `json:"goals"`
	Total               SidePair             `json:"total"`
}

// ModelProbabilities carries the unformatted numbers behind the prediction
type ModelProbabilities struct {
	Outcome        Outcome        `json:"outcome"`
	Poisson        Outcome        `json:"poisson"`
	BothTeamsScore float64        `json:"bothTeamsScore"`
	Over           float64        `json:"over"`
	Under          float64        `json:"under"`
	Expectancy     GoalExpectancy `json:"expectancy"`
}

// PredictionMeta records what the prediction was built from
type PredictionMeta struct {
	HomeTeamID        int    `json:"homeTeamId"`
	HomeTeamName      string `json:"homeTeamName"`
	AwayTeamID        int    `json:"awayTeamId"`
	AwayTeamName      string `json:"awayTeamName"`
	LeagueID          int    `json:"leagueId"`
	FixtureID         int    `json:"fixtureId,omitempty"`
	RequestedSeason   int    `json:"requestedSeason"`
	Season            int    `json:"season"`
	SeasonsAttempted  []int  `json:"seasonsAttempted"`
	HeadToHeadBlended bool   `json:"headToHeadBlended"`
	MarketBlended     bool   `json:"marketBlended"`
}

// Outcome labels used by PickWinner
const (
	OutcomeHome = "home"
	OutcomeDraw = "draw"
	OutcomeAway = "away"
)

// PickWinner returns the most likely outcome. Ties go to home, then away, then draw
func PickWinner(o Outcome) string {
	best, label := o.Home, OutcomeHome
	if o.Away > best {
		best, label = o.Away, OutcomeAway
	}
	if o.Draw > best {
		label = OutcomeDraw
	}
	return label
}

// assembly is everything the narrative needs from a finished model run
type assembly struct {
	req        MatchRequest
	season     *ResolvedSeason
	poisson    Outcome
	final      Outcome
	expectancy GoalExpectancy
	scorelines ScorelineDistribution
	h2h        HeadToHeadRecord
	odds       *MarketOdds
	h2hBlended bool
	mktBlended bool
}

func percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}

func sharePair(home, away float64) SidePair {
	sum := home + away
	if !(sum > 0) {
		return SidePair{Home: "50%", Away: "50%"}
	}
	return SidePair{Home: percent(home / sum), Away: percent(away / sum)}
}

func teamName(ts *TeamSeasonStatistics, id int) string {
	if ts != nil && ts.TeamName != "" {
		return ts.TeamName
	}
	return fmt.Sprintf("Team %d", id)
}

// buildResult formats a finished model run into the prediction record
func buildResult(a assembly, cfg *PoddsConfig) *PredictionResult {
	homeName := teamName(a.season.Home, a.req.HomeTeamID)
	awayName := teamName(a.season.Away, a.req.AwayTeamID)

	var winner Winner
	switch PickWinner(a.final) {
	case OutcomeHome:
		winner = Winner{ID: a.req.HomeTeamID, Name: homeName}
	case OutcomeAway:
		winner = Winner{ID: a.req.AwayTeamID, Name: awayName}
	default:
		winner = Winner{Name: "Draw"}
	}

	btts := a.scorelines.BothTeamsScore > cfg.BTTSThreshold
	over := a.scorelines.Over > cfg.OverThreshold
	under := 1 - a.scorelines.Over

	underOver := fmt.Sprintf("-%g", cfg.OverUnderLine)
	if over {
		underOver = fmt.Sprintf("+%g", cfg.OverUnderLine)
	}

	h2hHome, h2hDraw, h2hAway := a.h2h.Shares()

	result := &PredictionResult{
		Predictions: Predictions{
			Winner:            winner,
			Advice:            advice(a.season.Season, winner, a.final, btts, over, cfg.OverUnderLine),
			MostProbableScore: fmt.Sprintf("%d - %d", a.scorelines.MostLikelyHome, a.scorelines.MostLikelyAway),
			BTTS:              btts,
			UnderOver:         underOver,
			Goals: SidePair{
				Home: fmt.Sprintf("%.2f", a.expectancy.Home),
				Away: fmt.Sprintf("%.2f", a.expectancy.Away),
			},
			Percent: PercentTriple{
				Home: percent(a.final.Home),
				Draw: percent(a.final.Draw),
				Away: percent(a.final.Away),
			},
			BTTSProbability:  round(a.scorelines.BothTeamsScore*100, 1),
			OverProbability:  round(a.scorelines.Over*100, 1),
			UnderProbability: round(under*100, 1),
		},
		Comparison: Comparison{
			Form: SidePair{
				Home: percent(FormRate(a.season.Home.Form)),
				Away: percent(FormRate(a.season.Away.Form)),
			},
			Att: sharePair(a.expectancy.Home, a.expectancy.Away),
			// Defence is the complement of the opponent's share of expected goals
			Def:                 sharePair(a.expectancy.Home, a.expectancy.Away),
			PoissonDistribution: SidePair{Home: percent(a.poisson.HomeShare()), Away: percent(a.poisson.AwayShare())},
			H2H: HeadToHeadComparison{
				Home:       percent(h2hHome),
				Draw:       percent(h2hDraw),
				Away:       percent(h2hAway),
				TotalGames: a.h2h.TotalGames,
			},
			Goals: sharePair(float64(a.season.Home.GoalsFor.Home), float64(a.season.Away.GoalsFor.Away)),
			Total: SidePair{Home: percent(a.final.HomeShare()), Away: percent(a.final.AwayShare())},
		},
		Probabilities: ModelProbabilities{
			Outcome:        a.final,
			Poisson:        a.poisson,
			BothTeamsScore: a.scorelines.BothTeamsScore,
			Over:           a.scorelines.Over,
			Under:          under,
			Expectancy:     a.expectancy,
		},
		Meta: PredictionMeta{
			HomeTeamID:        a.req.HomeTeamID,
			HomeTeamName:      homeName,
			AwayTeamID:        a.req.AwayTeamID,
			AwayTeamName:      awayName,
			LeagueID:          a.req.LeagueID,
			FixtureID:         a.req.FixtureID,
			RequestedSeason:   a.req.Season,
			Season:            a.season.Season,
			SeasonsAttempted:  a.season.Attempted,
			HeadToHeadBlended: a.h2hBlended,
			MarketBlended:     a.mktBlended,
		},
	}
	if a.odds.Valid() {
		result.MarketOdds = a.odds
	}
	return result
}

func advice(season int, winner Winner, o Outcome, btts, over bool, line float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on %s statistics, ", SeasonLabel(season))
	switch PickWinner(o) {
	case OutcomeHome:
		fmt.Fprintf(&sb, "%s are favourites at home (%s).", winner.Name, percent(o.Home))
	case OutcomeAway:
		fmt.Fprintf(&sb, "%s are favourites away from home (%s).", winner.Name, percent(o.Away))
	default:
		fmt.Fprintf(&sb, "a draw is the most likely result (%s).", percent(o.Draw))
	}
	if btts {
		sb.WriteString(" Both teams are likely to score")
	} else {
		sb.WriteString(" At least one side is likely to keep a clean sheet")
	}
	if over {
		fmt.Fprintf(&sb, " and over %g goals is expected.", line)
	} else {
		fmt.Fprintf(&sb, " and under %g goals is expected.", line)
	}
	return sb.String()
}
