package podds

import (
	"fmt"
	"sort"
	"time"
)

// MatchRequest identifies the match to predict. FixtureID is optional and only
// used to look up market odds
type MatchRequest struct {
	HomeTeamID int `json:"home"`
	AwayTeamID int `json:"away"`
	LeagueID   int `json:"league"`
	Season     int `json:"season"`
	FixtureID  int `json:"fixture,omitempty"`
}

// Validate checks that every required id is present
func (r MatchRequest) Validate() error {
	if r.HomeTeamID <= 0 || r.AwayTeamID <= 0 {
		return fmt.Errorf("%w: home and away team ids are required", ErrInvalidRequest)
	}
	if r.HomeTeamID == r.AwayTeamID {
		return fmt.Errorf("%w: home and away team must differ", ErrInvalidRequest)
	}
	if r.LeagueID <= 0 {
		return fmt.Errorf("%w: league id is required", ErrInvalidRequest)
	}
	if r.Season <= 0 {
		return fmt.Errorf("%w: season is required", ErrInvalidRequest)
	}
	return nil
}

// Fixture is a single scheduled or played match. Goals are -1 until known
type Fixture struct {
	ID           int       `json:"id"`
	Date         time.Time `json:"date"`
	LeagueID     int       `json:"leagueId"`
	Season       int       `json:"season"`
	Status       string    `json:"status"` // provider short status: NS, FT, AET, PEN, PST ...
	HomeTeamID   int       `json:"homeTeamId"`
	HomeTeamName string    `json:"homeTeamName"`
	AwayTeamID   int       `json:"awayTeamId"`
	AwayTeamName string    `json:"awayTeamName"`
	HomeGoals    int       `json:"homeGoals"`
	AwayGoals    int       `json:"awayGoals"`
}

// IsCompleted reports whether the fixture has a final result
func (f *Fixture) IsCompleted() bool {
	switch f.Status {
	case "FT", "AET", "PEN":
		return f.HomeGoals >= 0 && f.AwayGoals >= 0
	}
	return false
}

// IsUpcoming reports whether the fixture has not kicked off yet
func (f *Fixture) IsUpcoming() bool {
	return f.Status == "NS" || f.Status == "TBD"
}

// winnerID returns the id of the winning team, 0 for a draw
func (f *Fixture) winnerID() int {
	switch {
	case f.HomeGoals > f.AwayGoals:
		return f.HomeTeamID
	case f.AwayGoals > f.HomeGoals:
		return f.AwayTeamID
	}
	return 0
}

// HeadToHeadRecord summarises recent meetings of two teams, oriented to the
// home and away roles of the match being predicted rather than the historical fixtures
type HeadToHeadRecord struct {
	HomeWins   int `json:"homeWins"`
	AwayWins   int `json:"awayWins"`
	Draws      int `json:"draws"`
	TotalGames int `json:"totalGames"`
}

// Shares returns the home win, draw and away win fractions. All zero when empty
func (h HeadToHeadRecord) Shares() (home, draw, away float64) {
	if h.TotalGames == 0 {
		return 0, 0, 0
	}
	total := float64(h.TotalGames)
	return float64(h.HomeWins) / total, float64(h.Draws) / total, float64(h.AwayWins) / total
}

// ParseHeadToHead keeps completed meetings between homeID and awayID, sorts them most
// recent first and counts the latest maxGames of them from the home team's point of view
func ParseHeadToHead(fixtures []Fixture, homeID, awayID, maxGames int) HeadToHeadRecord {
	var completed []Fixture
	for _, f := range fixtures {
		if !f.IsCompleted() {
			continue
		}
		involvesBoth := (f.HomeTeamID == homeID && f.AwayTeamID == awayID) ||
			(f.HomeTeamID == awayID && f.AwayTeamID == homeID)
		if !involvesBoth {
			continue
		}
		completed = append(completed, f)
	}

	// The provider does not promise an order so sort before truncating
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].Date.After(completed[j].Date)
	})
	if maxGames > 0 && len(completed) > maxGames {
		completed = completed[:maxGames]
	}

	var rec HeadToHeadRecord
	for _, f := range completed {
		switch f.winnerID() {
		case homeID:
			rec.HomeWins++
		case awayID:
			rec.AwayWins++
		default:
			rec.Draws++
		}
		rec.TotalGames++
	}
	return rec
}
