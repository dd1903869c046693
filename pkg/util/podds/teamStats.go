package podds

// VenueSplit holds a home/away/total triple as reported by the statistics provider
type VenueSplit struct {
	Home  int `json:"home"`
	Away  int `json:"away"`
	Total int `json:"total"`
}

// TeamSeasonStatistics is one team's record in one league season
type TeamSeasonStatistics struct {
	TeamID       int        `json:"teamId"`
	TeamName     string     `json:"teamName"`
	LeagueID     int        `json:"leagueId"`
	Season       int        `json:"season"`
	Played       VenueSplit `json:"played"`
	GoalsFor     VenueSplit `json:"goalsFor"`
	GoalsAgainst VenueSplit `json:"goalsAgainst"`
	// Form is a sequence of W, D and L letters, oldest first
	Form string `json:"form"`
}

// HasPlayed reports whether the team has any matches recorded for the season
func (ts *TeamSeasonStatistics) HasPlayed() bool {
	return ts != nil && ts.Played.Total > 0
}

// StandingEntry is one team's aggregate line in a league table
type StandingEntry struct {
	TeamID       int    `json:"teamId"`
	TeamName     string `json:"teamName"`
	Rank         int    `json:"rank"`
	Played       int    `json:"played"`
	GoalsFor     int    `json:"goalsFor"`
	GoalsAgainst int    `json:"goalsAgainst"`
}

// LeagueStandings holds every group of a league table for one season.
// Most leagues have a single group, cup competitions may have several
type LeagueStandings struct {
	LeagueID int               `json:"leagueId"`
	Season   int               `json:"season"`
	Groups   [][]StandingEntry `json:"groups"`
}

// HasPlayed reports whether any team in any group has played a match
func (ls *LeagueStandings) HasPlayed() bool {
	if ls == nil {
		return false
	}
	for _, group := range ls.Groups {
		for _, entry := range group {
			if entry.Played > 0 {
				return true
			}
		}
	}
	return false
}

// AverageGoalsPerMatch returns total goals scored and conceded over total matches played
// across all groups, or fallback when nothing has been played
func (ls *LeagueStandings) AverageGoalsPerMatch(fallback float64) float64 {
	if ls == nil {
		return fallback
	}
	goals, played := 0, 0
	for _, group := range ls.Groups {
		for _, entry := range group {
			goals += entry.GoalsFor + entry.GoalsAgainst
			played += entry.Played
		}
	}
	if played == 0 {
		return fallback
	}
	return float64(goals) / float64(played)
}
