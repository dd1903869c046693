package podds

// GoalExpectancy holds the expected goals (Poisson means) for each side
type GoalExpectancy struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// Total returns the sum of both expectancies
func (g GoalExpectancy) Total() float64 {
	return g.Home + g.Away
}

// TeamStrength is a team's attack and defence relative to the league average.
// Defence above 1 means the team concedes more than average
type TeamStrength struct {
	Attack  float64 `json:"attack"`
	Defense float64 `json:"defense"`
}

// venueStrength computes strength from one venue split of a team's season
func venueStrength(goalsFor, goalsAgainst, played int, leagueAvg float64) TeamStrength {
	gp := float64(played)
	return TeamStrength{
		Attack:  safeDiv(safeDiv(float64(goalsFor), gp), leagueAvg),
		Defense: safeDiv(safeDiv(float64(goalsAgainst), gp), leagueAvg),
	}
}

// HomeStrength rates a team on its home matches only
func HomeStrength(ts *TeamSeasonStatistics, leagueAvg float64) TeamStrength {
	return venueStrength(ts.GoalsFor.Home, ts.GoalsAgainst.Home, ts.Played.Home, leagueAvg)
}

// AwayStrength rates a team on its away matches only
func AwayStrength(ts *TeamSeasonStatistics, leagueAvg float64) TeamStrength {
	return venueStrength(ts.GoalsFor.Away, ts.GoalsAgainst.Away, ts.Played.Away, leagueAvg)
}

// ExpectedGoals calculates both sides' goal expectancy from their venue strengths.
// A zero defence is treated as neutral rather than infinite and degenerate results fall
// back to the configured defaults before flooring
func ExpectedGoals(home, away *TeamSeasonStatistics, standings *LeagueStandings, cfg *PoddsConfig) GoalExpectancy {
	leagueAvg := standings.AverageGoalsPerMatch(cfg.DefaultLeagueAverageGoals)
	hs := HomeStrength(home, leagueAvg)
	as := AwayStrength(away, leagueAvg)

	lh := hs.Attack * safeDiv(1, as.Defense) * cfg.HomeAdvantage
	la := as.Attack * safeDiv(1, hs.Defense)

	return GoalExpectancy{
		Home: safeLambda(lh, cfg.DefaultHomeLambda, cfg.LambdaFloor),
		Away: safeLambda(la, cfg.DefaultAwayLambda, cfg.LambdaFloor),
	}
}
