package podds

import (
	"context"
	"errors"
	"fmt"

	"github.com/richard-senior/podds/internal/logger"
	"github.com/richard-senior/podds/pkg/util"
)

// ParseSeason returns the starting year of a season. Accepts a plain year (2023 or "2023"),
// the long form "2023/2024" and the short form "2023/24", with either '/' or '-' as delimiter
func ParseSeason(season any) (int, error) {
	if season == nil {
		return 0, fmt.Errorf("must pass a season")
	}
	ss, err := util.GetAsString(season)
	if err != nil {
		return 0, err
	}
	switch {
	case len(ss) == 4:
		return util.GetAsInteger(ss)
	case len(ss) == 9 && (ss[4] == '/' || ss[4] == '-'):
		return util.GetAsInteger(ss[:4])
	case len(ss) == 7 && (ss[4] == '/' || ss[4] == '-'):
		return util.GetAsInteger(ss[:4])
	}
	return 0, fmt.Errorf("invalid season format: %s", ss)
}

// SeasonLabel renders a starting year as "2023/2024"
func SeasonLabel(season int) string {
	return fmt.Sprintf("%d/%d", season, season+1)
}

// SeasonCandidates lists the seasons to try, newest first. The target itself is only
// included when it is not below the floor
func SeasonCandidates(target, floor int) []int {
	var candidates []int
	if target >= floor {
		candidates = append(candidates, target)
	}
	for s := target - 1; s >= floor; s-- {
		candidates = append(candidates, s)
	}
	return candidates
}

// ResolvedSeason is the statistics snapshot a prediction is built on
type ResolvedSeason struct {
	Season    int
	Home      *TeamSeasonStatistics
	Away      *TeamSeasonStatistics
	Standings *LeagueStandings
	Attempted []int
}

// seasonUsable is the acceptance test for a candidate season
func seasonUsable(home, away *TeamSeasonStatistics, standings *LeagueStandings) bool {
	return home.HasPlayed() && away.HasPlayed() && standings.HasPlayed()
}

// ResolveSeason walks the candidate seasons for the request and returns the first for
// which both teams and the league have played matches. Fetch failures only reject the
// candidate. Context cancellation stops the search immediately
func ResolveSeason(ctx context.Context, src StatsSource, req MatchRequest, floor int) (*ResolvedSeason, error) {
	var attempted []int
	for _, season := range SeasonCandidates(req.Season, floor) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attempted = append(attempted, season)

		rs, err := loadSeason(ctx, src, req, season)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn(fmt.Sprintf("season %d rejected for %d v %d", season, req.HomeTeamID, req.AwayTeamID), err)
			continue
		}
		if !seasonUsable(rs.Home, rs.Away, rs.Standings) {
			logger.Debug(fmt.Sprintf("season %d has no played matches for %d v %d", season, req.HomeTeamID, req.AwayTeamID))
			continue
		}
		if season != req.Season {
			logger.Info(fmt.Sprintf("falling back to season %d for %d v %d", season, req.HomeTeamID, req.AwayTeamID))
		}
		rs.Attempted = attempted
		return rs, nil
	}
	return nil, &NoUsableStatisticsError{
		HomeTeamID: req.HomeTeamID,
		AwayTeamID: req.AwayTeamID,
		LeagueID:   req.LeagueID,
		Attempted:  attempted,
	}
}

func loadSeason(ctx context.Context, src StatsSource, req MatchRequest, season int) (*ResolvedSeason, error) {
	home, err := src.TeamSeasonStatistics(ctx, req.HomeTeamID, req.LeagueID, season)
	if err != nil {
		return nil, fmt.Errorf("home statistics: %w", err)
	}
	away, err := src.TeamSeasonStatistics(ctx, req.AwayTeamID, req.LeagueID, season)
	if err != nil {
		return nil, fmt.Errorf("away statistics: %w", err)
	}
	standings, err := src.LeagueStandings(ctx, req.LeagueID, season)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}
	if home == nil || away == nil || standings == nil {
		return nil, errors.New("empty statistics")
	}
	return &ResolvedSeason{Season: season, Home: home, Away: away, Standings: standings}, nil
}
