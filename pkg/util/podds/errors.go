package podds

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by a datasource when the provider answered but had no data
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest is returned when a prediction request is missing required ids
	ErrInvalidRequest = errors.New("invalid request")
)

// UpstreamFetchError wraps a failure talking to the statistics provider
type UpstreamFetchError struct {
	Endpoint string
	Err      error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("upstream fetch %s failed: %v", e.Endpoint, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

// NoUsableStatisticsError is returned when no candidate season had statistics for
// both teams and the league
type NoUsableStatisticsError struct {
	HomeTeamID int
	AwayTeamID int
	LeagueID   int
	Attempted  []int
}

func (e *NoUsableStatisticsError) Error() string {
	seasons := make([]string, len(e.Attempted))
	for i, s := range e.Attempted {
		seasons[i] = fmt.Sprintf("%d", s)
	}
	return fmt.Sprintf("no usable statistics for teams %d and %d in league %d, tried seasons [%s]",
		e.HomeTeamID, e.AwayTeamID, e.LeagueID, strings.Join(seasons, ", "))
}
