package podds

import "math"

// MarketOdds holds decimal 1X2 odds from a single bookmaker
type MarketOdds struct {
	Bookmaker string  `json:"bookmaker,omitempty"`
	Home      float64 `json:"home"`
	Draw      float64 `json:"draw"`
	Away      float64 `json:"away"`
}

// Valid reports whether all three prices are usable decimal odds
func (m *MarketOdds) Valid() bool {
	if m == nil {
		return false
	}
	for _, o := range []float64{m.Home, m.Draw, m.Away} {
		if math.IsNaN(o) || math.IsInf(o, 0) || o <= 1 {
			return false
		}
	}
	return true
}

// ImpliedProbabilities converts the prices to fair probabilities by inverting each
// price and normalising so the bookmaker margin is removed
func (m *MarketOdds) ImpliedProbabilities() Outcome {
	raw := Outcome{
		Home: 1.0 / m.Home,
		Draw: 1.0 / m.Draw,
		Away: 1.0 / m.Away,
	}
	return raw.Normalized()
}

// Overround is the bookmaker margin, the amount the raw implied probabilities exceed 1
func (m *MarketOdds) Overround() float64 {
	return 1.0/m.Home + 1.0/m.Draw + 1.0/m.Away - 1
}
