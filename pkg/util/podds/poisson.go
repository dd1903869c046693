package podds

import "math"

// Outcome is a home win / draw / away win probability triple
type Outcome struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// defaultOutcome is used whenever a triple cannot be normalised. Draw takes the residual
var defaultOutcome = Outcome{Home: 0.33, Draw: 0.34, Away: 0.33}

// Sum returns the total of the three probabilities
func (o Outcome) Sum() float64 {
	return o.Home + o.Draw + o.Away
}

// Normalized scales the triple so it sums to 1, falling back to a near even split when
// the sum is not positive
func (o Outcome) Normalized() Outcome {
	sum := o.Sum()
	if !(sum > 0) || math.IsInf(sum, 0) {
		return defaultOutcome
	}
	return Outcome{Home: o.Home / sum, Draw: o.Draw / sum, Away: o.Away / sum}
}

// HomeShare is the home win probability plus half the draw
func (o Outcome) HomeShare() float64 {
	return o.Home + o.Draw/2
}

// AwayShare is the away win probability plus half the draw
func (o Outcome) AwayShare() float64 {
	return o.Away + o.Draw/2
}

// ScorelineDistribution is the result of spreading two goal expectancies over every
// scoreline up to the goal cap
type ScorelineDistribution struct {
	HomeLambda     float64     `json:"homeLambda"`
	AwayLambda     float64     `json:"awayLambda"`
	Outcome        Outcome     `json:"outcome"`
	BothTeamsScore float64     `json:"bothTeamsScore"`
	Over           float64     `json:"over"`
	MostLikelyHome int         `json:"mostLikelyHome"`
	MostLikelyAway int         `json:"mostLikelyAway"`
	MostLikelyProb float64     `json:"mostLikelyProbability"`
	Matrix         [][]float64 `json:"-"`
}

// PoissonPMF returns P(X = k) for a Poisson distribution with mean lambda
func PoissonPMF(k int, lambda float64) float64 {
	if k < 0 || lambda < 0 {
		return 0
	}
	p := math.Pow(lambda, float64(k)) * math.Exp(-lambda) / factorial(k)
	// both terms overflow far out in the tail
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}

func factorial(k int) float64 {
	f := 1.0
	for i := 2; i <= k; i++ {
		f *= float64(i)
	}
	return f
}

// goalProbabilities returns P(X = k) for k = 0..goalCap
func goalProbabilities(lambda float64, goalCap int) []float64 {
	probs := make([]float64, goalCap+1)
	for k := range probs {
		probs[k] = PoissonPMF(k, lambda)
	}
	return probs
}

// createProbabilityMatrix creates the joint scoreline table, rows are home goals
func createProbabilityMatrix(homeProbs, awayProbs []float64) [][]float64 {
	matrix := make([][]float64, len(homeProbs))
	for i := range homeProbs {
		matrix[i] = make([]float64, len(awayProbs))
		for j := range awayProbs {
			matrix[i][j] = homeProbs[i] * awayProbs[j]
		}
	}
	return matrix
}

// Distribute builds the scoreline table for the two goal expectancies and accumulates
// the outcome, both teams to score and over line probabilities. The outcome triple is
// normalised, BTTS and over are left as computed over the truncated table
func Distribute(homeLambda, awayLambda float64, goalCap int, overLine float64) ScorelineDistribution {
	matrix := createProbabilityMatrix(goalProbabilities(homeLambda, goalCap), goalProbabilities(awayLambda, goalCap))

	dist := ScorelineDistribution{
		HomeLambda:     homeLambda,
		AwayLambda:     awayLambda,
		MostLikelyProb: -1,
		Matrix:         matrix,
	}

	var raw Outcome
	for h := range matrix {
		for a, p := range matrix[h] {
			switch {
			case h > a:
				raw.Home += p
			case h < a:
				raw.Away += p
			default:
				raw.Draw += p
			}
			if h > 0 && a > 0 {
				dist.BothTeamsScore += p
			}
			if float64(h+a) > overLine {
				dist.Over += p
			}
			// Strictly greater so the first maximum found wins ties
			if p > dist.MostLikelyProb {
				dist.MostLikelyProb = p
				dist.MostLikelyHome = h
				dist.MostLikelyAway = a
			}
		}
	}
	dist.Outcome = raw.Normalized()
	return dist
}
