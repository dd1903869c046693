package podds

// RedistributeLambda splits a total goal expectancy between the two sides in proportion
// to each side's win probability plus half the draw. Both results are floored
func RedistributeLambda(total, pHome, pDraw, pAway, floor float64) GoalExpectancy {
	sum := pHome + pDraw + pAway
	ge := GoalExpectancy{
		Home: safeDiv(total*(pHome+pDraw/2), sum),
		Away: safeDiv(total*(pAway+pDraw/2), sum),
	}
	return GoalExpectancy{
		Home: safeLambda(ge.Home, floor, floor),
		Away: safeLambda(ge.Away, floor, floor),
	}
}

// mix returns p*(1-weight) + signal*weight for each outcome, normalised
func mix(p, signal Outcome, weight float64) Outcome {
	keep := 1 - weight
	return Outcome{
		Home: p.Home*keep + signal.Home*weight,
		Draw: p.Draw*keep + signal.Draw*weight,
		Away: p.Away*keep + signal.Away*weight,
	}.Normalized()
}

// BlendHeadToHead folds recent meetings into the outcome probabilities when there have
// been at least cfg.HeadToHeadMinGames of them. Otherwise p and ge are returned untouched
func BlendHeadToHead(p Outcome, ge GoalExpectancy, h2h HeadToHeadRecord, cfg *PoddsConfig) (Outcome, GoalExpectancy, bool) {
	if h2h.TotalGames < cfg.HeadToHeadMinGames {
		return p, ge, false
	}
	home, draw, away := h2h.Shares()
	blended := mix(p, Outcome{Home: home, Draw: draw, Away: away}, cfg.HeadToHeadWeight)
	return blended, RedistributeLambda(ge.Total(), blended.Home, blended.Draw, blended.Away, cfg.LambdaFloor), true
}

// BlendMarket folds bookmaker implied probabilities into the outcome probabilities.
// Missing or unusable odds leave p and ge untouched
func BlendMarket(p Outcome, ge GoalExpectancy, odds *MarketOdds, cfg *PoddsConfig) (Outcome, GoalExpectancy, bool) {
	if !odds.Valid() {
		return p, ge, false
	}
	blended := mix(p, odds.ImpliedProbabilities(), cfg.MarketWeight)
	return blended, RedistributeLambda(ge.Total(), blended.Home, blended.Draw, blended.Away, cfg.LambdaFloor), true
}
