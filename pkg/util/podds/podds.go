// Package podds estimates the outcome of football matches.
//
// Team and league statistics are turned into expected goals for each side, a Poisson
// scoreline table is built from them and the resulting home/draw/away probabilities are
// blended with head-to-head history and bookmaker prices. The statistics themselves come
// from a StatsSource, normally the API-Football datasource in this package.
package podds
