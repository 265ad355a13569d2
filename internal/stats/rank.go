package stats

import (
	"math"
	"strings"
)

// MaxRank is the step reported past the last threshold.
const MaxRank = "Max Rank"

// RankStep is the next rank on the ladder and the ranked points it needs.
type RankStep struct {
	Next  string
	Limit int
}

var ladder = []RankStep{
	{Next: "Bronze II", Limit: 500},
	{Next: "Bronze III", Limit: 800},
	{Next: "Silver I", Limit: 1000},
	{Next: "Gold I", Limit: 1300},
	{Next: "Platinum I", Limit: 1500},
	{Next: "Diamond I", Limit: 2000},
	{Next: "Grandmaster", Limit: 3200},
}

// NextRank returns the next rank for rankedPoints.
func NextRank(rankedPoints int) RankStep {
	for _, step := range ladder {
		if rankedPoints < step.Limit {
			return step
		}
	}
	return RankStep{Next: MaxRank, Limit: rankedPoints}
}

// RankPercent is the progress towards the next rank, capped at 100.
func RankPercent(rankedPoints int) float64 {
	step := NextRank(rankedPoints)
	if step.Limit <= 0 {
		return 100
	}
	return math.Min(float64(rankedPoints)/float64(step.Limit)*100, 100)
}

// ProgressBar draws percent as a bar of width cells.
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(math.Round(percent / 100 * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
