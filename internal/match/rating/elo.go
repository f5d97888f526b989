package rating

import "math"

// Actual scores for the logistic model.
const (
	ScoreWin  = 1.0
	ScoreDraw = 0.5
	ScoreLoss = 0.0
)

// Result labels sent to players.
const (
	ResultWin  = "win"
	ResultLose = "lose"
	ResultDraw = "draw"
)

// Expected returns the expected score of a player rated ra against rb.
func Expected(ra, rb int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(rb-ra)/400.0))
}

// Update returns the new ratings for both players. scoreA is 1, 0.5 or 0 from
// player A's perspective; player B receives the complement. Each side is
// computed from its own perspective so swapping the inputs swaps the outputs.
func Update(ra, rb int, scoreA float64, k int) (int, int) {
	scoreB := 1.0 - scoreA
	newA := float64(ra) + float64(k)*(scoreA-Expected(ra, rb))
	newB := float64(rb) + float64(k)*(scoreB-Expected(rb, ra))
	return int(math.RoundToEven(newA)), int(math.RoundToEven(newB))
}

// Outcome maps final duel scores to player A's actual score.
func Outcome(scoreA, scoreB int) float64 {
	switch {
	case scoreA > scoreB:
		return ScoreWin
	case scoreA < scoreB:
		return ScoreLoss
	default:
		return ScoreDraw
	}
}

// Label converts an actual score to the label shown to that player.
func Label(score float64) string {
	switch score {
	case ScoreWin:
		return ResultWin
	case ScoreLoss:
		return ResultLose
	default:
		return ResultDraw
	}
}
