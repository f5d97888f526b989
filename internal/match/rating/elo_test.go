package rating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedEqualRatings(t *testing.T) {
	assert.InDelta(t, 0.5, Expected(1200, 1200), 1e-12)
	assert.InDelta(t, 1.0, Expected(1400, 1000)+Expected(1000, 1400), 1e-12)
}

func TestUpdateMatchesLogisticFormula(t *testing.T) {
	ra, rb, k := 1000, 1010, 32
	newA, newB := Update(ra, rb, ScoreWin, k)

	expA := 1.0 / (1.0 + math.Pow(10, float64(rb-ra)/400))
	assert.Equal(t, int(math.RoundToEven(float64(ra)+float64(k)*(1-expA))), newA)
	assert.Equal(t, int(math.RoundToEven(float64(rb)+float64(k)*(0-(1-expA)))), newB)
	assert.Equal(t, 1016, newA)
	assert.Equal(t, 994, newB)
}

func TestUpdateAntisymmetric(t *testing.T) {
	ratings := []int{400, 987, 1000, 1010, 1234, 1500, 2100}
	scores := []float64{ScoreWin, ScoreDraw, ScoreLoss}
	ks := []int{16, 32, 40}

	for _, ra := range ratings {
		for _, rb := range ratings {
			for _, s := range scores {
				for _, k := range ks {
					a1, b1 := Update(ra, rb, s, k)
					b2, a2 := Update(rb, ra, 1-s, k)
					assert.Equal(t, a1, a2, "ra=%d rb=%d s=%v k=%d", ra, rb, s, k)
					assert.Equal(t, b1, b2, "ra=%d rb=%d s=%v k=%d", ra, rb, s, k)
				}
			}
		}
	}
}

func TestDrawBetweenEqualRatingsIsNeutral(t *testing.T) {
	for _, r := range []int{0, 800, 1000, 1777, 2500} {
		a, b := Update(r, r, ScoreDraw, 32)
		assert.Equal(t, r, a)
		assert.Equal(t, r, b)
	}
}

func TestOutcomeAndLabel(t *testing.T) {
	assert.Equal(t, ScoreWin, Outcome(3, 1))
	assert.Equal(t, ScoreLoss, Outcome(0, 2))
	assert.Equal(t, ScoreDraw, Outcome(2, 2))

	assert.Equal(t, ResultWin, Label(ScoreWin))
	assert.Equal(t, ResultLose, Label(ScoreLoss))
	assert.Equal(t, ResultDraw, Label(ScoreDraw))
}

func TestUpdateRoundsHalvesToEven(t *testing.T) {
	// odd K at equal ratings lands every decisive result on an exact .5
	newA, newB := Update(1000, 1000, ScoreWin, 33)
	assert.Equal(t, 1016, newA)
	assert.Equal(t, 984, newB)

	newA, newB = Update(1000, 1000, ScoreLoss, 33)
	assert.Equal(t, 984, newA)
	assert.Equal(t, 1016, newB)
}
