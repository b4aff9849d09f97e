package scoring

import "math"

// calibrationAnchor is one point on the score → probability curve.
type calibrationAnchor struct {
	score       int
	probability float64
}

// calibrationCurve maps overall scores to conversion probabilities.
// Anchors are strictly increasing in both coordinates, which makes the
// interpolated curve monotonically non-decreasing. Values come from the
// historical conversion rates the sales team reports per score band.
var calibrationCurve = []calibrationAnchor{
	{0, 2},
	{20, 8},
	{40, 22},
	{50, 35},
	{60, 50},
	{75, 68},
	{90, 88},
	{100, 96},
}

// calibrate converts an overall score in [0,100] to a conversion
// probability in [0,100] by piecewise-linear interpolation.
func calibrate(score int) int {
	if score <= calibrationCurve[0].score {
		return int(math.Round(calibrationCurve[0].probability))
	}
	last := calibrationCurve[len(calibrationCurve)-1]
	if score >= last.score {
		return int(math.Round(last.probability))
	}

	for i := 1; i < len(calibrationCurve); i++ {
		hi := calibrationCurve[i]
		if score > hi.score {
			continue
		}
		lo := calibrationCurve[i-1]
		span := float64(hi.score - lo.score)
		frac := float64(score-lo.score) / span
		p := lo.probability + frac*(hi.probability-lo.probability)
		return int(math.Round(p))
	}
	return int(math.Round(last.probability))
}
