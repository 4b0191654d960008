package progression

import "math"

// levelScanCap bounds the level scan. Any total score large enough to reach
// it is pathological input, not a real player.
const levelScanCap = 8000

// RequiredScoreForLevel returns the cumulative total score required to
// complete a level. Level 1 requires a nominal 1 rather than 0 so ratio
// computations elsewhere never divide by zero. The curve is polynomial with
// an exponential tail up to level 100 and linear from level 101.
func RequiredScoreForLevel(level int) float64 {
	if level <= 1 {
		return 1
	}
	if level <= 100 {
		l := float64(level)
		return 5000.0/3.0*(4*l*l*l-3*l*l-l) + 1.25*math.Pow(1.8, l-60)
	}
	return 26931190829 + 100000000000*float64(level-100)
}

// GetLevel inverts the cumulative score curve: it returns the first level
// whose requirement the total score does not exceed, scanning upward from 1.
func GetLevel(totalScore int64) int {
	level := 1
	for float64(totalScore) > RequiredScoreForLevel(level) {
		if level >= levelScanCap {
			return levelScanCap
		}
		level++
	}
	return level
}

// ComputeAccuracy returns the mean accuracy as a ratio in [0, 1].
func ComputeAccuracy(numerator float64, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / float64(denominator)
}

// WeightedPerformance folds the best performance ratings, best first, with
// geometric decay. Each rating is rounded before weighting and each weighted
// term is rounded again; the double rounding matches the historically
// published numbers and must not be simplified.
func WeightedPerformance(performances []float64) float64 {
	total := 0.0
	weight := 1.0
	for _, performance := range performances {
		total += math.Round(math.Round(performance) * weight)
		weight *= 0.95
	}
	return total
}
