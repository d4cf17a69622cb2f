// Package reward turns an arm's score history into the learning-progress
// signal that drives the bandit weights: recent improvement is rewarded,
// recent regression is penalized, and a flat history earns nothing.
package reward

import "gonum.org/v1/gonum/stat"

// #region trend
// Trend compares the newest scores against the ones just before them over a
// sliding window: with n = min(len(scores), window), it returns the mean of
// the newest ceil(n/2) scores minus the mean of the floor(n/2) scores that
// precede them. Fewer than two scores in play yield 0. The result lies in
// [-1, 1] for scores in [0, 1].
func Trend(scores []float64, window int) float64 {
	n := len(scores)
	if window < n {
		n = window
	}
	if n <= 1 {
		return 0
	}

	tail := scores[len(scores)-n:]
	split := n - (n+1)/2 // floor(n/2) older scores, ceil(n/2) newer ones
	return stat.Mean(tail[split:], nil) - stat.Mean(tail[:split], nil)
}

// #endregion trend
