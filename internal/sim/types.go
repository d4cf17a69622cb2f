// Package sim provides a synthetic learner for exercising the engine end to
// end: it scores generated activities from a simple skill model instead of a
// human, so whole sessions can run unattended in tests and simulations.
package sim

// #region config

// Config holds the tuning knobs of the learner model.
type Config struct {
	BaseAbility  float64 // starting success chance on a stage-1 arm, before any practice
	Gain         float64 // success added per prior attempt of the same arm
	StagePenalty float64 // success removed per activation stage above 1
	Noise        float64 // standard deviation of the gaussian score noise, 0 disables
}

// DefaultConfig returns a learner that starts below the usual advancement
// threshold and crosses it after a few attempts per arm.
func DefaultConfig() Config {
	return Config{
		BaseAbility:  0.55,
		Gain:         0.08,
		StagePenalty: 0.15,
		Noise:        0.1,
	}
}

// #endregion config
