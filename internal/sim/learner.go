package sim

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/CodyClop/zpd-its/internal/engine"
	"github.com/CodyClop/zpd-its/internal/space"
)

// #region learner

// Learner is a stateful skill model. Each arm it has seen carries a practice
// counter, so repeated exposure raises its scores the way drilling raises a
// real learner's.
type Learner struct {
	config   Config
	rng      *rand.Rand
	practice map[space.Ref]int
}

// NewLearner creates a learner with its own seeded noise source.
func NewLearner(config Config, seed uint64) *Learner {
	return &Learner{
		config:   config,
		rng:      rand.New(rand.NewSource(seed)),
		practice: make(map[space.Ref]int),
	}
}

// Practice returns how many activities containing the arm the learner has
// scored so far.
func (l *Learner) Practice(ref space.Ref) int {
	return l.practice[ref]
}

// #endregion learner

// #region score

// Score grades one activity in [0, 1] and counts the attempt against every
// arm involved. Harder arms (higher activation stage) pull the score down,
// practice pulls it back up.
func (l *Learner) Score(sp *space.Space, act *engine.Activity) (float64, error) {
	refs := act.Refs()
	if len(refs) == 0 {
		return 0, fmt.Errorf("score activity: no arms")
	}

	var sum float64
	for _, ref := range refs {
		v, err := sp.Resolve(ref)
		if err != nil {
			return 0, fmt.Errorf("score activity: %w", err)
		}
		difficulty := l.config.StagePenalty * float64(v.ActivationStage-1)
		sum += l.config.BaseAbility + l.config.Gain*float64(l.practice[ref]) - difficulty
		l.practice[ref]++
	}

	score := sum / float64(len(refs))
	if l.config.Noise > 0 {
		score += l.rng.NormFloat64() * l.config.Noise
	}
	return clamp(score), nil
}

// #endregion score

// #region helpers

// clamp restricts v to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
