// Package sampling draws arms for the bandit policy: a softmax over the
// current weights blended with a uniform floor so no active arm ever
// starves.
package sampling

import (
	"errors"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNoCandidates reports a draw over an empty candidate set. Under a
// well-formed curriculum this only happens when retirement has emptied a
// reachable parameter, which is a configuration defect.
var ErrNoCandidates = errors.New("no candidates to sample")

// #region config
// Config holds the exploration/exploitation knobs of a draw.
type Config struct {
	Gamma         float64 // uniform exploration share in [0, 1]
	SoftmaxFactor float64 // sharpening applied to weights before the softmax
}

// #endregion config

// #region mixture
// Mixture returns the draw distribution over the candidate weights:
// (1-gamma)*softmax(factor*w) + gamma*uniform. The result always sums to 1
// and every entry is non-negative.
func Mixture(weights []float64, cfg Config) ([]float64, error) {
	n := len(weights)
	if n == 0 {
		return nil, ErrNoCandidates
	}

	p := make([]float64, n)
	copy(p, weights)
	floats.Scale(cfg.SoftmaxFactor, p)

	// Shift by the max before exponentiating so large weights cannot
	// overflow; the softmax itself is shift-invariant.
	shift := floats.Max(p)
	var sum float64
	for i, x := range p {
		e := math.Exp(x - shift)
		p[i] = e
		sum += e
	}

	uniform := 1.0 / float64(n)
	for i := range p {
		p[i] = (1-cfg.Gamma)*(p[i]/sum) + cfg.Gamma*uniform
	}
	return p, nil
}

// #endregion mixture

// #region draw
// Draw samples one candidate index from the mixture distribution. A nil rng
// falls back to the global source.
func Draw(rng *rand.Rand, weights []float64, cfg Config) (int, error) {
	p, err := Mixture(weights, cfg)
	if err != nil {
		return 0, err
	}
	var src rand.Source
	if rng != nil {
		src = rng
	}
	cat := distuv.NewCategorical(p, src)
	return int(cat.Rand()), nil
}

// #endregion draw
