package engine

import (
	"errors"

	"github.com/CodyClop/zpd-its/internal/space"
)

// ErrInvalidUpdate reports an update whose activity does not line up with
// the graph it was generated from: unknown refs, or a draw count that does
// not match a group's parameters. It indicates caller misuse, not learner
// performance.
var ErrInvalidUpdate = errors.New("invalid update")

// #region coefficients
// Coefficients are the tunable constants of the selection policy.
type Coefficients struct {
	Gamma         float64 `json:"gamma" yaml:"gamma"`                   // uniform exploration share in [0, 1]
	Window        int     `json:"window" yaml:"window"`                 // score history window for the trend reward
	LambdaZPD     float64 `json:"lambda_zpd" yaml:"lambda_zpd"`         // success rate gating frontier expansion
	LambdaA       float64 `json:"lambda_a" yaml:"lambda_a"`             // default mastery threshold for retirement
	Beta          float64 `json:"beta" yaml:"beta"`                     // decay on the previous weight per update
	Eta           float64 `json:"eta" yaml:"eta"`                       // learning rate on the trend reward
	SoftmaxFactor float64 `json:"softmax_factor" yaml:"softmax_factor"` // sharpening applied before the softmax
}

// DefaultCoefficients returns the tuning the reference curriculum ships
// with.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		Gamma:         0.2,
		Window:        6,
		LambdaZPD:     0.75,
		LambdaA:       0.9,
		Beta:          0.8,
		Eta:           1.0,
		SoftmaxFactor: 10,
	}
}

// #endregion coefficients

// #region activity
// Step records the arms drawn at one visited group, one per parameter in
// the group's registration order.
type Step struct {
	Group string      `json:"group"`
	Refs  []space.Ref `json:"refs"`
}

// Activity is one generated exercise: the ordered per-group draws and the
// code assembled from the drawn arms' fragments.
type Activity struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Steps []Step `json:"steps"`
}

// Refs returns every drawn arm in flattened traversal order, the order
// rewards are computed and applied in.
func (a *Activity) Refs() []space.Ref {
	var refs []space.Ref
	for _, s := range a.Steps {
		refs = append(refs, s.Refs...)
	}
	return refs
}

// #endregion activity

// #region update-result
// UpdateResult bundles everything one update cycle changed.
type UpdateResult struct {
	ActivityID string      `json:"activity_id"`
	Score      float64     `json:"score"`
	Rewards    []float64   `json:"rewards"` // one per drawn arm, flattened traversal order
	Stage      int         `json:"stage"`   // stage after the cycle
	Advanced   bool        `json:"advanced"`
	Activated  []space.Ref `json:"activated,omitempty"`
	Retired    []space.Ref `json:"retired,omitempty"`
}

// #endregion update-result
