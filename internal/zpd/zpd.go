// Package zpd maintains the zone of proximal development: it widens the
// active frontier once the learner has proven every current arm, and
// permanently retires arms the learner has outgrown.
package zpd

import (
	"fmt"

	"github.com/CodyClop/zpd-its/internal/space"
)

// #region config
// Rule retires one arm for good once it is both stale and mastered: it fires
// when the space's stage has reached MinStage and the arm's success rate
// exceeds Threshold.
type Rule struct {
	Ref       space.Ref
	MinStage  int
	Threshold float64
}

// Config drives one maintenance pass.
type Config struct {
	LambdaZPD float64 // success rate every active arm must hold before the frontier widens
	Rules     []Rule  // retirement table, evaluated on every pass
}

// #endregion config

// #region result
// Result reports what one maintenance pass changed.
type Result struct {
	Advanced  bool        // the stage moved up this pass
	Stage     int         // stage after the pass
	Activated []space.Ref // arms unlocked by the advancement, in registration order
	Retired   []space.Ref // arms retired by the rules, in rule order
}

// #endregion result

// #region advance
// Advance runs one maintenance pass over the whole space: first the
// advancement check with its activations, then the retirement rules. The
// stage moves up at most once per pass; consecutive unlock stages need
// consecutive passes. An error means a rule references an arm the space
// does not have.
func Advance(sp *space.Space, cfg Config) (Result, error) {
	res := Result{Stage: sp.Stage()}

	if cleared(sp, cfg.LambdaZPD) {
		res.Advanced = true
		res.Stage = sp.AdvanceStage()
		res.Activated = unlock(sp, res.Stage)
	}

	for _, rule := range cfg.Rules {
		v, err := sp.Resolve(rule.Ref)
		if err != nil {
			return res, fmt.Errorf("retirement rule: %w", err)
		}
		if !v.Active {
			continue
		}
		if sp.Stage() >= rule.MinStage && v.SuccessRate() > rule.Threshold {
			v.Retire()
			res.Retired = append(res.Retired, rule.Ref)
		}
	}

	return res, nil
}

// cleared reports whether every active arm in the space has proven itself.
// Arms with no scores report a 0 success rate and hold the frontier back.
func cleared(sp *space.Space, lambda float64) bool {
	for _, g := range sp.Groups() {
		for _, p := range g.Params() {
			for _, v := range p.Values() {
				if v.Active && v.SuccessRate() < lambda {
					return false
				}
			}
		}
	}
	return true
}

// unlock activates every arm whose activation stage matches the new stage
// and returns their refs.
func unlock(sp *space.Space, stage int) []space.Ref {
	var refs []space.Ref
	for _, g := range sp.Groups() {
		for _, p := range g.Params() {
			for _, v := range p.Values() {
				if v.ActivationStage == stage && p.Activate(v) {
					refs = append(refs, space.Ref{Group: g.Label, Param: p.Label, Value: v.Label})
				}
			}
		}
	}
	return refs
}

// #endregion advance
