// Package engine runs the full selection loop over an activity space:
// generate an activity by walking the graph, collect a score, reward the
// drawn arms, and let the zone of proximal development expand or retire
// arms. One engine serves one learner session and is not safe for
// concurrent use.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/CodyClop/zpd-its/internal/reward"
	"github.com/CodyClop/zpd-its/internal/sampling"
	"github.com/CodyClop/zpd-its/internal/space"
	"github.com/CodyClop/zpd-its/internal/zpd"
)

// defaultMaxHops bounds one traversal. A curriculum deep enough to hit it
// almost certainly has a successor cycle.
const defaultMaxHops = 64

// #region engine
// Engine drives one learner session.
type Engine struct {
	space   *space.Space
	root    string
	coef    Coefficients
	zpdCfg  zpd.Config
	rng     *rand.Rand
	log     zerolog.Logger
	maxHops int
}

// Option adjusts an engine at construction.
type Option func(*Engine)

// WithSeed makes generation deterministic for a given seed.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand supplies the random source directly.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMaxHops overrides the traversal hop bound.
func WithMaxHops(n int) Option {
	return func(e *Engine) { e.maxHops = n }
}

// New validates the space from the given root and builds an engine over it.
// The engine owns the space afterwards; callers must not mutate it while
// the session runs.
func New(sp *space.Space, root string, coef Coefficients, rules []zpd.Rule, opts ...Option) (*Engine, error) {
	e := &Engine{
		space:   sp,
		root:    root,
		coef:    coef,
		zpdCfg:  zpd.Config{LambdaZPD: coef.LambdaZPD, Rules: rules},
		rng:     rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		log:     zerolog.Nop(),
		maxHops: defaultMaxHops,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := sp.Validate(root); err != nil {
		return nil, err
	}
	for _, r := range rules {
		if _, err := sp.Resolve(r.Ref); err != nil {
			return nil, fmt.Errorf("%w: retirement rule: %v", space.ErrConfiguration, err)
		}
	}
	return e, nil
}

// Stage returns the current curriculum stage.
func (e *Engine) Stage() int {
	return e.space.Stage()
}

// Coefficients returns the engine's tuning.
func (e *Engine) Coefficients() Coefficients {
	return e.coef
}

// Snapshot exposes the full space state for inspection.
func (e *Engine) Snapshot() space.Snapshot {
	return e.space.Snapshot()
}

// #endregion engine

// #region generate
// Generate walks the graph from the root, drawing one arm per parameter at
// every visited group. The routing parameter's draw names the next group;
// traversal stops at an arm with no successor. The drawn codes concatenate
// into the activity code in traversal order.
func (e *Engine) Generate() (*Activity, error) {
	act := &Activity{ID: uuid.New().String()}
	var code strings.Builder

	current := e.root
	for hops := 0; ; hops++ {
		if hops >= e.maxHops {
			return nil, fmt.Errorf("%w: traversal still running after %d hops from %q, successor cycle suspected",
				space.ErrConfiguration, e.maxHops, e.root)
		}
		g, ok := e.space.Group(current)
		if !ok {
			return nil, fmt.Errorf("%w: unknown group %q", space.ErrConfiguration, current)
		}

		step, next, err := e.sampleGroup(g, &code)
		if err != nil {
			return nil, err
		}
		act.Steps = append(act.Steps, step)

		if next == "" {
			break
		}
		current = next
	}

	act.Code = code.String()
	e.log.Debug().
		Str("activity", act.ID).
		Str("code", act.Code).
		Int("steps", len(act.Steps)).
		Msg("activity generated")
	return act, nil
}

// sampleGroup draws one active arm per parameter and reports the successor
// group chosen by the routing parameter's draw.
func (e *Engine) sampleGroup(g *space.Group, code *strings.Builder) (Step, string, error) {
	routing, ok := g.RoutingParam()
	if !ok {
		return Step{}, "", fmt.Errorf("%w: group %q has no routing parameter", space.ErrConfiguration, g.Label)
	}

	cfg := sampling.Config{Gamma: e.coef.Gamma, SoftmaxFactor: e.coef.SoftmaxFactor}
	step := Step{Group: g.Label}
	next := ""
	for _, p := range g.Params() {
		candidates := p.ActiveValues()
		weights := make([]float64, len(candidates))
		for i, v := range candidates {
			weights[i] = v.Weight
		}

		idx, err := sampling.Draw(e.rng, weights, cfg)
		if err != nil {
			return Step{}, "", fmt.Errorf("%w: group %q: parameter %q: %v", space.ErrConfiguration, g.Label, p.Label, err)
		}

		drawn := candidates[idx]
		code.WriteString(drawn.Code)
		step.Refs = append(step.Refs, space.Ref{Group: g.Label, Param: p.Label, Value: drawn.Label})
		if p == routing {
			next = drawn.Successor
		}
	}
	return step, next, nil
}

// #endregion generate

// #region update
// Update feeds one performance score back for a generated activity: every
// drawn arm records the score, earns its trend reward, and has its weight
// decayed and nudged, all in flattened draw order. One ZPD maintenance pass
// then runs on the updated space.
func (e *Engine) Update(act *Activity, c float64) (*UpdateResult, error) {
	arms, err := e.resolveActivity(act)
	if err != nil {
		return nil, err
	}

	// Rewards are computed against histories that already include this
	// cycle's score, so an arm's very first score yields no trend yet.
	rewards := make([]float64, len(arms))
	for i, v := range arms {
		v.RecordScore(c)
		rewards[i] = reward.Trend(v.Scores(), e.coef.Window)
	}
	for i, v := range arms {
		v.Weight = e.coef.Beta*v.Weight + e.coef.Eta*rewards[i]
	}

	zres, err := zpd.Advance(e.space, e.zpdCfg)
	if err != nil {
		return nil, err
	}

	if zres.Advanced {
		e.log.Info().
			Int("stage", zres.Stage).
			Int("activated", len(zres.Activated)).
			Int("retired", len(zres.Retired)).
			Msg("frontier expanded")
	} else if len(zres.Retired) > 0 {
		e.log.Info().Int("retired", len(zres.Retired)).Msg("arms retired")
	}

	return &UpdateResult{
		ActivityID: act.ID,
		Score:      c,
		Rewards:    rewards,
		Stage:      zres.Stage,
		Advanced:   zres.Advanced,
		Activated:  zres.Activated,
		Retired:    zres.Retired,
	}, nil
}

// resolveActivity maps every drawn ref back to its arm before anything is
// mutated, so a malformed activity cannot leave a half-applied update.
func (e *Engine) resolveActivity(act *Activity) ([]*space.Value, error) {
	if act == nil || len(act.Steps) == 0 {
		return nil, fmt.Errorf("%w: empty activity", ErrInvalidUpdate)
	}

	var arms []*space.Value
	for _, st := range act.Steps {
		g, ok := e.space.Group(st.Group)
		if !ok {
			return nil, fmt.Errorf("%w: unknown group %q", ErrInvalidUpdate, st.Group)
		}
		if len(st.Refs) != len(g.Params()) {
			return nil, fmt.Errorf("%w: group %q: %d draws for %d parameters",
				ErrInvalidUpdate, st.Group, len(st.Refs), len(g.Params()))
		}
		for _, ref := range st.Refs {
			v, err := e.space.Resolve(ref)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
			}
			arms = append(arms, v)
		}
	}
	return arms, nil
}

// #endregion update
