package space

import "gonum.org/v1/gonum/stat"

// successRateWindow is the number of most recent scores that define an
// arm's success rate once enough history exists.
const successRateWindow = 4

// #region ref
// Ref addresses one value arm by its group, parameter, and value labels.
// Refs stay valid across activation, retirement, and weight changes.
type Ref struct {
	Group string `json:"group"`
	Param string `json:"param"`
	Value string `json:"value"`
}

func (r Ref) String() string {
	return r.Group + "/" + r.Param + "/" + r.Value
}

// #endregion ref

// #region value
// Value is one selectable arm competing under the bandit policy. Its score
// history is append-only; the weight and activation state are mutated by the
// engine between draws.
type Value struct {
	Label           string
	Code            string  // fragment contributed to the activity code, may be empty
	Weight          float64 // bandit weight, unbounded
	Successor       string  // group visited next when this arm routes; "" = terminal
	Active          bool
	ActivationStage int // stage at which an inactive arm unlocks

	scores  []float64
	retired bool
}

// NewValue returns an arm that is active from stage 1 with weight 0.
// Callers adjust the exported fields before registering it.
func NewValue(label, code string) *Value {
	return &Value{Label: label, Code: code, Active: true, ActivationStage: 1}
}

// RecordScore appends one performance score to the arm's history.
func (v *Value) RecordScore(c float64) {
	v.scores = append(v.scores, c)
}

// Scores returns the arm's full score history, oldest first. The slice is
// live; callers must treat it as read-only.
func (v *Value) Scores() []float64 {
	return v.scores
}

// SuccessRate is the mean of the last few scores: 0 with no history, the mean
// of everything while the history is still short, otherwise the mean of the
// most recent window.
func (v *Value) SuccessRate() float64 {
	n := len(v.scores)
	if n == 0 {
		return 0
	}
	if n < successRateWindow {
		return stat.Mean(v.scores, nil)
	}
	return stat.Mean(v.scores[n-successRateWindow:], nil)
}

// Retire deactivates the arm permanently. A retired arm never becomes a
// sampling candidate again and Activate refuses to revive it.
func (v *Value) Retire() {
	v.Active = false
	v.retired = true
}

// Retired reports whether the arm has been permanently deactivated.
func (v *Value) Retired() bool {
	return v.retired
}

// #endregion value

// #region param
// Param is an ordered family of competing value arms. Exactly one of its
// arms is drawn whenever the owning group is visited.
type Param struct {
	Label string

	values  []*Value
	byLabel map[string]*Value
}

func (p *Param) add(v *Value) {
	if p.byLabel == nil {
		p.byLabel = make(map[string]*Value)
	}
	p.values = append(p.values, v)
	p.byLabel[v.Label] = v
}

// Values returns the arms in registration order. The slice is live; callers
// must treat it as read-only.
func (p *Param) Values() []*Value {
	return p.values
}

// Value looks an arm up by label.
func (p *Param) Value(label string) (*Value, bool) {
	v, ok := p.byLabel[label]
	return v, ok
}

// ActiveValues returns the current sampling candidates in registration order.
func (p *Param) ActiveValues() []*Value {
	out := make([]*Value, 0, len(p.values))
	for _, v := range p.values {
		if v.Active {
			out = append(out, v)
		}
	}
	return out
}

// Weights returns a copy of every arm's weight, mirroring Values order.
func (p *Param) Weights() []float64 {
	out := make([]float64, len(p.values))
	for i, v := range p.values {
		out[i] = v.Weight
	}
	return out
}

// Activate unlocks v, seeding its weight from the minimum weight among the
// parameter's currently active arms so the newcomer starts as the least
// preferred candidate; with no active sibling the weight falls back to 0,
// overwriting whatever the configuration preset.
// Returns false without touching v when it is already active or retired.
// v must be one of p's arms.
func (p *Param) Activate(v *Value) bool {
	if v.Active || v.retired {
		return false
	}
	seeded := false
	seed := 0.0
	for _, sib := range p.values {
		if !sib.Active {
			continue
		}
		if !seeded || sib.Weight < seed {
			seed = sib.Weight
			seeded = true
		}
	}
	v.Weight = seed
	v.Active = true
	return true
}

// #endregion param

// #region group
// Group is one visited node of the activity graph: a labelled bundle of
// parameters, one of which routes the traversal onward.
type Group struct {
	Label   string
	Routing string // label of the routing parameter; may be empty for single-parameter groups

	params  []*Param
	byLabel map[string]*Param
}

func (g *Group) param(label string) *Param {
	if g.byLabel == nil {
		g.byLabel = make(map[string]*Param)
	}
	p, ok := g.byLabel[label]
	if !ok {
		p = &Param{Label: label}
		g.params = append(g.params, p)
		g.byLabel[label] = p
	}
	return p
}

// Params returns the parameters in registration order. The slice is live;
// callers must treat it as read-only.
func (g *Group) Params() []*Param {
	return g.params
}

// Param looks a parameter up by label.
func (g *Group) Param(label string) (*Param, bool) {
	p, ok := g.byLabel[label]
	return p, ok
}

// RoutingParam resolves the parameter whose drawn arm decides the successor
// group. An unset Routing defaults to the sole parameter; with several
// parameters the routing choice must be explicit, so ok is false.
func (g *Group) RoutingParam() (*Param, bool) {
	if g.Routing != "" {
		p, ok := g.byLabel[g.Routing]
		return p, ok
	}
	if len(g.params) == 1 {
		return g.params[0], true
	}
	return nil, false
}

// Weights returns a copy of the per-parameter weight vectors, mirroring
// Params/Values order.
func (g *Group) Weights() [][]float64 {
	out := make([][]float64, len(g.params))
	for i, p := range g.params {
		out[i] = p.Weights()
	}
	return out
}

// #endregion group

// #region snapshot
// Snapshot is a read-only copy of the whole space, safe to serialize.
type Snapshot struct {
	Stage  int             `json:"stage"`
	Groups []GroupSnapshot `json:"groups"`
}

// GroupSnapshot mirrors one group.
type GroupSnapshot struct {
	Label   string          `json:"label"`
	Routing string          `json:"routing,omitempty"`
	Params  []ParamSnapshot `json:"parameters"`
}

// ParamSnapshot mirrors one parameter.
type ParamSnapshot struct {
	Label  string          `json:"label"`
	Values []ValueSnapshot `json:"values"`
}

// ValueSnapshot mirrors one arm, with its derived success rate.
type ValueSnapshot struct {
	Label           string  `json:"label"`
	Code            string  `json:"code"`
	Weight          float64 `json:"weight"`
	Successor       string  `json:"successor,omitempty"`
	Active          bool    `json:"active"`
	Retired         bool    `json:"retired"`
	ActivationStage int     `json:"activation_stage"`
	SuccessRate     float64 `json:"success_rate"`
	Samples         int     `json:"samples"`
}

// #endregion snapshot
