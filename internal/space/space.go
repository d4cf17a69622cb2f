package space

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks curriculum definitions the engine refuses to run:
// dangling references, missing routing, unreachable or empty parameters.
var ErrConfiguration = errors.New("invalid configuration")

// #region space
// Space holds the full activity graph for one learner session: every group,
// parameter, and value arm, plus the session's curriculum stage. It is not
// safe for concurrent use.
type Space struct {
	stage   int
	groups  []*Group
	byLabel map[string]*Group
}

// New returns an empty space at stage 1.
func New() *Space {
	return &Space{stage: 1, byLabel: make(map[string]*Group)}
}

// Stage returns the current curriculum stage.
func (s *Space) Stage() int {
	return s.stage
}

// AdvanceStage increments the stage by one and returns the new value. The
// stage is monotonic; nothing ever lowers it.
func (s *Space) AdvanceStage() int {
	s.stage++
	return s.stage
}

// Register appends value arms to the named parameter of the named group,
// creating both on first mention. Registration order is preserved and drives
// traversal, sampling, and reward order.
func (s *Space) Register(group, param string, values ...*Value) {
	g, ok := s.byLabel[group]
	if !ok {
		g = &Group{Label: group}
		s.groups = append(s.groups, g)
		s.byLabel[group] = g
	}
	p := g.param(param)
	for _, v := range values {
		p.add(v)
	}
}

// SetRouting declares which parameter of a group routes the traversal.
func (s *Space) SetRouting(group, param string) error {
	g, ok := s.byLabel[group]
	if !ok {
		return fmt.Errorf("%w: routing for unknown group %q", ErrConfiguration, group)
	}
	if _, ok := g.Param(param); !ok {
		return fmt.Errorf("%w: group %q: routing parameter %q not registered", ErrConfiguration, group, param)
	}
	g.Routing = param
	return nil
}

// Groups returns the groups in registration order. The slice is live;
// callers must treat it as read-only.
func (s *Space) Groups() []*Group {
	return s.groups
}

// Group looks a group up by label.
func (s *Space) Group(label string) (*Group, bool) {
	g, ok := s.byLabel[label]
	return g, ok
}

// Resolve follows a ref to its arm. The error names the first missing link.
func (s *Space) Resolve(ref Ref) (*Value, error) {
	g, ok := s.byLabel[ref.Group]
	if !ok {
		return nil, fmt.Errorf("unknown group %q", ref.Group)
	}
	p, ok := g.Param(ref.Param)
	if !ok {
		return nil, fmt.Errorf("group %q: unknown parameter %q", ref.Group, ref.Param)
	}
	v, ok := p.Value(ref.Value)
	if !ok {
		return nil, fmt.Errorf("group %q: parameter %q: unknown value %q", ref.Group, ref.Param, ref.Value)
	}
	return v, nil
}

// Weights returns a copy of every weight in the space, mirroring
// Groups/Params/Values order.
func (s *Space) Weights() [][][]float64 {
	out := make([][][]float64, len(s.groups))
	for i, g := range s.groups {
		out[i] = g.Weights()
	}
	return out
}

// Snapshot copies the whole space into a serializable form.
func (s *Space) Snapshot() Snapshot {
	snap := Snapshot{Stage: s.stage}
	for _, g := range s.groups {
		gs := GroupSnapshot{Label: g.Label, Routing: g.Routing}
		for _, p := range g.params {
			ps := ParamSnapshot{Label: p.Label}
			for _, v := range p.values {
				ps.Values = append(ps.Values, ValueSnapshot{
					Label:           v.Label,
					Code:            v.Code,
					Weight:          v.Weight,
					Successor:       v.Successor,
					Active:          v.Active,
					Retired:         v.retired,
					ActivationStage: v.ActivationStage,
					SuccessRate:     v.SuccessRate(),
					Samples:         len(v.scores),
				})
			}
			gs.Params = append(gs.Params, ps)
		}
		snap.Groups = append(snap.Groups, gs)
	}
	return snap
}

// #endregion space

// #region validate
// Validate checks the graph is runnable from the given root: labels are
// unique, every successor resolves, every group can route, and every
// parameter reachable through active routing arms still has at least one
// active candidate. Successor cycles are not rejected here; traversal
// enforces its own hop bound.
func (s *Space) Validate(root string) error {
	if len(s.groups) == 0 {
		return fmt.Errorf("%w: no groups registered", ErrConfiguration)
	}
	if _, ok := s.byLabel[root]; !ok {
		return fmt.Errorf("%w: root group %q not registered", ErrConfiguration, root)
	}

	for _, g := range s.groups {
		if len(g.params) == 0 {
			return fmt.Errorf("%w: group %q has no parameters", ErrConfiguration, g.Label)
		}
		if _, ok := g.RoutingParam(); !ok {
			if g.Routing == "" {
				return fmt.Errorf("%w: group %q has %d parameters and no routing parameter", ErrConfiguration, g.Label, len(g.params))
			}
			return fmt.Errorf("%w: group %q: routing parameter %q not registered", ErrConfiguration, g.Label, g.Routing)
		}
		for _, p := range g.params {
			if len(p.values) == 0 {
				return fmt.Errorf("%w: group %q: parameter %q has no values", ErrConfiguration, g.Label, p.Label)
			}
			if len(p.values) != len(p.byLabel) {
				return fmt.Errorf("%w: group %q: parameter %q has duplicate value labels", ErrConfiguration, g.Label, p.Label)
			}
			for _, v := range p.values {
				if v.Successor == "" {
					continue
				}
				if _, ok := s.byLabel[v.Successor]; !ok {
					return fmt.Errorf("%w: group %q: parameter %q: value %q routes to unknown group %q",
						ErrConfiguration, g.Label, p.Label, v.Label, v.Successor)
				}
			}
		}
	}

	return s.checkReachable(root)
}

// checkReachable walks the groups reachable through active routing arms and
// requires every parameter met on the way to keep at least one active arm.
func (s *Space) checkReachable(root string) error {
	seen := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		label := queue[0]
		queue = queue[1:]
		g := s.byLabel[label]

		for _, p := range g.params {
			if len(p.ActiveValues()) == 0 {
				return fmt.Errorf("%w: group %q: parameter %q is reachable but has no active values", ErrConfiguration, g.Label, p.Label)
			}
		}

		routing, _ := g.RoutingParam()
		for _, v := range routing.ActiveValues() {
			if v.Successor == "" || seen[v.Successor] {
				continue
			}
			seen[v.Successor] = true
			queue = append(queue, v.Successor)
		}
	}
	return nil
}

// #endregion validate
