// Package config loads curriculum definitions from YAML: the activity
// graph, the policy coefficients, and the retirement rule table. A loaded
// file builds fresh spaces and engines, so one file can serve many learner
// sessions.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CodyClop/zpd-its/internal/engine"
	"github.com/CodyClop/zpd-its/internal/space"
	"github.com/CodyClop/zpd-its/internal/zpd"
)

// #region schema
// File is one curriculum definition as stored on disk.
type File struct {
	Coefficients engine.Coefficients `yaml:"coefficients"`
	Root         string              `yaml:"root"`
	Groups       []GroupSpec         `yaml:"groups"`
	Retirement   []RuleSpec          `yaml:"retirement"`
}

// GroupSpec declares one group and its parameters. Routing may be omitted
// for single-parameter groups.
type GroupSpec struct {
	Label      string      `yaml:"label"`
	Routing    string      `yaml:"routing"`
	Parameters []ParamSpec `yaml:"parameters"`
}

// ParamSpec declares one parameter and its competing values.
type ParamSpec struct {
	Label  string      `yaml:"label"`
	Values []ValueSpec `yaml:"values"`
}

// ValueSpec declares one value arm. Omitted fields default to an active arm
// with weight 0 unlocking at stage 1; an empty code is legal.
type ValueSpec struct {
	Label      string  `yaml:"label"`
	Code       string  `yaml:"code"`
	Weight     float64 `yaml:"weight"`
	Next       string  `yaml:"next"`
	Active     *bool   `yaml:"active"`
	Activation int     `yaml:"activation"`
}

// RuleSpec declares one retirement rule. An omitted threshold falls back to
// the curriculum's lambda_a.
type RuleSpec struct {
	Group     string   `yaml:"group"`
	Parameter string   `yaml:"parameter"`
	Value     string   `yaml:"value"`
	MinStage  int      `yaml:"min_stage"`
	Threshold *float64 `yaml:"threshold"`
}

// #endregion schema

// #region load
// Load reads and parses a curriculum file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("curriculum %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a curriculum from YAML. Coefficients left out of the file
// keep their defaults.
func Parse(data []byte) (*File, error) {
	f := &File{Coefficients: engine.DefaultCoefficients()}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse curriculum: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) validate() error {
	if err := f.validateCoefficients(); err != nil {
		return err
	}
	if f.Root == "" {
		return fmt.Errorf("%w: missing root group", space.ErrConfiguration)
	}
	if len(f.Groups) == 0 {
		return fmt.Errorf("%w: no groups declared", space.ErrConfiguration)
	}

	groups := make(map[string]bool, len(f.Groups))
	for _, g := range f.Groups {
		if g.Label == "" {
			return fmt.Errorf("%w: group with empty label", space.ErrConfiguration)
		}
		if groups[g.Label] {
			return fmt.Errorf("%w: duplicate group %q", space.ErrConfiguration, g.Label)
		}
		groups[g.Label] = true
	}
	if !groups[f.Root] {
		return fmt.Errorf("%w: root group %q not declared", space.ErrConfiguration, f.Root)
	}

	for _, g := range f.Groups {
		if err := f.validateGroup(g, groups); err != nil {
			return err
		}
	}
	return f.validateRules()
}

func (f *File) validateCoefficients() error {
	c := f.Coefficients
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("%w: gamma %g outside [0, 1]", space.ErrConfiguration, c.Gamma)
	}
	if c.LambdaZPD < 0 || c.LambdaZPD > 1 {
		return fmt.Errorf("%w: lambda_zpd %g outside [0, 1]", space.ErrConfiguration, c.LambdaZPD)
	}
	if c.LambdaA < 0 || c.LambdaA > 1 {
		return fmt.Errorf("%w: lambda_a %g outside [0, 1]", space.ErrConfiguration, c.LambdaA)
	}
	if c.Window < 1 {
		return fmt.Errorf("%w: window %d must be at least 1", space.ErrConfiguration, c.Window)
	}
	if c.Beta < 0 || c.Beta > 1 {
		return fmt.Errorf("%w: beta %g outside [0, 1]", space.ErrConfiguration, c.Beta)
	}
	if c.SoftmaxFactor <= 0 {
		return fmt.Errorf("%w: softmax_factor %g must be positive", space.ErrConfiguration, c.SoftmaxFactor)
	}
	return nil
}

func (f *File) validateGroup(g GroupSpec, groups map[string]bool) error {
	if len(g.Parameters) == 0 {
		return fmt.Errorf("%w: group %q has no parameters", space.ErrConfiguration, g.Label)
	}
	if g.Routing == "" && len(g.Parameters) > 1 {
		return fmt.Errorf("%w: group %q has %d parameters and needs an explicit routing",
			space.ErrConfiguration, g.Label, len(g.Parameters))
	}

	params := make(map[string]bool, len(g.Parameters))
	for _, p := range g.Parameters {
		if p.Label == "" {
			return fmt.Errorf("%w: group %q: parameter with empty label", space.ErrConfiguration, g.Label)
		}
		if params[p.Label] {
			return fmt.Errorf("%w: group %q: duplicate parameter %q", space.ErrConfiguration, g.Label, p.Label)
		}
		params[p.Label] = true

		if len(p.Values) == 0 {
			return fmt.Errorf("%w: group %q: parameter %q has no values", space.ErrConfiguration, g.Label, p.Label)
		}
		seen := make(map[string]bool, len(p.Values))
		for _, v := range p.Values {
			if v.Label == "" {
				return fmt.Errorf("%w: group %q: parameter %q: value with empty label", space.ErrConfiguration, g.Label, p.Label)
			}
			if seen[v.Label] {
				return fmt.Errorf("%w: group %q: parameter %q: duplicate value %q", space.ErrConfiguration, g.Label, p.Label, v.Label)
			}
			seen[v.Label] = true
			if v.Next != "" && !groups[v.Next] {
				return fmt.Errorf("%w: group %q: parameter %q: value %q routes to unknown group %q",
					space.ErrConfiguration, g.Label, p.Label, v.Label, v.Next)
			}
			if v.Activation < 0 {
				return fmt.Errorf("%w: group %q: parameter %q: value %q has negative activation stage",
					space.ErrConfiguration, g.Label, p.Label, v.Label)
			}
		}
	}

	if g.Routing != "" && !params[g.Routing] {
		return fmt.Errorf("%w: group %q: routing parameter %q not declared", space.ErrConfiguration, g.Label, g.Routing)
	}
	return nil
}

func (f *File) validateRules() error {
	for _, r := range f.Retirement {
		if r.MinStage < 1 {
			return fmt.Errorf("%w: retirement rule for %s/%s/%s: min_stage must be at least 1",
				space.ErrConfiguration, r.Group, r.Parameter, r.Value)
		}
		if r.Threshold != nil && (*r.Threshold < 0 || *r.Threshold > 1) {
			return fmt.Errorf("%w: retirement rule for %s/%s/%s: threshold %g outside [0, 1]",
				space.ErrConfiguration, r.Group, r.Parameter, r.Value, *r.Threshold)
		}
		if !f.declares(r.Group, r.Parameter, r.Value) {
			return fmt.Errorf("%w: retirement rule references unknown arm %s/%s/%s",
				space.ErrConfiguration, r.Group, r.Parameter, r.Value)
		}
	}
	return nil
}

func (f *File) declares(group, param, value string) bool {
	for _, g := range f.Groups {
		if g.Label != group {
			continue
		}
		for _, p := range g.Parameters {
			if p.Label != param {
				continue
			}
			for _, v := range p.Values {
				if v.Label == value {
					return true
				}
			}
		}
	}
	return false
}

// #endregion load

// #region build
// Space builds a fresh activity space from the file. Every call returns an
// independent space so sessions never share state.
func (f *File) Space() (*space.Space, error) {
	sp := space.New()
	for _, gs := range f.Groups {
		for _, ps := range gs.Parameters {
			values := make([]*space.Value, 0, len(ps.Values))
			for _, vs := range ps.Values {
				v := &space.Value{
					Label:           vs.Label,
					Code:            vs.Code,
					Weight:          vs.Weight,
					Successor:       vs.Next,
					Active:          vs.Active == nil || *vs.Active,
					ActivationStage: vs.Activation,
				}
				if v.ActivationStage == 0 {
					v.ActivationStage = 1
				}
				values = append(values, v)
			}
			sp.Register(gs.Label, ps.Label, values...)
		}

		routing := gs.Routing
		if routing == "" && len(gs.Parameters) > 0 {
			routing = gs.Parameters[0].Label
		}
		if err := sp.SetRouting(gs.Label, routing); err != nil {
			return nil, err
		}
	}
	return sp, nil
}

// Rules builds the retirement rule table, applying the lambda_a default to
// rules without their own threshold.
func (f *File) Rules() []zpd.Rule {
	rules := make([]zpd.Rule, 0, len(f.Retirement))
	for _, rs := range f.Retirement {
		threshold := f.Coefficients.LambdaA
		if rs.Threshold != nil {
			threshold = *rs.Threshold
		}
		rules = append(rules, zpd.Rule{
			Ref:       space.Ref{Group: rs.Group, Param: rs.Parameter, Value: rs.Value},
			MinStage:  rs.MinStage,
			Threshold: threshold,
		})
	}
	return rules
}

// Engine builds a ready engine over a fresh space.
func (f *File) Engine(opts ...engine.Option) (*engine.Engine, error) {
	sp, err := f.Space()
	if err != nil {
		return nil, err
	}
	return engine.New(sp, f.Root, f.Coefficients, f.Rules(), opts...)
}

// #endregion build
