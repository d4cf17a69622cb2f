package space

import (
	"errors"
	"testing"
)

// makeSpace builds a two-group graph: a root group whose routing arm leads to
// a terminal "Level" group, plus a locked arm that unlocks at stage 2.
func makeSpace() *Space {
	s := New()
	easy := NewValue("easy", "E")
	easy.Successor = "Level"
	hard := NewValue("hard", "H")
	hard.Successor = "Level"
	hard.Active = false
	hard.ActivationStage = 2
	s.Register("Motion", "Move", easy, hard)

	lvl1 := NewValue("level 1", "1")
	lvl2 := NewValue("level 2", "2")
	lvl2.Active = false
	lvl2.ActivationStage = 2
	s.Register("Level", "Level", lvl1, lvl2)
	return s
}

func TestRegisterPreservesOrder(t *testing.T) {
	s := makeSpace()
	groups := s.Groups()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Label != "Motion" || groups[1].Label != "Level" {
		t.Fatalf("registration order lost: %q, %q", groups[0].Label, groups[1].Label)
	}
	p := groups[0].Params()[0]
	if p.Values()[0].Label != "easy" || p.Values()[1].Label != "hard" {
		t.Fatal("value registration order lost")
	}
}

func TestResolve(t *testing.T) {
	s := makeSpace()
	v, err := s.Resolve(Ref{Group: "Motion", Param: "Move", Value: "hard"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if v.Label != "hard" || v.Code != "H" {
		t.Fatalf("resolved wrong arm: %+v", v)
	}

	if _, err := s.Resolve(Ref{Group: "Motion", Param: "Move", Value: "nope"}); err == nil {
		t.Fatal("expected error for unknown value")
	}
	if _, err := s.Resolve(Ref{Group: "nope", Param: "Move", Value: "easy"}); err == nil {
		t.Fatal("expected error for unknown group")
	}
}

func TestSuccessRateEmptyHistory(t *testing.T) {
	v := NewValue("x", "X")
	if got := v.SuccessRate(); got != 0 {
		t.Fatalf("expected 0 for empty history, got %f", got)
	}
}

func TestSuccessRateShortHistory(t *testing.T) {
	v := NewValue("x", "X")
	v.RecordScore(1)
	v.RecordScore(0)
	v.RecordScore(1)
	// 3 scores < window of 4, so the mean covers everything: 2/3
	want := 2.0 / 3.0
	if got := v.SuccessRate(); got < want-1e-12 || got > want+1e-12 {
		t.Fatalf("expected %f, got %f", want, got)
	}
}

func TestSuccessRateUsesRecentWindow(t *testing.T) {
	v := NewValue("x", "X")
	for _, c := range []float64{0, 0, 0, 1, 1, 1, 1} {
		v.RecordScore(c)
	}
	// last 4 scores are all 1
	if got := v.SuccessRate(); got != 1 {
		t.Fatalf("expected 1 from recent window, got %f", got)
	}
}

func TestActivateSeedsFromMinActiveSibling(t *testing.T) {
	s := New()
	a := NewValue("a", "A")
	a.Weight = 5
	b := NewValue("b", "B")
	b.Weight = 2
	locked := NewValue("c", "C")
	locked.Active = false
	locked.ActivationStage = 2
	locked.Weight = 99
	s.Register("G", "P", a, b, locked)

	p := s.Groups()[0].Params()[0]
	if !p.Activate(locked) {
		t.Fatal("expected activation to happen")
	}
	if !locked.Active {
		t.Fatal("arm should be active")
	}
	if locked.Weight != 2 {
		t.Fatalf("expected seeded weight 2, got %f", locked.Weight)
	}
}

func TestActivateWithoutActiveSiblings(t *testing.T) {
	s := New()
	only := NewValue("solo", "S")
	only.Active = false
	only.ActivationStage = 2
	only.Weight = 7
	s.Register("G", "P", only)

	p := s.Groups()[0].Params()[0]
	if !p.Activate(only) {
		t.Fatal("expected activation to happen")
	}
	if only.Weight != 0 {
		t.Fatalf("expected fallback weight 0, got %f", only.Weight)
	}
}

func TestActivateIsIdempotent(t *testing.T) {
	s := makeSpace()
	p := s.Groups()[0].Params()[0]
	active := p.Values()[0]
	active.Weight = 3
	if p.Activate(active) {
		t.Fatal("activating an active arm should be a no-op")
	}
	if active.Weight != 3 {
		t.Fatalf("weight must not change on no-op, got %f", active.Weight)
	}
}

func TestRetireIsPermanent(t *testing.T) {
	s := makeSpace()
	p := s.Groups()[0].Params()[0]
	v := p.Values()[0]
	v.Retire()
	if v.Active {
		t.Fatal("retired arm must be inactive")
	}
	if !v.Retired() {
		t.Fatal("arm must report retired")
	}
	if p.Activate(v) {
		t.Fatal("a retired arm must never reactivate")
	}
	if v.Active {
		t.Fatal("retired arm reactivated")
	}
}

func TestActiveValuesFiltersAndKeepsOrder(t *testing.T) {
	s := makeSpace()
	p := s.Groups()[0].Params()[0]
	active := p.ActiveValues()
	if len(active) != 1 || active[0].Label != "easy" {
		t.Fatalf("expected only the easy arm, got %d arms", len(active))
	}
}

func TestWeightsMirrorsStructure(t *testing.T) {
	s := makeSpace()
	v, _ := s.Resolve(Ref{Group: "Level", Param: "Level", Value: "level 1"})
	v.Weight = 1.5

	w := s.Weights()
	if len(w) != 2 || len(w[1]) != 1 || len(w[1][0]) != 2 {
		t.Fatalf("weight shape does not mirror the space: %v", w)
	}
	if w[1][0][0] != 1.5 {
		t.Fatalf("expected 1.5, got %f", w[1][0][0])
	}

	// must be a copy, not a live view
	w[1][0][0] = 42
	if v.Weight != 1.5 {
		t.Fatal("Weights must return a copy")
	}
}

func TestStageStartsAtOneAndAdvances(t *testing.T) {
	s := New()
	if s.Stage() != 1 {
		t.Fatalf("expected stage 1, got %d", s.Stage())
	}
	if got := s.AdvanceStage(); got != 2 {
		t.Fatalf("expected stage 2, got %d", got)
	}
	if s.Stage() != 2 {
		t.Fatalf("expected stage 2, got %d", s.Stage())
	}
}

func TestValidateAcceptsWellFormedSpace(t *testing.T) {
	s := makeSpace()
	if err := s.Validate("Motion"); err != nil {
		t.Fatalf("expected valid space, got %v", err)
	}
}

func TestValidateRejectsUnknownRoot(t *testing.T) {
	s := makeSpace()
	err := s.Validate("Nowhere")
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidateRejectsUnknownSuccessor(t *testing.T) {
	s := makeSpace()
	v, _ := s.Resolve(Ref{Group: "Motion", Param: "Move", Value: "easy"})
	v.Successor = "Missing"
	err := s.Validate("Motion")
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidateRejectsMissingRoutingOnMultiParamGroup(t *testing.T) {
	s := makeSpace()
	s.Register("Motion", "Tempo", NewValue("slow", "s"))
	err := s.Validate("Motion")
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	if err := s.SetRouting("Motion", "Move"); err != nil {
		t.Fatalf("set routing: %v", err)
	}
	if err := s.Validate("Motion"); err != nil {
		t.Fatalf("expected valid space after routing set, got %v", err)
	}
}

func TestValidateRejectsReachableParamWithNoActiveValues(t *testing.T) {
	s := makeSpace()
	v, _ := s.Resolve(Ref{Group: "Level", Param: "Level", Value: "level 1"})
	v.Active = false
	err := s.Validate("Motion")
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidateIgnoresUnreachableEmptyParams(t *testing.T) {
	s := makeSpace()
	// A group nothing routes to; its dead parameter must not fail validation.
	orphan := NewValue("o", "O")
	orphan.Active = false
	orphan.ActivationStage = 5
	s.Register("Orphan", "P", orphan)
	if err := s.Validate("Motion"); err != nil {
		t.Fatalf("unreachable group must not fail validation, got %v", err)
	}
}

func TestValidateRejectsDuplicateValueLabels(t *testing.T) {
	s := makeSpace()
	s.Register("Motion", "Move", NewValue("easy", "E2"))
	err := s.Validate("Motion")
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestSetRoutingUnknownTargets(t *testing.T) {
	s := makeSpace()
	if err := s.SetRouting("Nope", "Move"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for unknown group, got %v", err)
	}
	if err := s.SetRouting("Motion", "Nope"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for unknown parameter, got %v", err)
	}
}

func TestSnapshotCopiesState(t *testing.T) {
	s := makeSpace()
	v, _ := s.Resolve(Ref{Group: "Motion", Param: "Move", Value: "easy"})
	v.RecordScore(1)
	v.RecordScore(0)

	snap := s.Snapshot()
	if snap.Stage != 1 {
		t.Fatalf("expected stage 1, got %d", snap.Stage)
	}
	if len(snap.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(snap.Groups))
	}
	vs := snap.Groups[0].Params[0].Values[0]
	if vs.Label != "easy" || vs.Samples != 2 || vs.SuccessRate != 0.5 {
		t.Fatalf("unexpected snapshot for easy arm: %+v", vs)
	}
	if vs.Successor != "Level" {
		t.Fatalf("expected successor Level, got %q", vs.Successor)
	}
}
