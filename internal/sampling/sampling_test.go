package sampling

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestMixtureEmptyCandidates(t *testing.T) {
	if _, err := Mixture(nil, Config{Gamma: 0.2, SoftmaxFactor: 10}); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
	if _, err := Draw(nil, []float64{}, Config{}); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates from Draw, got %v", err)
	}
}

func TestMixturePureExplorationIsUniform(t *testing.T) {
	p, err := Mixture([]float64{-3, 0, 7, 2}, Config{Gamma: 1, SoftmaxFactor: 10})
	if err != nil {
		t.Fatal(err)
	}
	for i, x := range p {
		if math.Abs(x-0.25) > 1e-12 {
			t.Fatalf("entry %d: expected 0.25, got %g", i, x)
		}
	}
}

func TestMixturePureExploitationIsSoftmax(t *testing.T) {
	// factor 10 over weights [0, 0.1] gives logits [0, 1]:
	// softmax = [1/(1+e), e/(1+e)]
	p, err := Mixture([]float64{0, 0.1}, Config{Gamma: 0, SoftmaxFactor: 10})
	if err != nil {
		t.Fatal(err)
	}
	want0 := 1 / (1 + math.E)
	want1 := math.E / (1 + math.E)
	if math.Abs(p[0]-want0) > 1e-12 || math.Abs(p[1]-want1) > 1e-12 {
		t.Fatalf("expected [%g %g], got %v", want0, want1, p)
	}
}

func TestMixtureBlend(t *testing.T) {
	p, err := Mixture([]float64{0, 0.1}, Config{Gamma: 0.2, SoftmaxFactor: 10})
	if err != nil {
		t.Fatal(err)
	}
	want0 := 0.8*(1/(1+math.E)) + 0.2*0.5
	want1 := 0.8*(math.E/(1+math.E)) + 0.2*0.5
	if math.Abs(p[0]-want0) > 1e-12 || math.Abs(p[1]-want1) > 1e-12 {
		t.Fatalf("expected [%g %g], got %v", want0, want1, p)
	}
}

func TestMixtureSumsToOne(t *testing.T) {
	cases := [][]float64{
		{0},
		{1, 2, 3},
		{-5, 0, 5},
		{0.1, 0.1, 0.1, 0.1, 0.1},
	}
	for _, weights := range cases {
		p, err := Mixture(weights, Config{Gamma: 0.3, SoftmaxFactor: 10})
		if err != nil {
			t.Fatal(err)
		}
		var sum float64
		for _, x := range p {
			if x < 0 {
				t.Fatalf("negative probability %g for weights %v", x, weights)
			}
			sum += x
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("probabilities sum to %g for weights %v", sum, weights)
		}
	}
}

func TestMixtureSurvivesLargeWeights(t *testing.T) {
	p, err := Mixture([]float64{1000, 999, -1000}, Config{Gamma: 0.1, SoftmaxFactor: 10})
	if err != nil {
		t.Fatal(err)
	}
	for i, x := range p {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			t.Fatalf("entry %d not finite: %g", i, x)
		}
	}
	if p[0] < p[1] || p[1] < p[2] {
		t.Fatalf("ordering lost under large weights: %v", p)
	}
}

func TestDrawDeterministicForSeed(t *testing.T) {
	weights := []float64{0.2, 0.5, 0.1, 0.9}
	cfg := Config{Gamma: 0.2, SoftmaxFactor: 10}

	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		x, err := Draw(a, weights, cfg)
		if err != nil {
			t.Fatal(err)
		}
		y, err := Draw(b, weights, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if x != y {
			t.Fatalf("draw %d diverged: %d vs %d", i, x, y)
		}
	}
}

func TestDrawPrefersHeavyArm(t *testing.T) {
	// With gamma 0 and a full weight unit of separation the softmax puts
	// ~99.995% of the mass on the heavy arm.
	rng := rand.New(rand.NewSource(7))
	weights := []float64{0, 1}
	cfg := Config{Gamma: 0, SoftmaxFactor: 10}

	heavy := 0
	for i := 0; i < 200; i++ {
		idx, err := Draw(rng, weights, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if idx == 1 {
			heavy++
		}
	}
	if heavy < 190 {
		t.Fatalf("heavy arm drawn only %d/200 times", heavy)
	}
}

func TestDrawUniformUnderFullExploration(t *testing.T) {
	// gamma 1 ignores the weights entirely; check the empirical counts look
	// uniform with a chi-squared test at a very forgiving significance.
	rng := rand.New(rand.NewSource(11))
	weights := []float64{100, 0, -100, 50}
	cfg := Config{Gamma: 1, SoftmaxFactor: 10}

	const draws = 4000
	counts := make([]float64, len(weights))
	for i := 0; i < draws; i++ {
		idx, err := Draw(rng, weights, cfg)
		if err != nil {
			t.Fatal(err)
		}
		counts[idx]++
	}

	expected := float64(draws) / float64(len(weights))
	var chi2 float64
	for _, c := range counts {
		d := c - expected
		chi2 += d * d / expected
	}
	dist := distuv.ChiSquared{K: float64(len(weights) - 1)}
	if p := dist.Survival(chi2); p < 1e-6 {
		t.Fatalf("draw counts %v too far from uniform: chi2=%.2f p=%g", counts, chi2, p)
	}
}
