package replay

import (
	"path/filepath"
	"testing"

	"github.com/CodyClop/zpd-its/internal/config"
	"github.com/CodyClop/zpd-its/internal/engine"
	"github.com/CodyClop/zpd-its/internal/journal"
)

// #region fixture-tests

// TestFixtureProgression replays the checked-in progression fixture. Its
// curriculum forces every draw (one active candidate per parameter at every
// point of the session), so the expected codes and stages hold for any
// seed. This is the primary regression net — if the reward, advancement, or
// retirement behavior drifts, this catches it.
func TestFixtureProgression(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "progression.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	cf, err := config.Load(filepath.Join("testdata", f.Curriculum))
	if err != nil {
		t.Fatalf("load curriculum: %v", err)
	}
	eng, err := cf.Engine(engine.WithSeed(f.Seed))
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	res := Run(eng, f.CycleRecords())
	if !res.Clean() {
		for _, d := range res.Divergences {
			t.Errorf("%s", d)
		}
		t.Fatalf("progression fixture diverged (%d/%d matched)", res.Matched, res.Cycles)
	}
	if res.Cycles != len(f.Cycles) {
		t.Fatalf("expected %d cycles replayed, got %d", len(f.Cycles), res.Cycles)
	}
}

// TestFixtureSaveLoadRoundTrip writes a fixture from a live session and
// loads it back identical.
func TestFixtureSaveLoadRoundTrip(t *testing.T) {
	records := record(t, makeEngine(t, 3), 6)
	sess := journal.SessionRecord{ID: "sess", Curriculum: "configs/mobility.yaml", Seed: 3}
	f := FromSession("round trip check", sess, records)

	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := f.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFixture(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Description != f.Description || loaded.Curriculum != f.Curriculum || loaded.Seed != f.Seed {
		t.Fatalf("fixture header lost: %+v", loaded)
	}
	if len(loaded.Cycles) != len(f.Cycles) {
		t.Fatalf("expected %d cycles, got %d", len(f.Cycles), len(loaded.Cycles))
	}
	for i := range f.Cycles {
		if loaded.Cycles[i] != f.Cycles[i] {
			t.Fatalf("cycle %d lost in round trip: %+v vs %+v", i, loaded.Cycles[i], f.Cycles[i])
		}
	}
}

// TestFixtureCycleRecords checks the conversion to harness records.
func TestFixtureCycleRecords(t *testing.T) {
	f := &Fixture{
		Cycles: []FixtureCycle{
			{Seq: 1, Code: "S1", Score: 0.5, Stage: 1},
			{Seq: 2, Code: "T1", Score: 1, Stage: 2, Advanced: true},
		},
	}
	records := f.CycleRecords()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Seq != 2 || records[1].Code != "T1" || records[1].Score != 1 || records[1].Stage != 2 || !records[1].Advanced {
		t.Fatalf("conversion lost fields: %+v", records[1])
	}
}

// TestFixtureReplaysClean records a live session into a fixture and replays
// it against a fresh engine.
func TestFixtureReplaysClean(t *testing.T) {
	records := record(t, makeEngine(t, 13), 15)
	sess := journal.SessionRecord{ID: "sess", Curriculum: "inline", Seed: 13}
	f := FromSession("determinism net", sess, records)

	res := Run(makeEngine(t, 13), f.CycleRecords())
	if !res.Clean() {
		t.Fatalf("expected clean replay from fixture, got %v", res.Divergences)
	}
}

// TestLoadFixtureMissingFile checks the error path.
func TestLoadFixtureMissingFile(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatal("expected an error")
	}
}

// #endregion fixture-tests
