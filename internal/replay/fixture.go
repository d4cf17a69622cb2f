package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/CodyClop/zpd-its/internal/journal"
)

// #region fixture-types

// Fixture is a self-contained replay description: the curriculum and seed a
// session ran on, plus the cycle-by-cycle expectations. Unlike a journal it
// travels with the repository, so it doubles as a regression net for the
// selection loop.
type Fixture struct {
	Description string         `json:"description"`
	Curriculum  string         `json:"curriculum"` // curriculum path, resolved relative to the fixture file
	Seed        uint64         `json:"seed"`
	Cycles      []FixtureCycle `json:"cycles"`
}

// FixtureCycle mirrors journal.CycleRecord with only the fields a replay
// checks.
type FixtureCycle struct {
	Seq      int     `json:"seq"`
	Code     string  `json:"code"`
	Score    float64 `json:"score"`
	Stage    int     `json:"stage"`
	Advanced bool    `json:"advanced"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Save writes the fixture as indented JSON.
func (f *Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// CycleRecords converts the fixture's cycles to journal records for the
// harness.
func (f *Fixture) CycleRecords() []journal.CycleRecord {
	records := make([]journal.CycleRecord, 0, len(f.Cycles))
	for _, c := range f.Cycles {
		records = append(records, journal.CycleRecord{
			Seq:      c.Seq,
			Code:     c.Code,
			Score:    c.Score,
			Stage:    c.Stage,
			Advanced: c.Advanced,
		})
	}
	return records
}

// FromSession builds a fixture out of a recorded session.
func FromSession(description string, sess journal.SessionRecord, cycles []journal.CycleRecord) *Fixture {
	f := &Fixture{
		Description: description,
		Curriculum:  sess.Curriculum,
		Seed:        sess.Seed,
		Cycles:      make([]FixtureCycle, 0, len(cycles)),
	}
	for _, rec := range cycles {
		f.Cycles = append(f.Cycles, FixtureCycle{
			Seq:      rec.Seq,
			Code:     rec.Code,
			Score:    rec.Score,
			Stage:    rec.Stage,
			Advanced: rec.Advanced,
		})
	}
	return f
}

// #endregion fixture-loader
