// Package replay re-runs recorded sessions through a freshly built engine
// and reports where the engine's behavior stopped matching the record. A
// clean replay proves the selection loop is deterministic for the recorded
// curriculum and seed; a divergence means the curriculum, the tuning, or
// the engine itself changed underneath the record.
package replay

import (
	"fmt"

	"github.com/CodyClop/zpd-its/internal/engine"
	"github.com/CodyClop/zpd-its/internal/journal"
)

// #region types
// Divergence flags one cycle where the replay did not reproduce the record.
type Divergence struct {
	Seq   int    // cycle the mismatch appeared in
	Field string // "code" | "stage" | "advanced" | "error"
	Want  string
	Got   string
}

func (d Divergence) String() string {
	return fmt.Sprintf("cycle %d: %s: want %q, got %q", d.Seq, d.Field, d.Want, d.Got)
}

// Result summarizes one replayed session.
type Result struct {
	Cycles      int // cycles replayed
	Matched     int // cycles reproduced exactly
	Divergences []Divergence
}

// Clean reports whether the whole session replayed without divergence.
func (r Result) Clean() bool {
	return len(r.Divergences) == 0
}

// #endregion types

// #region run
// Run replays recorded cycles through the engine: each cycle generates an
// activity, checks it against the recorded one, and feeds the recorded
// score back. The engine must be freshly built from the same curriculum and
// seed the record was made with. Replay keeps going after a divergence so
// the report shows its full extent; an engine error ends it early.
func Run(eng *engine.Engine, cycles []journal.CycleRecord) Result {
	var res Result

	for _, rec := range cycles {
		res.Cycles++

		act, err := eng.Generate()
		if err != nil {
			res.Divergences = append(res.Divergences, Divergence{
				Seq: rec.Seq, Field: "error", Got: err.Error(),
			})
			return res
		}

		clean := true
		if act.Code != rec.Code {
			clean = false
			res.Divergences = append(res.Divergences, Divergence{
				Seq: rec.Seq, Field: "code", Want: rec.Code, Got: act.Code,
			})
		}

		ures, err := eng.Update(act, rec.Score)
		if err != nil {
			res.Divergences = append(res.Divergences, Divergence{
				Seq: rec.Seq, Field: "error", Got: err.Error(),
			})
			return res
		}
		if ures.Stage != rec.Stage {
			clean = false
			res.Divergences = append(res.Divergences, Divergence{
				Seq: rec.Seq, Field: "stage",
				Want: fmt.Sprintf("%d", rec.Stage), Got: fmt.Sprintf("%d", ures.Stage),
			})
		}
		if ures.Advanced != rec.Advanced {
			clean = false
			res.Divergences = append(res.Divergences, Divergence{
				Seq: rec.Seq, Field: "advanced",
				Want: fmt.Sprintf("%t", rec.Advanced), Got: fmt.Sprintf("%t", ures.Advanced),
			})
		}

		if clean {
			res.Matched++
		}
	}
	return res
}

// #endregion run
