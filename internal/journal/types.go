package journal

import (
	"time"

	"github.com/CodyClop/zpd-its/internal/engine"
	"github.com/CodyClop/zpd-its/internal/space"
)

// #region session-record
// SessionRecord describes one recorded learner session.
type SessionRecord struct {
	ID         string
	Curriculum string // curriculum file the session ran on
	Seed       uint64
	CreatedAt  time.Time
}

// #endregion session-record

// #region cycle-record
// CycleRecord is one generate/score/update cycle as stored in the journal.
type CycleRecord struct {
	SessionID  string
	Seq        int // 1-based position within the session
	ActivityID string
	Code       string
	Steps      []engine.Step
	Score      float64
	Rewards    []float64
	Stage      int // stage after the cycle
	Advanced   bool
	Activated  []space.Ref
	Retired    []space.Ref
	CreatedAt  time.Time
}

// Cycle assembles the record for one generate/update pair.
func Cycle(sessionID string, seq int, act *engine.Activity, res *engine.UpdateResult) CycleRecord {
	return CycleRecord{
		SessionID:  sessionID,
		Seq:        seq,
		ActivityID: act.ID,
		Code:       act.Code,
		Steps:      act.Steps,
		Score:      res.Score,
		Rewards:    res.Rewards,
		Stage:      res.Stage,
		Advanced:   res.Advanced,
		Activated:  res.Activated,
		Retired:    res.Retired,
		CreatedAt:  time.Now().UTC(),
	}
}

// #endregion cycle-record
