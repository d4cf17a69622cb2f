package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/CodyClop/zpd-its/internal/config"
	"github.com/CodyClop/zpd-its/internal/journal"
	"github.com/CodyClop/zpd-its/internal/space"
)

// #region main

func main() {
	configPath := flag.String("config", "", "curriculum YAML; shows its initial graph")
	dbPath := flag.String("db", "", "journal database; shows recorded sessions")
	session := flag.String("session", "", "show the cycles of one session (with --db)")
	last := flag.Int("last", 20, "show N most recent sessions (with --db)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if (*configPath == "") == (*dbPath == "") {
		fmt.Fprintln(os.Stderr, "usage: inspect --config path/to/curriculum.yaml [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --db path/to/journal.db [--last N] [--session id] [--json]")
		os.Exit(2)
	}

	var err error
	switch {
	case *configPath != "":
		err = runGraphMode(*configPath, *jsonOut)
	case *session != "":
		err = runCycleMode(*dbPath, *session, *jsonOut)
	default:
		err = runSessionMode(*dbPath, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region graph-mode

func runGraphMode(configPath string, jsonOut bool) error {
	cf, err := config.Load(configPath)
	if err != nil {
		return err
	}
	sp, err := cf.Space()
	if err != nil {
		return err
	}

	snap := sp.Snapshot()
	if jsonOut {
		return printJSON(snap)
	}
	printGraphTable(cf.Root, snap)
	return nil
}

func printGraphTable(root string, snap space.Snapshot) {
	fmt.Printf("Stage: %d   Root: %s\n", snap.Stage, root)

	for _, g := range snap.Groups {
		fmt.Printf("\n%s\n", g.Label)
		for _, p := range g.Params {
			marker := ""
			if p.Label == g.Routing {
				marker = " (routing)"
			}
			fmt.Printf("  %s%s\n", p.Label, marker)
			for _, v := range p.Values {
				next := v.Successor
				if next == "" {
					next = "—"
				}
				fmt.Printf("    %-24s %-6q %8.3f  %-8s stage %-3d -> %s\n",
					v.Label, v.Code, v.Weight, armState(v), v.ActivationStage, next)
			}
		}
	}
}

// armState names the lifecycle state of one arm.
func armState(v space.ValueSnapshot) string {
	switch {
	case v.Retired:
		return "retired"
	case v.Active:
		return "active"
	default:
		return "locked"
	}
}

// #endregion graph-mode

// #region session-mode

type sessionRow struct {
	ID         string `json:"id"`
	Curriculum string `json:"curriculum"`
	Seed       uint64 `json:"seed"`
	CreatedAt  string `json:"created_at"`
}

func runSessionMode(dbPath string, last int, jsonOut bool) error {
	store, err := journal.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Sessions(last)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	rows := make([]sessionRow, len(sessions))
	for i, s := range sessions {
		rows[i] = sessionRow{
			ID:         s.ID,
			Curriculum: s.Curriculum,
			Seed:       s.Seed,
			CreatedAt:  s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-36s  %-20s  %s\n", "Session", "Curriculum", "Seed", "Created")
	fmt.Printf("%-12s+-%-36s+-%-20s+-%s\n",
		"------------", "------------------------------------", "--------------------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-36s  %-20d  %s\n", shortID(r.ID), r.Curriculum, r.Seed, r.CreatedAt)
	}
	return nil
}

// #endregion session-mode

// #region cycle-mode

type cycleRow struct {
	Seq       int      `json:"seq"`
	Code      string   `json:"code"`
	Score     float64  `json:"score"`
	Stage     int      `json:"stage"`
	Advanced  bool     `json:"advanced"`
	Activated []string `json:"activated,omitempty"`
	Retired   []string `json:"retired,omitempty"`
}

func runCycleMode(dbPath, sessionID string, jsonOut bool) error {
	store, err := journal.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.Session(sessionID)
	if err != nil {
		return err
	}
	cycles, err := store.Cycles(sessionID)
	if err != nil {
		return err
	}

	rows := make([]cycleRow, len(cycles))
	for i, c := range cycles {
		rows[i] = cycleRow{
			Seq:       c.Seq,
			Code:      c.Code,
			Score:     c.Score,
			Stage:     c.Stage,
			Advanced:  c.Advanced,
			Activated: refStrings(c.Activated),
			Retired:   refStrings(c.Retired),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("Session: %s   Curriculum: %s   Seed: %d\n\n", sess.ID, sess.Curriculum, sess.Seed)
	fmt.Printf("%-5s  %-16s  %6s  %5s  %-8s  %s\n", "Seq", "Code", "Score", "Stage", "Advanced", "Events")
	fmt.Printf("%-5s+-%-16s+-%6s+-%5s+-%-8s+-%s\n",
		"-----", "----------------", "------", "-----", "--------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-5d  %-16s  %6.2f  %5d  %-8v  %s\n",
			r.Seq, r.Code, r.Score, r.Stage, r.Advanced, eventSummary(r))
	}
	return nil
}

// eventSummary condenses the activation and retirement lists of one cycle.
func eventSummary(r cycleRow) string {
	if len(r.Activated) == 0 && len(r.Retired) == 0 {
		return "—"
	}
	s := ""
	for _, ref := range r.Activated {
		s += fmt.Sprintf("+%s ", ref)
	}
	for _, ref := range r.Retired {
		s += fmt.Sprintf("-%s ", ref)
	}
	return s[:len(s)-1]
}

func refStrings(refs []space.Ref) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = ref.String()
	}
	return out
}

// #endregion cycle-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
