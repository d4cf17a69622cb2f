package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CodyClop/zpd-its/internal/config"
	"github.com/CodyClop/zpd-its/internal/engine"
	"github.com/CodyClop/zpd-its/internal/journal"
	"github.com/CodyClop/zpd-its/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "journal database (DB mode)")
	session := flag.String("session", "", "session id to replay (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	configPath := flag.String("config", "", "curriculum override; defaults to the recorded path (DB mode)")
	flag.Parse()

	dbMode := *dbPath != "" && *session != ""
	fixtureMode := *fixturePath != ""
	if dbMode == fixtureMode {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/journal.db --session id [--config path]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if fixtureMode {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *session, *configPath)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	curriculum := f.Curriculum
	if !filepath.IsAbs(curriculum) {
		curriculum = filepath.Join(filepath.Dir(path), curriculum)
	}
	cf, err := config.Load(curriculum)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load curriculum: %v\n", err)
		return 2
	}
	eng, err := cf.Engine(engine.WithSeed(f.Seed))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		return 2
	}

	return printReport(replay.Run(eng, f.CycleRecords()))
}

// #endregion fixture-mode

// #region db-mode

func runDBMode(dbPath, sessionID, configOverride string) int {
	store, err := journal.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	sess, err := store.Session(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load session: %v\n", err)
		return 2
	}
	cycles, err := store.Cycles(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load cycles: %v\n", err)
		return 2
	}
	if len(cycles) == 0 {
		fmt.Fprintf(os.Stderr, "session %s has no recorded cycles\n", sessionID)
		return 2
	}

	curriculum := sess.Curriculum
	if configOverride != "" {
		curriculum = configOverride
	}
	cf, err := config.Load(curriculum)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load curriculum: %v\n", err)
		return 2
	}
	eng, err := cf.Engine(engine.WithSeed(sess.Seed))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		return 2
	}

	return printReport(replay.Run(eng, cycles))
}

// #endregion db-mode

// #region output

// printReport prints the divergence table and returns the exit code: 0 for a
// clean replay, 1 for any divergence.
func printReport(res replay.Result) int {
	if !res.Clean() {
		fmt.Printf("%-6s| %-10s| %-20s| %s\n", "Cycle", "Field", "Expected", "Replayed")
		fmt.Printf("%-6s+%-10s+%-20s+%s\n",
			"------", "-----------", "---------------------", "---------------------")
		for _, d := range res.Divergences {
			fmt.Printf("%-6d| %-10s| %-20s| %s\n", d.Seq, d.Field, d.Want, d.Got)
		}
		fmt.Println()
	}

	fmt.Printf("Summary: %d cycles, %d match, %d diverge\n", res.Cycles, res.Matched, len(res.Divergences))
	if !res.Clean() {
		return 1
	}
	return 0
}

// #endregion output
