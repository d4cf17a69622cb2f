package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/CodyClop/zpd-its/internal/journal"
	"github.com/CodyClop/zpd-its/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "journal database")
	session := flag.String("session", "", "session id to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	description := flag.String("description", "", "fixture description (defaults to session metadata)")
	flag.Parse()

	if *dbPath == "" || *session == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/journal.db --session id --out path/to/fixture.json [--description text]")
		os.Exit(2)
	}

	if err := run(*dbPath, *session, *outPath, *description); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, sessionID, outPath, description string) error {
	store, err := journal.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	sess, err := store.Session(sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	cycles, err := store.Cycles(sessionID)
	if err != nil {
		return fmt.Errorf("load cycles: %w", err)
	}
	if len(cycles) == 0 {
		return fmt.Errorf("session %s has no recorded cycles", sessionID)
	}

	if description == "" {
		description = fmt.Sprintf("session %s: %d cycles on %s", sess.ID, len(cycles), sess.Curriculum)
	}

	f := replay.FromSession(description, sess, cycles)
	if err := f.Save(outPath); err != nil {
		return err
	}

	fmt.Printf("Wrote fixture to %s (%d cycles)\n", outPath, len(f.Cycles))
	return nil
}

// #endregion export
