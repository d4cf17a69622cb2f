package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/CodyClop/zpd-its/internal/config"
	"github.com/CodyClop/zpd-its/internal/engine"
	"github.com/CodyClop/zpd-its/internal/journal"
	"github.com/CodyClop/zpd-its/internal/sim"
	"github.com/CodyClop/zpd-its/internal/space"
)

// #region main

func main() {
	configPath := flag.String("config", "", "path to the curriculum YAML")
	cycles := flag.Int("cycles", 30, "generate/score/update cycles to run")
	seed := flag.Uint64("seed", 1, "engine sampling seed")
	learnerSeed := flag.Uint64("learner-seed", 1, "synthetic learner noise seed")
	dbPath := flag.String("db", "", "journal database; records the session when set")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *configPath == "" || *cycles < 1 {
		fmt.Fprintln(os.Stderr, "usage: simulate --config path/to/curriculum.yaml [--cycles N] [--seed N] [--learner-seed N] [--db path/to/journal.db] [-v]")
		os.Exit(2)
	}

	logger := setupLogger(*verbose)

	cf, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load curriculum")
	}

	// The learner grades against the same space the engine samples from, so
	// both are built explicitly instead of through cf.Engine.
	sp, err := cf.Space()
	if err != nil {
		logger.Fatal().Err(err).Msg("build space")
	}
	eng, err := engine.New(sp, cf.Root, cf.Coefficients, cf.Rules(),
		engine.WithSeed(*seed), engine.WithLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("build engine")
	}
	learner := sim.NewLearner(sim.DefaultConfig(), *learnerSeed)

	var store *journal.Store
	var sess journal.SessionRecord
	if *dbPath != "" {
		store, err = journal.NewStore(*dbPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("open journal")
		}
		defer store.Close()

		sess, err = store.BeginSession(*configPath, *seed)
		if err != nil {
			logger.Fatal().Err(err).Msg("begin session")
		}
		logger.Info().Str("session", sess.ID).Msg("recording to journal")
	}

	if err := run(eng, sp, learner, store, sess, *cycles, logger); err != nil {
		logger.Fatal().Err(err).Msg("simulation failed")
	}

	logger.Info().Int("cycles", *cycles).Int("stage", eng.Stage()).Msg("simulation complete")

	if err := printJSON(eng.Snapshot()); err != nil {
		logger.Fatal().Err(err).Msg("print snapshot")
	}
}

// #endregion main

// #region loop

// run drives the generate/score/update loop, journaling each cycle when a
// store is attached.
func run(eng *engine.Engine, sp *space.Space, learner *sim.Learner, store *journal.Store, sess journal.SessionRecord, cycles int, logger zerolog.Logger) error {
	for seq := 1; seq <= cycles; seq++ {
		act, err := eng.Generate()
		if err != nil {
			return fmt.Errorf("cycle %d: generate: %w", seq, err)
		}
		score, err := learner.Score(sp, act)
		if err != nil {
			return fmt.Errorf("cycle %d: score: %w", seq, err)
		}
		res, err := eng.Update(act, score)
		if err != nil {
			return fmt.Errorf("cycle %d: update: %w", seq, err)
		}

		logger.Info().
			Int("cycle", seq).
			Str("code", act.Code).
			Float64("score", score).
			Int("stage", res.Stage).
			Bool("advanced", res.Advanced).
			Msg("cycle")

		if store != nil {
			if err := store.RecordCycle(journal.Cycle(sess.ID, seq, act, res)); err != nil {
				return fmt.Errorf("cycle %d: record: %w", seq, err)
			}
		}
	}
	return nil
}

// #endregion loop

// #region helpers

// setupLogger builds a console logger on stderr; -v widens it to debug.
func setupLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// #endregion helpers
