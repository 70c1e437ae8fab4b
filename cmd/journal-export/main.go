package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/logging"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run database")
	runID := flag.String("run", "", "run to export (default: most recent)")
	outPath := flag.String("out", "", "output CSV path (default: stdout)")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: journal-export --db path/to/runs.db [--run id] [--out path/to/journal.csv]")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, runID, outPath string) error {
	store, err := state.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	if runID == "" {
		runs, err := store.ListRuns(1)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			return fmt.Errorf("no runs in %s", dbPath)
		}
		runID = runs[0].RunID
	}

	recs, err := store.ListTicks(runID)
	if err != nil {
		return fmt.Errorf("list ticks: %w", err)
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	if err := logging.WriteCSV(w, recs); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	fmt.Fprintf(os.Stderr, "exported %d rows of run %s\n", len(recs), runID)
	return nil
}

// #endregion export
