package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/logging"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/replay"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
)

// #region main

func main() {
	csvPath := flag.String("csv", "", "path to a CSV learning journal (journal mode)")
	dbPath := flag.String("db", "", "path to the run database (DB mode, needs --run)")
	runID := flag.String("run", "", "run to replay from the database")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	verbose := flag.Bool("v", false, "print every row, not only mismatches")
	flag.Parse()

	modes := 0
	for _, p := range []string{*csvPath, *dbPath, *fixturePath} {
		if p != "" {
			modes++
		}
	}
	if modes != 1 || (*dbPath != "" && *runID == "") {
		fmt.Fprintln(os.Stderr, "usage: replay --csv path/to/mICO_log.csv [-v]")
		fmt.Fprintln(os.Stderr, "       replay --db path/to/runs.db --run id [-v]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	switch {
	case *fixturePath != "":
		exitCode = runFixtureMode(*fixturePath)
	case *csvPath != "":
		recs, err := logging.ReadCSV(*csvPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read journal: %v\n", err)
			os.Exit(1)
		}
		exitCode = runJournalMode(recs, *verbose)
	default:
		store, err := state.NewStore(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open db: %v\n", err)
			os.Exit(1)
		}
		recs, err := store.ListTicks(*runID)
		store.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list ticks: %v\n", err)
			os.Exit(1)
		}
		exitCode = runJournalMode(recs, *verbose)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region journal-mode

func runJournalMode(recs []state.LogRecord, verbose bool) int {
	if len(recs) == 0 {
		fmt.Fprintln(os.Stderr, "journal is empty")
		return 0
	}

	results := replay.Replay(recs, replay.DefaultReplayConfig())
	fmt.Printf("%-6s| %-4s| %-8s| %-11s| %-11s| %s\n", "Row", "Sess", "Attempt", "Action", "Weight", "Match")
	fmt.Printf("%-6s+%-5s+%-9s+%-12s+%-12s+%s\n", "------", "-----", "---------", "------------", "------------", "------")
	for _, r := range results {
		if r.Match && !verbose {
			continue
		}
		match := "OK"
		if !r.Match {
			match = "MISMATCH " + r.Reason
		}
		fmt.Printf("%-6d| %-4d| %-8d| %-11s| %-11.6f| %s\n",
			r.Index, r.Session, r.Attempt, r.Action, r.Expected.Weight, match)
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d rows, %d sessions, %d match, %d mismatch\n", s.TotalTicks, s.Sessions, s.Matches, s.Mismatches)
	fmt.Printf("Actions: %d learn, %d hold, %d first_tick | final weight %.6f\n", s.Learns, s.Holds, s.FirstTicks, s.FinalWeight)
	if s.Mismatches > 0 {
		return 1
	}
	return 0
}

// #endregion journal-mode

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if len(f.ExpectedResults) != len(f.Ticks) {
		fmt.Fprintf(os.Stderr, "fixture has %d ticks but %d expectations\n", len(f.Ticks), len(f.ExpectedResults))
		return 1
	}
	fmt.Printf("Fixture: %s\n\n", f.Description)

	results := f.Run()
	fmt.Printf("%-5s| %-13s| %-13s| %-11s| %s\n", "Tick", "Expected", "Replayed", "Weight", "Match")
	fmt.Printf("%-5s+%-14s+%-14s+%-12s+%s\n", "-----", "--------------", "--------------", "------------", "------")

	diverge := 0
	for i, got := range results {
		want := f.ExpectedResults[i]
		match := "OK"
		if diff := want.Check(got, 1e-9); diff != "" {
			match = "DIVERGE " + diff
			diverge++
		}
		fmt.Printf("%-5d| %-13s| %-13s| %-11.6f| %s\n",
			got.Tick, want.Outcome, got.Result.Outcome, got.State.Weight, match)
	}

	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", len(results), len(results)-diverge, diverge)
	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion fixture-mode
