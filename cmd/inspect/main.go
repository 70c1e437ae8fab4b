package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/eval"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/logging"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run database")
	csvPath := flag.String("csv", "", "path to a CSV learning journal")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if (*dbPath == "") == (*csvPath == "") {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/runs.db [--last N] [--run id] [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --csv path/to/mICO_log.csv [--json]")
		os.Exit(2)
	}

	var err error
	switch {
	case *csvPath != "":
		err = runCSVMode(*csvPath, *jsonOut)
	default:
		store, openErr := state.NewStore(*dbPath)
		if openErr != nil {
			fmt.Fprintf(os.Stderr, "open db: %v\n", openErr)
			os.Exit(1)
		}
		defer store.Close()
		if *runID != "" {
			err = runDetailMode(store, *runID, *jsonOut)
		} else {
			err = runListMode(store, *last, *jsonOut)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID       string  `json:"run_id"`
	Status      string  `json:"status"`
	SeedWeight  float64 `json:"seed_weight"`
	FinalWeight float64 `json:"final_weight"`
	Attempts    int     `json:"attempts"`
	RedoCount   int     `json:"redo_count"`
	Ticks       int     `json:"ticks"`
	StartedAt   string  `json:"started_at"`
}

func runListMode(store *state.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// Store returns newest first, reverse for chronological
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:       r.RunID,
			Status:      string(r.Status),
			SeedWeight:  r.SeedWeight,
			FinalWeight: r.FinalWeight,
			Attempts:    r.Attempts,
			RedoCount:   r.RedoCount,
			Ticks:       r.TickCount,
			StartedAt:   r.StartedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-10s  %-11s  %10s  %10s  %8s  %4s  %7s  %s\n",
		"Run", "Status", "Seed", "Final", "Attempts", "Redo", "Ticks", "Started")
	fmt.Printf("%-10s+-%-11s+-%10s+-%10s+-%8s+-%4s+-%7s+-%s\n",
		"----------", "-----------", "----------", "----------", "--------", "----", "-------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %-11s  %10.6f  %10.6f  %8d  %4d  %7d  %s\n",
			shortID(r.RunID), r.Status, r.SeedWeight, r.FinalWeight, r.Attempts, r.RedoCount, r.Ticks, r.StartedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Run   listRow           `json:"run"`
	Eval  eval.EvalResult   `json:"eval"`
	Ticks []state.LogRecord `json:"ticks,omitempty"`
}

func runDetailMode(store *state.Store, runID string, jsonOut bool) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	ticks, err := store.ListTicks(runID)
	if err != nil {
		return err
	}
	result := eval.NewEvalHarness(eval.DefaultEvalConfig()).Run(ticks)

	if jsonOut {
		return printJSON(detailOutput{
			Run: listRow{
				RunID:       run.RunID,
				Status:      string(run.Status),
				SeedWeight:  run.SeedWeight,
				FinalWeight: run.FinalWeight,
				Attempts:    run.Attempts,
				RedoCount:   run.RedoCount,
				Ticks:       len(ticks),
				StartedAt:   run.StartedAt.Format("2006-01-02T15:04:05Z"),
			},
			Eval:  result,
			Ticks: ticks,
		})
	}

	fmt.Printf("Run:        %s\n", run.RunID)
	fmt.Printf("Status:     %s\n", run.Status)
	fmt.Printf("Started:    %s\n", run.StartedAt.Format("2006-01-02T15:04:05Z"))
	if !run.EndedAt.IsZero() {
		fmt.Printf("Ended:      %s\n", run.EndedAt.Format("2006-01-02T15:04:05Z"))
	}
	fmt.Printf("Weight:     %.6f -> %.6f\n", run.SeedWeight, run.FinalWeight)
	fmt.Printf("Attempts:   %d (redo %d)\n", run.Attempts, run.RedoCount)
	fmt.Printf("Ticks:      %d\n\n", len(ticks))
	printEval(result)
	return nil
}

// #endregion detail-mode

// #region csv-mode

func runCSVMode(path string, jsonOut bool) error {
	recs, err := logging.ReadCSV(path)
	if err != nil {
		return err
	}
	result := eval.NewEvalHarness(eval.DefaultEvalConfig()).Run(recs)
	if jsonOut {
		return printJSON(result)
	}
	fmt.Printf("Journal:    %s\n", path)
	fmt.Printf("Rows:       %d\n\n", len(recs))
	printEval(result)
	return nil
}

// #endregion csv-mode

// #region helpers

func printEval(result eval.EvalResult) {
	fmt.Printf("%-16s  %12s  %s\n", "Metric", "Value", "Pass")
	fmt.Printf("%-16s+-%12s+-%s\n", "----------------", "------------", "----")
	for _, m := range result.Metrics {
		mark := "ok"
		if !m.Pass {
			mark = "FAIL"
		}
		fmt.Printf("%-16s  %12.6f  %s\n", m.Name, m.Value, mark)
	}
	fmt.Printf("\n%s\n", result.Reason)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
