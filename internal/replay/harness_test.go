package replay

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/episode"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/eval"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/logging"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/physics"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
)

// sliceJournal keeps records in memory.
type sliceJournal struct {
	seed float64
	recs []state.LogRecord
}

func (j *sliceJournal) Load() float64 {
	if len(j.recs) == 0 {
		return j.seed
	}
	return j.recs[len(j.recs)-1].Weight
}

func (j *sliceJournal) Save(rec state.LogRecord) error {
	j.recs = append(j.recs, rec)
	return nil
}

func (j *sliceJournal) Flush(state.ControlState, state.RunStatus) error { return nil }

// simulate runs the controller on the built-in simulator and returns its journal.
func simulate(t *testing.T, j *sliceJournal, ticks int) {
	t.Helper()
	c := episode.NewController(physics.NewSim(physics.DefaultSimConfig()), j, episode.DefaultConfig())
	status, err := c.Run(context.Background(), episode.RunOptions{MaxTicks: ticks})
	if err != nil && status != state.StatusDiverged {
		t.Fatalf("run failed: %s: %v", status, err)
	}
}

func TestReplay_Empty(t *testing.T) {
	if got := Replay(nil, DefaultReplayConfig()); len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestReplay_SimulatedRunMatches(t *testing.T) {
	j := &sliceJournal{}
	simulate(t, j, 600)
	if len(j.recs) == 0 {
		t.Fatal("expected the run to log learning records")
	}

	results := Replay(j.recs, DefaultReplayConfig())
	for _, r := range results {
		if !r.Match {
			t.Fatalf("row %d (attempt %d): %s", r.Index, r.Attempt, r.Reason)
		}
	}
	s := Summarize(results)
	if s.Sessions != 1 {
		t.Errorf("expected 1 session, got %d", s.Sessions)
	}
	if s.FirstTicks == 0 {
		t.Error("expected the opening tick to be a first_tick")
	}
	if last := j.recs[len(j.recs)-1].Weight; s.FinalWeight != last {
		t.Errorf("expected final weight %v, got %v", last, s.FinalWeight)
	}
}

func TestReplay_SurvivesCSVRoundTrip(t *testing.T) {
	j := &sliceJournal{}
	simulate(t, j, 300)

	var buf bytes.Buffer
	if err := logging.WriteCSV(&buf, j.recs); err != nil {
		t.Fatalf("write: %v", err)
	}
	decoded, err := logging.DecodeCSV(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	s := Summarize(Replay(decoded, DefaultReplayConfig()))
	if s.Mismatches != 0 {
		t.Fatalf("expected no mismatches after CSV round-trip, got %d of %d", s.Mismatches, s.TotalTicks)
	}
}

func TestReplay_DetectsTamperedWeight(t *testing.T) {
	j := &sliceJournal{}
	simulate(t, j, 200)
	if len(j.recs) < 3 {
		t.Fatalf("expected at least 3 records, got %d", len(j.recs))
	}
	j.recs[2].Weight += 0.01

	results := Replay(j.recs, DefaultReplayConfig())
	if results[2].Match {
		t.Fatal("expected tampered row to mismatch")
	}
	if !strings.HasPrefix(results[2].Reason, "weight") {
		t.Errorf("expected weight mismatch, got %q", results[2].Reason)
	}
}

func TestReplay_NewSessionOnRestart(t *testing.T) {
	j := &sliceJournal{}
	simulate(t, j, 120)
	first := len(j.recs)
	simulate(t, j, 120)

	results := Replay(j.recs, DefaultReplayConfig())
	if results[first].Session != 2 {
		t.Fatalf("expected row %d to start session 2, got %d", first, results[first].Session)
	}
	s := Summarize(results)
	if s.Sessions != 2 || s.Mismatches != 0 {
		t.Fatalf("expected 2 clean sessions, got %+v", s)
	}
}

func TestCSVJournalAcrossRestarts_ReplaysAndEvaluates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.csv")
	for run := 0; run < 2; run++ {
		j, err := logging.OpenCSV(path)
		if err != nil {
			t.Fatalf("open journal: %v", err)
		}
		c := episode.NewController(physics.NewSim(physics.DefaultSimConfig()), j, episode.DefaultConfig())
		if _, err := c.Run(context.Background(), episode.RunOptions{MaxTicks: 150}); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		j.Close()
	}

	recs, err := logging.ReadCSV(path)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	s := Summarize(Replay(recs, DefaultReplayConfig()))
	if s.Sessions != 2 || s.Mismatches != 0 {
		t.Fatalf("expected 2 clean sessions, got %+v", s)
	}
	result := eval.NewEvalHarness(eval.DefaultEvalConfig()).Run(recs)
	if !result.Passed {
		t.Fatalf("expected eval to pass, got %s", result.Reason)
	}
	if m, _ := result.Metric("sessions"); m.Value != 2 {
		t.Fatalf("expected eval to see 2 sessions, got %v", m.Value)
	}
}

func TestReplay_StallCarriesReflex(t *testing.T) {
	recs := []state.LogRecord{
		{Timestamp: 0, Attempt: 1, Weight: 0.9995, Predictive: 0, Reflexive: 0, Derivative: 0, Neural: 0.9995, Speed: 0.75},
		{Timestamp: 0.5, Attempt: 2, Weight: 1.0053, Predictive: 1, Reflexive: 0.29, Derivative: 0.58, Neural: 1.299495, Speed: -449.2425},
	}
	cfg := DefaultReplayConfig()
	cfg.Tolerance = 1e-6

	results := Replay(recs, cfg)
	for _, r := range results {
		if !r.Match {
			t.Fatalf("row %d: %s", r.Index, r.Reason)
		}
	}
	if results[1].Action != "learn" {
		t.Fatalf("expected learn after stall, got %s", results[1].Action)
	}
}

func TestSummarize_Counts(t *testing.T) {
	results := []ReplayResult{
		{Session: 1, Action: "first_tick", Match: true},
		{Session: 1, Action: "learn", Match: true},
		{Session: 1, Action: "hold", Match: false},
		{Session: 2, Action: "first_tick", Match: true, Expected: state.LogRecord{Weight: 0.3}},
	}
	s := Summarize(results)
	if s.TotalTicks != 4 || s.Matches != 3 || s.Mismatches != 1 {
		t.Errorf("unexpected match counts: %+v", s)
	}
	if s.Learns != 1 || s.Holds != 1 || s.FirstTicks != 2 {
		t.Errorf("unexpected action counts: %+v", s)
	}
	if s.Sessions != 2 || s.FinalWeight != 0.3 {
		t.Errorf("unexpected tail: %+v", s)
	}
}
