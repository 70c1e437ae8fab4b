package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
)

// #region helpers
func tempJournal(t *testing.T) (*CSVJournal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "mICO_log.csv")
	j, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j, path
}

func record(ts float64, attempt int, weight float64) state.LogRecord {
	return state.LogRecord{
		Timestamp:  ts,
		Attempt:    attempt,
		Weight:     weight,
		Predictive: 1,
		Reflexive:  0.29,
		Derivative: 0.38,
		Neural:     0.4938,
		Speed:      759.3,
	}
}

// #endregion helpers

// #region open-tests
func TestOpenCSV_CreatesDirAndHeader(t *testing.T) {
	_, path := tempJournal(t)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "Timestamp,Attempt,Weight,Predictive,Reflexive,Derivative,o_neural,o_speed\n"
	if string(data) != want {
		t.Fatalf("expected header only, got %q", data)
	}
}

func TestOpenCSV_ReopenKeepsRows(t *testing.T) {
	j, path := tempJournal(t)
	j.Save(record(0.5, 1, 0.2))
	j.Close()

	again, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	again.Save(record(1.0, 1, 0.3))

	recs, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 rows and a single header, got %d rows", len(recs))
	}
}

func TestOpenCSV_DirIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "data")
	os.WriteFile(blocker, []byte("x"), 0o644)

	if _, err := OpenCSV(filepath.Join(blocker, "log.csv")); err == nil {
		t.Fatal("expected error when parent path is a file")
	}
}

// #endregion open-tests

// #region load-tests
func TestLoad_EmptyJournal(t *testing.T) {
	j, _ := tempJournal(t)
	if w := j.Load(); w != 0 {
		t.Fatalf("expected 0.0, got %v", w)
	}
}

func TestLoad_LastRowWins(t *testing.T) {
	j, _ := tempJournal(t)
	j.Save(record(0.1, 1, 0.05))
	j.Save(record(0.2, 1, 0.11))
	j.Save(record(0.3, 2, 0.17))

	if w := j.Load(); w != 0.17 {
		t.Fatalf("expected 0.17, got %v", w)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	j, _ := tempJournal(t)
	j.Save(record(0.1, 1, 0.42))

	first := j.Load()
	second := j.Load()
	if first != second {
		t.Fatalf("expected repeated loads to agree: %v vs %v", first, second)
	}
}

func TestLoad_CorruptRow(t *testing.T) {
	j, path := tempJournal(t)
	f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	f.WriteString("0.1,1,not-a-number,1,0.29,0,0,0\n")
	f.Close()

	if w := j.Load(); w != 0 {
		t.Fatalf("expected fallback 0.0 for corrupt row, got %v", w)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	j, path := tempJournal(t)
	os.Remove(path)

	if w := j.Load(); w != 0 {
		t.Fatalf("expected fallback 0.0 for missing file, got %v", w)
	}
}

// #endregion load-tests

// #region save-tests
func TestSave_RoundTrip(t *testing.T) {
	j, path := tempJournal(t)
	want := []state.LogRecord{
		record(1.0/60, 1, 0),
		record(2.0/60, 1, 0.0038),
		{Timestamp: 0.05, Attempt: 3, Weight: 0.2038, Predictive: 0.51, Reflexive: 0, Derivative: 0, Neural: 0.20483, Speed: -12.5},
	}
	for _, r := range want {
		if err := j.Save(r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSave_AfterClose(t *testing.T) {
	j, _ := tempJournal(t)
	j.Close()

	if err := j.Save(record(0, 1, 0)); err == nil {
		t.Fatal("expected error writing to a closed journal")
	}
}

// #endregion save-tests

// #region flush-tests
func TestFlush_Idempotent(t *testing.T) {
	j, _ := tempJournal(t)
	j.Save(record(0.1, 1, 0.3))

	final := state.NewControlState(0.3)
	if err := j.Flush(final, state.StatusConverged); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := j.Flush(final, state.StatusInterrupted); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if w := j.Load(); w != 0.3 {
		t.Fatalf("expected flushed weight 0.3, got %v", w)
	}
}

// #endregion flush-tests

// #region decode-tests
func TestDecodeCSV_BadHeader(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("a,b,c,d,e,f,g,h\n"))
	if err == nil {
		t.Fatal("expected error for wrong header")
	}
}

func TestDecodeCSV_ShortRow(t *testing.T) {
	in := strings.Join(Header, ",") + "\n0.1,1,0.2\n"
	if _, err := DecodeCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestWriteCSV_MatchesJournal(t *testing.T) {
	j, path := tempJournal(t)
	recs := []state.LogRecord{record(0.1, 1, 0.1), record(0.2, 2, 0.2)}
	for _, r := range recs {
		j.Save(r)
	}
	onDisk, _ := os.ReadFile(path)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, recs); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != string(onDisk) {
		t.Fatalf("exported journal differs:\n%s\nvs\n%s", buf.String(), onDisk)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{1500, "1500.0"},
		{-12.5, "-12.5"},
		{0.1, "0.1"},
		{0.2038, "0.2038"},
		{1e-05, "1e-05"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// #endregion decode-tests

// #region tee-tests
type fakeJournal struct {
	weight   float64
	saved    []state.LogRecord
	saveErr  error
	flushErr error
	flushes  int
}

func (f *fakeJournal) Load() float64 { return f.weight }

func (f *fakeJournal) Save(rec state.LogRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeJournal) Flush(state.ControlState, state.RunStatus) error {
	f.flushes++
	return f.flushErr
}

func TestTee_LoadsFromPrimary(t *testing.T) {
	tee := NewTee(&fakeJournal{weight: 0.4}, &fakeJournal{weight: 0.9})
	if w := tee.Load(); w != 0.4 {
		t.Fatalf("expected primary weight 0.4, got %v", w)
	}
}

func TestTee_SaveFansOut(t *testing.T) {
	a, b := &fakeJournal{}, &fakeJournal{}
	tee := NewTee(a, b)
	tee.Save(record(0.1, 1, 0.1))

	if len(a.saved) != 1 || len(b.saved) != 1 {
		t.Fatalf("expected one record in each journal, got %d and %d", len(a.saved), len(b.saved))
	}
}

func TestTee_SaveStopsOnError(t *testing.T) {
	boom := errors.New("disk full")
	a, b := &fakeJournal{saveErr: boom}, &fakeJournal{}
	tee := NewTee(a, b)

	if err := tee.Save(record(0.1, 1, 0.1)); !errors.Is(err, boom) {
		t.Fatalf("expected disk full, got %v", err)
	}
	if len(b.saved) != 0 {
		t.Fatal("mirror should not be written after primary failure")
	}
}

func TestTee_FlushReachesAll(t *testing.T) {
	boom := errors.New("sync failed")
	a, b := &fakeJournal{flushErr: boom}, &fakeJournal{}
	tee := NewTee(a, b)

	err := tee.Flush(state.NewControlState(0), state.StatusInterrupted)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if b.flushes != 1 {
		t.Fatalf("expected mirror flushed once, got %d", b.flushes)
	}
}

// #endregion tee-tests
