package logging

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
)

// Header is the first row of every journal file.
var Header = []string{"Timestamp", "Attempt", "Weight", "Predictive", "Reflexive", "Derivative", "o_neural", "o_speed"}

const weightColumn = 2

// #region csv-journal
// CSVJournal is the append-only per-tick learning log. The last row's weight seeds the next run.
type CSVJournal struct {
	path string

	mu   sync.Mutex
	file *os.File
	w    *csv.Writer

	once     sync.Once
	flushErr error
}

// OpenCSV opens (or creates, with its parent directory and header row) the journal at path.
func OpenCSV(path string) (*CSVJournal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	info, statErr := os.Stat(path)
	needHeader := errors.Is(statErr, os.ErrNotExist) || (statErr == nil && info.Size() == 0)
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return nil, fmt.Errorf("stat journal: %w", statErr)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	j := &CSVJournal{path: path, file: f, w: csv.NewWriter(f)}

	if needHeader {
		if err := j.w.Write(Header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		j.w.Flush()
		if err := j.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	return j, nil
}

// Path returns the journal file location.
func (j *CSVJournal) Path() string {
	return j.path
}

// Load returns the weight recorded in the last row, or 0.0 if there is nothing usable.
func (j *CSVJournal) Load() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	w, err := lastWeight(j.path)
	if err != nil {
		log.Printf("[INFO] no trace of previous weight in %s (%v), using 0.0", j.path, err)
		return 0
	}
	return w
}

// Save appends one record and flushes it to the file.
func (j *CSVJournal) Save(rec state.LogRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.w.Write(formatRecord(rec)); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Flush syncs the journal to disk once. Later calls return the first result.
// The last written row already carries the final weight, so no row is added here.
func (j *CSVJournal) Flush(final state.ControlState, status state.RunStatus) error {
	j.once.Do(func() {
		j.mu.Lock()
		defer j.mu.Unlock()

		j.w.Flush()
		if err := j.w.Error(); err != nil {
			j.flushErr = fmt.Errorf("flush journal: %w", err)
			return
		}
		if err := j.file.Sync(); err != nil {
			j.flushErr = fmt.Errorf("sync journal: %w", err)
			return
		}
		log.Printf("[INFO] journal %s flushed: weight=%s attempt=%d status=%s",
			j.path, formatFloat(final.Weight), final.Attempt, status)
	})
	return j.flushErr
}

// Close releases the file handle.
func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.w.Flush()
	return j.file.Close()
}
// #endregion csv-journal

// #region read
// ReadCSV parses every data row of a journal file.
func ReadCSV(path string) ([]state.LogRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	return DecodeCSV(f)
}

// DecodeCSV parses journal rows from r. The header row is required.
func DecodeCSV(r io.Reader) ([]state.LogRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if head[0] != Header[0] {
		return nil, fmt.Errorf("unexpected header %q", head)
	}

	var recs []state.LogRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		rec, err := parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// WriteCSV writes a complete journal (header plus rows) to w.
func WriteCSV(w io.Writer, recs []state.LogRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range recs {
		if err := cw.Write(formatRecord(rec)); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func lastWeight(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return 0, err
	}
	if len(rows) < 2 {
		return 0, errors.New("journal has no data rows")
	}
	last := rows[len(rows)-1]
	if len(last) <= weightColumn {
		return 0, fmt.Errorf("short row %q", last)
	}
	return strconv.ParseFloat(last[weightColumn], 64)
}
// #endregion read

// #region format
func formatRecord(rec state.LogRecord) []string {
	return []string{
		formatFloat(rec.Timestamp),
		strconv.Itoa(rec.Attempt),
		formatFloat(rec.Weight),
		formatFloat(rec.Predictive),
		formatFloat(rec.Reflexive),
		formatFloat(rec.Derivative),
		formatFloat(rec.Neural),
		formatFloat(rec.Speed),
	}
}

func parseRecord(row []string) (state.LogRecord, error) {
	var rec state.LogRecord
	attempt, err := strconv.Atoi(row[1])
	if err != nil {
		return rec, fmt.Errorf("attempt: %w", err)
	}
	rec.Attempt = attempt

	fields := []struct {
		name string
		src  string
		dst  *float64
	}{
		{"timestamp", row[0], &rec.Timestamp},
		{"weight", row[2], &rec.Weight},
		{"predictive", row[3], &rec.Predictive},
		{"reflexive", row[4], &rec.Reflexive},
		{"derivative", row[5], &rec.Derivative},
		{"o_neural", row[6], &rec.Neural},
		{"o_speed", row[7], &rec.Speed},
	}
	for _, f := range fields {
		if *f.dst, err = strconv.ParseFloat(f.src, 64); err != nil {
			return rec, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return rec, nil
}

// formatFloat writes the shortest string that parses back to v, keeping a
// trailing ".0" on integral values so columns read as reals.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', 'e', 'E', 'n', 'N', 'I':
			return s
		}
	}
	return s + ".0"
}
// #endregion format
