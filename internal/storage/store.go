package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/port"
)

const (
	metadataFile   = "metadata.json"
	telemetryFile  = "telemetry.csv"
	readoutFile    = "readout.csv"
	automationFile = "automation.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	EngineID   string             `json:"engine_id"`
	Strategy   string             `json:"strategy"`
	Timestamp  time.Time          `json:"timestamp"`
	SampleRate int                `json:"sample_rate"`
	Quantum    int                `json:"quantum"`
	Duration   float64            `json:"duration"`
	Canvas     modulation.Canvas  `json:"canvas"`
	Cycles     uint64             `json:"cycles"`
	Inputs     map[string]float64 `json:"inputs"`
	Bindings   map[string]string  `json:"bindings"`
	Metrics    map[string]float64 `json:"metrics"`
	Samples    int                `json:"samples"`
	Events     int                `json:"events"`
}

// Capture collects what a headless run produced. Feed it from a controller
// listener and the recording bus.
type Capture struct {
	mu        sync.Mutex
	Telemetry []port.Telemetry
	Readout   []port.ModulationValue
	Events    []automation.Event
}

func NewCapture() *Capture { return &Capture{} }

// Observe is a controller listener.
func (c *Capture) Observe(m port.Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch m.Kind {
	case port.KindTelemetry:
		c.Telemetry = append(c.Telemetry, m.Telemetry)
	case port.KindModulationValue:
		c.Readout = append(c.Readout, m.Modulation)
	}
}

func (c *Capture) AddEvents(evs []automation.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Events = append(c.Events, evs...)
}

// Save writes a run directory and returns its ID.
func (s *Store) Save(meta RunMetadata, c *Capture) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d_%s", meta.Strategy, meta.Timestamp.Unix(), uuid.NewString()[:8])
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	meta.Samples = len(c.Telemetry)
	meta.Events = len(c.Events)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(c.Telemetry)+1)
	rows = append(rows, []string{"time", "x", "y"})
	for _, t := range c.Telemetry {
		rows = append(rows, []string{ff(t.Time), ff(t.X), ff(t.Y)})
	}
	if err := writeCSV(filepath.Join(runDir, telemetryFile), rows); err != nil {
		return "", err
	}

	rows = make([][]string, 0, len(c.Readout)+1)
	rows = append(rows, []string{"time", "value"})
	for _, m := range c.Readout {
		rows = append(rows, []string{ff(m.Time), ff(m.Value)})
	}
	if err := writeCSV(filepath.Join(runDir, readoutFile), rows); err != nil {
		return "", err
	}

	rows = make([][]string, 0, len(c.Events)+1)
	rows = append(rows, []string{"time", "target", "value", "normalized"})
	for _, ev := range c.Events {
		rows = append(rows, []string{ff(ev.Time), ev.TargetID, ff(ev.Value), strconv.FormatBool(ev.Normalized)})
	}
	if err := writeCSV(filepath.Join(runDir, automationFile), rows); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns every saved run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTelemetry(runID string) ([]port.Telemetry, error) {
	records, err := s.readCSV(runID, telemetryFile)
	if err != nil {
		return nil, err
	}
	out := make([]port.Telemetry, 0, len(records))
	for _, r := range records {
		if len(r) < 3 {
			continue
		}
		vals, ok := parseFloats(r[0], r[1], r[2])
		if !ok {
			continue
		}
		out = append(out, port.Telemetry{Time: vals[0], X: vals[1], Y: vals[2]})
	}
	return out, nil
}

func (s *Store) LoadReadout(runID string) ([]port.ModulationValue, error) {
	records, err := s.readCSV(runID, readoutFile)
	if err != nil {
		return nil, err
	}
	out := make([]port.ModulationValue, 0, len(records))
	for _, r := range records {
		if len(r) < 2 {
			continue
		}
		vals, ok := parseFloats(r[0], r[1])
		if !ok {
			continue
		}
		out = append(out, port.ModulationValue{Time: vals[0], Value: vals[1]})
	}
	return out, nil
}

func (s *Store) LoadEvents(runID string) ([]automation.Event, error) {
	records, err := s.readCSV(runID, automationFile)
	if err != nil {
		return nil, err
	}
	out := make([]automation.Event, 0, len(records))
	for _, r := range records {
		if len(r) < 4 {
			continue
		}
		vals, ok := parseFloats(r[0], r[2])
		if !ok {
			continue
		}
		norm, _ := strconv.ParseBool(r[3])
		out = append(out, automation.Event{Time: vals[0], TargetID: r[1], Value: vals[1], Normalized: norm})
	}
	return out, nil
}

// readCSV returns the data rows of a run file, header skipped.
func (s *Store) readCSV(runID, name string) ([][]string, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func parseFloats(ss ...string) ([]float64, bool) {
	out := make([]float64, len(ss))
	for i, s := range ss {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
