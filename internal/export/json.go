package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/port"
	"github.com/san-kum/orbiter/internal/storage"
)

type Sample struct {
	Time float64 `json:"time"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type Reading struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

type Event struct {
	Time       float64 `json:"time"`
	Target     string  `json:"target"`
	Value      float64 `json:"value"`
	Normalized bool    `json:"normalized"`
}

// RunData is a stored run flattened into one JSON document.
type RunData struct {
	Run       storage.RunMetadata `json:"run"`
	Telemetry []Sample            `json:"telemetry"`
	Readout   []Reading           `json:"readout"`
	Events    []Event             `json:"events"`
}

func NewRunData(meta storage.RunMetadata, tel []port.Telemetry, readout []port.ModulationValue, events []automation.Event) RunData {
	data := RunData{
		Run:       meta,
		Telemetry: make([]Sample, len(tel)),
		Readout:   make([]Reading, len(readout)),
		Events:    make([]Event, len(events)),
	}
	for i, t := range tel {
		data.Telemetry[i] = Sample{Time: t.Time, X: t.X, Y: t.Y}
	}
	for i, r := range readout {
		data.Readout[i] = Reading{Time: r.Time, Value: r.Value}
	}
	for i, ev := range events {
		data.Events[i] = Event{Time: ev.Time, Target: ev.TargetID, Value: ev.Value, Normalized: ev.Normalized}
	}
	return data
}

func WriteJSON(w io.Writer, data RunData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
