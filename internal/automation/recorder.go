package automation

// Recorder is a bus that keeps emitted events in a preallocated buffer.
// Once full it counts overflow instead of growing. It is written by the
// real-time side; read Events only after the host has stopped.
type Recorder struct {
	events   []Event
	overflow int
}

func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Recorder{events: make([]Event, 0, capacity)}
}

func (r *Recorder) Emit(ev Event) {
	if len(r.events) == cap(r.events) {
		r.overflow++
		return
	}
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []Event { return r.events }

func (r *Recorder) Overflow() int { return r.overflow }

func (r *Recorder) Reset() {
	r.events = r.events[:0]
	r.overflow = 0
}

// ByTarget groups recorded values per target in emission order.
func (r *Recorder) ByTarget() map[string][]float64 {
	out := make(map[string][]float64)
	for _, ev := range r.events {
		out[ev.TargetID] = append(out[ev.TargetID], ev.Value)
	}
	return out
}
