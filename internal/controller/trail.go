package controller

import (
	"sync"

	"github.com/san-kum/orbiter/internal/port"
)

// Trail keeps the N most recent telemetry samples, oldest first. A length of
// one is the plain "current dot" mode.
type Trail struct {
	mu    sync.Mutex
	buf   []port.Telemetry
	start int
	n     int
}

func NewTrail(length int) *Trail {
	if length < 1 {
		length = 1
	}
	return &Trail{buf: make([]port.Telemetry, length)}
}

func (t *Trail) Push(s port.Telemetry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.n < len(t.buf) {
		t.buf[(t.start+t.n)%len(t.buf)] = s
		t.n++
		return
	}
	t.buf[t.start] = s
	t.start = (t.start + 1) % len(t.buf)
}

// Points copies the samples out, oldest first.
func (t *Trail) Points() []port.Telemetry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]port.Telemetry, t.n)
	for i := 0; i < t.n; i++ {
		out[i] = t.buf[(t.start+i)%len(t.buf)]
	}
	return out
}

func (t *Trail) Last() (port.Telemetry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.n == 0 {
		return port.Telemetry{}, false
	}
	return t.buf[(t.start+t.n-1)%len(t.buf)], true
}

func (t *Trail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}

func (t *Trail) Cap() int { return len(t.buf) }

func (t *Trail) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start, t.n = 0, 0
}
