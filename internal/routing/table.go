package routing

import (
	"sort"

	"github.com/san-kum/orbiter/internal/modulation"
)

// Bindings is a value snapshot of the routing table. An empty target means
// the channel is unbound.
type Bindings [modulation.NumChannels]string

// Target returns the target bound to ch.
func (b Bindings) Target(ch modulation.Channel) (string, bool) {
	if !ch.Valid() || b[ch] == "" {
		return "", false
	}
	return b[ch], true
}

func (b Bindings) Count() int {
	n := 0
	for _, t := range b {
		if t != "" {
			n++
		}
	}
	return n
}

// Map returns bound channels keyed by channel name.
func (b Bindings) Map() map[string]string {
	m := make(map[string]string)
	for i, t := range b {
		if t != "" {
			m[modulation.Channel(i).String()] = t
		}
	}
	return m
}

// Channels returns the bound channels in channel order.
func (b Bindings) Channels() []modulation.Channel {
	out := make([]modulation.Channel, 0, modulation.NumChannels)
	for i, t := range b {
		if t != "" {
			out = append(out, modulation.Channel(i))
		}
	}
	return out
}

// Table holds one optional target per modulation channel. It is owned by
// the engine and mutated only while applying routing messages.
type Table struct {
	b Bindings
}

func NewTable() *Table {
	return &Table{}
}

// Bind sets or, with an empty target, clears the binding for ch. It reports
// whether the table changed. Binding the same target twice is a no-op.
func (t *Table) Bind(ch modulation.Channel, targetID string) bool {
	if !ch.Valid() || t.b[ch] == targetID {
		return false
	}
	t.b[ch] = targetID
	return true
}

func (t *Table) Unbind(ch modulation.Channel) bool {
	return t.Bind(ch, "")
}

func (t *Table) Clear() {
	t.b = Bindings{}
}

// Current returns a copy of the present bindings.
func (t *Table) Current() Bindings {
	return t.b
}

// FromMap builds bindings from channel-name keys, the shape used by config
// files and scenarios.
func FromMap(m map[string]string) (Bindings, error) {
	var b Bindings
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ch, err := modulation.ParseChannel(k)
		if err != nil {
			return Bindings{}, err
		}
		b[ch] = m[k]
	}
	return b, nil
}
