package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownInstance = errors.New("directory: unknown target instance")

// Descriptor describes a parameter exposed by a target unit.
type Descriptor struct {
	Label   string  `yaml:"label" json:"label"`
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Default float64 `yaml:"default" json:"default"`
}

// Snapshot maps parameter IDs to descriptors. The engine stores it opaquely.
type Snapshot map[string]Descriptor

// Clone returns a deep copy so the receiver owns its data.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	c := make(Snapshot, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// IDs returns the parameter IDs in sorted order.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Directory lists the parameters exposed by a target instance. It is only
// called from the non-real-time side.
type Directory interface {
	ListParameters(ctx context.Context, instanceID string) (Snapshot, error)
}

// Static is an in-memory directory, typically loaded from the config file.
type Static struct {
	mu    sync.RWMutex
	units map[string]Snapshot
}

func NewStatic(units map[string]Snapshot) *Static {
	s := &Static{units: make(map[string]Snapshot, len(units))}
	for id, params := range units {
		s.units[id] = params.Clone()
	}
	return s
}

// Register adds or replaces the parameter set of a unit.
func (s *Static) Register(instanceID string, params Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[instanceID] = params.Clone()
}

func (s *Static) ListParameters(ctx context.Context, instanceID string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	params, ok := s.units[instanceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstance, instanceID)
	}
	return params.Clone(), nil
}

// Instances returns the registered unit IDs in sorted order.
func (s *Static) Instances() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.units))
	for id := range s.units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
