package params

import (
	"fmt"
	"sync/atomic"
)

// Atomic holds the host's current control inputs. Writers publish a fresh
// copy; readers load the latest copy without locking, so the real-time side
// never waits on a writer.
type Atomic struct {
	v atomic.Pointer[Inputs]
}

func NewAtomic(in Inputs) *Atomic {
	a := &Atomic{}
	a.Store(in)
	return a
}

func (a *Atomic) Load() Inputs {
	p := a.v.Load()
	if p == nil {
		return Defaults()
	}
	return *p
}

func (a *Atomic) Store(in Inputs) {
	a.v.Store(&in)
}

// Update applies fn to a copy of the current inputs and publishes it with a
// compare-and-swap loop, so concurrent writers on the non-real-time side do
// not lose each other's updates. fn may run more than once.
func (a *Atomic) Update(fn func(*Inputs) error) error {
	for {
		old := a.v.Load()
		next := Defaults()
		if old != nil {
			next = *old
		}
		if err := fn(&next); err != nil {
			return err
		}
		if a.v.CompareAndSwap(old, &next) {
			return nil
		}
	}
}

// Set updates one input.
func (a *Atomic) Set(name string, value float64) error {
	if _, ok := Lookup(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInput, name)
	}
	return a.Update(func(in *Inputs) error {
		return in.Set(name, value)
	})
}
