package hexapod

import (
	"errors"
	"testing"
	"time"
)

type stub struct {
	booted int
	ticked int
	err    error
}

func (s *stub) Boot() error {
	s.booted++
	return s.err
}

func (s *stub) Tick(now time.Time, state *State) error {
	s.ticked++
	return s.err
}

func TestTickFanout(t *testing.T) {
	h := New()
	a := &stub{}
	b := &stub{}
	h.Add(a)
	h.Add(b)

	if err := h.Boot(); err != nil {
		t.Fatalf("Boot: %s", err)
	}
	if err := h.Tick(time.Now()); err != nil {
		t.Fatalf("Tick: %s", err)
	}

	if a.booted != 1 || b.booted != 1 {
		t.Errorf("boots: got %d/%d, expected 1/1", a.booted, b.booted)
	}
	if a.ticked != 1 || b.ticked != 1 {
		t.Errorf("ticks: got %d/%d, expected 1/1", a.ticked, b.ticked)
	}
}

func TestTickAbortsOnError(t *testing.T) {
	h := New()
	a := &stub{err: errors.New("nope")}
	b := &stub{}
	h.Add(a)
	h.Add(b)

	if err := h.Tick(time.Now()); err == nil {
		t.Fatal("expected an error")
	}
	if b.ticked != 0 {
		t.Errorf("component after the failure was still ticked %d times", b.ticked)
	}
}
