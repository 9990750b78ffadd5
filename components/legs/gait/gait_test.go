package gait

import (
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(delay time.Duration) Config {
	return Config{
		StepAngle:   6,
		SweepAngle:  22,
		UnlockDelay: delay,
		Seeds:       [6]float64{150, 210, 90, 180, 120, 240},
	}
}

func TestAdvanceNormalizes(t *testing.T) {
	cfg := testConfig(time.Hour)
	cfg.Seeds = [6]float64{354, 0, 90, 90, 90, 90}
	m := New(cfg, nil)

	// 354 + 6 wraps to 0, which is a return stroke going forwards, so the
	// phase also jumps +180.
	st := m.Advance(1, +1)
	if st.Phase != 180 {
		t.Errorf("got phase %0.1f, expected 180", st.Phase)
	}

	// 0 - 6 wraps to 354, a power stroke going backwards.
	st = m.Advance(2, -1)
	if st.Phase != 354 {
		t.Errorf("got phase %0.1f, expected 354", st.Phase)
	}
	if st.Locked {
		t.Error("leg 2 should not have locked")
	}

	for leg := 1; leg <= 6; leg++ {
		p := m.Phase(leg)
		if p < 0 || p >= 360 {
			t.Errorf("leg %d phase %0.1f outside [0,360)", leg, p)
		}
	}
}

func TestClassify(t *testing.T) {
	data := []struct {
		phase     float64
		direction int
		expected  Stroke
	}{
		{90, +1, PowerStroke},
		{180, +1, PowerStroke},
		{270, +1, PowerStroke},
		{89, +1, ReturnStroke},
		{271, +1, ReturnStroke},
		{0, +1, ReturnStroke},
		{0, -1, PowerStroke},
		{90, -1, PowerStroke},
		{300, -1, PowerStroke},
		{180, -1, ReturnStroke},
		{91, -1, ReturnStroke},
	}

	for _, eg := range data {
		got := Classify(eg.phase, eg.direction)
		if got != eg.expected {
			t.Errorf("Classify(%0.0f, %+d) = %s, expected %s", eg.phase, eg.direction, got, eg.expected)
		}
	}
}

// A leg seeded at the start of its power stroke traverses [90,270], then
// locks and jumps half a cycle.
func TestPowerStrokeTraversal(t *testing.T) {
	m := New(testConfig(time.Hour), nil)
	leg := 3 // seeded at 90

	for i := 0; i < 30; i++ {
		st := m.Advance(leg, +1)
		if st.Locked {
			t.Fatalf("leg locked early at phase %0.1f (tick %d)", st.Phase, i+1)
		}
	}
	if p := m.Phase(leg); p != 270 {
		t.Fatalf("expected phase 270 after 30 ticks, got %0.1f", p)
	}

	st := m.Advance(leg, +1)
	if !st.Locked {
		t.Fatal("expected leg to lock leaving the power stroke")
	}
	if st.Phase != 96 {
		t.Errorf("expected phase jump to 96, got %0.1f", st.Phase)
	}
	if !m.Locked(leg) {
		t.Error("Locked() should report true")
	}
}

func TestReverseTraversal(t *testing.T) {
	cfg := testConfig(time.Hour)
	cfg.Seeds[0] = 90 // start of the reverse power stroke
	m := New(cfg, nil)

	// Going backwards the power stroke is the complement of [90,270]:
	// 84, 78, ... 0, 354, ... 270 are all power.
	for i := 0; i < 30; i++ {
		st := m.Advance(1, -1)
		if st.Locked {
			t.Fatalf("leg locked early at phase %0.1f (tick %d)", st.Phase, i+1)
		}
	}
	if p := m.Phase(1); p != 270 {
		t.Fatalf("expected phase 270 after 30 reverse ticks, got %0.1f", p)
	}

	st := m.Advance(1, -1)
	if !st.Locked {
		t.Fatal("expected leg to lock leaving the reverse power stroke")
	}
	if st.Phase != 84 {
		t.Errorf("expected phase jump to 84, got %0.1f", st.Phase)
	}
}

func TestDeferredUnlock(t *testing.T) {
	unlocked := make(chan int, 1)
	m := New(testConfig(10*time.Millisecond), func(leg int) {
		unlocked <- leg
	})

	// Walk leg 3 out of its power stroke.
	for i := 0; i < 31; i++ {
		m.Advance(3, +1)
	}
	if !m.Locked(3) {
		t.Fatal("leg 3 should be locked")
	}

	select {
	case leg := <-unlocked:
		if leg != 3 {
			t.Errorf("unexpected leg %d unlocked", leg)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("unlock never fired")
	}

	if m.Locked(3) {
		t.Error("leg 3 should have unlocked")
	}
}

// If a leg re-locks before an earlier unlock timer fires, the stale timer
// must not release the newer lock or trigger a second reposition cycle.
func TestStaleUnlockIgnored(t *testing.T) {
	var calls atomic.Int32
	m := New(testConfig(30*time.Millisecond), func(leg int) {
		calls.Add(1)
	})

	// First lock: gen 1, timer armed.
	for i := 0; i < 31; i++ {
		m.Advance(3, +1)
	}

	// Immediately march the phase through the next power stroke to force a
	// second lock (gen 2) before either timer has fired.
	for i := 0; i < 30; i++ {
		m.Advance(3, +1)
	}
	if !m.Locked(3) {
		t.Fatal("leg 3 should be locked again")
	}

	time.Sleep(150 * time.Millisecond)

	if m.Locked(3) {
		t.Error("leg 3 should have unlocked by now")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected exactly 1 unlock callback, got %d", n)
	}
}
