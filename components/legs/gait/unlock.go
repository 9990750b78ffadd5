package gait

import (
	"time"
)

// scheduleUnlock arms a one-shot timer which releases the leg's lock after
// the configured delay, then notifies the owner so it can run one extra
// step cycle and put the foot down. The timer runs concurrently with the
// tick loop, so it takes the leg mutex and verifies the lock generation it
// was armed for is still current before touching anything.
//
// Must be called with the leg's mutex held.
func (m *Machine) scheduleUnlock(leg int, gen uint64) {
	time.AfterFunc(m.cfg.UnlockDelay, func() {
		m.unlock(leg, gen)
	})
}

func (m *Machine) unlock(leg int, gen uint64) {
	ls := m.leg(leg)

	ls.mu.Lock()
	if !ls.locked || ls.gen != gen {
		ls.mu.Unlock()
		log.Debugf("leg %d: ignoring stale unlock (gen %d)", leg, gen)
		return
	}
	ls.locked = false
	ls.mu.Unlock()

	log.Debugf("leg %d unlocked", leg)

	if m.onUnlock != nil {
		m.onUnlock(leg)
	}
}
