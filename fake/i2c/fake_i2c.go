package i2c

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

var logger = log.WithFields(log.Fields{
	"pkg": "fake",
})

// Write is one recorded bus transaction.
type Write struct {
	Addr uint16
	Data []byte
}

// FakeBus implements the drivers.I2C interface, recording every write and
// returning zeroes for reads. Used for tests and offline runs.
type FakeBus struct {
	mu     sync.Mutex
	writes []Write

	// When set, every transaction fails with this error.
	Err error
}

func (b *FakeBus) Tx(addr uint16, w, r []byte) error {
	logger.Debugf("tx addr=%#x write=%v read=%d", addr, w, len(r))

	if b.Err != nil {
		return b.Err
	}

	if len(w) > 0 {
		data := make([]byte, len(w))
		copy(data, w)

		b.mu.Lock()
		b.writes = append(b.writes, Write{Addr: addr, Data: data})
		b.mu.Unlock()
	}

	for i := range r {
		r[i] = 0
	}

	return nil
}

// Writes returns a copy of the recorded transactions.
func (b *FakeBus) Writes() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Write{}, b.writes...)
}
