// Package i2c adapts a Linux /dev/i2c-N device file to the drivers.I2C
// interface, so the same chip drivers run against real hardware and fakes.
package i2c

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// I2C_SLAVE ioctl, from linux/i2c-dev.h.
const i2cSlave = 0x0703

// Bus is an open I2C adapter. Safe for use from multiple goroutines; the
// kernel serializes transfers per fd, but the slave-address selection and
// the write must not interleave.
type Bus struct {
	mu   sync.Mutex
	file *os.File
	addr int
}

func Open(path string) (*Bus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c: open %s: %w", path, err)
	}

	return &Bus{
		file: f,
		addr: -1,
	}, nil
}

// Tx performs a write followed by a read against the given 7-bit address.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if int(addr) != b.addr {
		err := unix.IoctlSetInt(int(b.file.Fd()), i2cSlave, int(addr))
		if err != nil {
			return fmt.Errorf("i2c: select addr %#x: %w", addr, err)
		}
		b.addr = int(addr)
	}

	if len(w) > 0 {
		if _, err := b.file.Write(w); err != nil {
			return fmt.Errorf("i2c: write addr %#x: %w", addr, err)
		}
	}

	if len(r) > 0 {
		if _, err := io.ReadFull(b.file, r); err != nil {
			return fmt.Errorf("i2c: read addr %#x: %w", addr, err)
		}
	}

	return nil
}

func (b *Bus) Close() error {
	return b.file.Close()
}
