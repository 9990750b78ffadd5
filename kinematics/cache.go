package kinematics

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "kinematics",
})

// Cache memoizes solver results by effective coxa angle. Solving is slow
// enough to matter inside the walk loop, so the full power-stroke domain is
// warmed at boot and runtime misses should be rare.
//
// Keys are quantized to millidegrees, since float equality would split
// entries which are the same angle for every practical purpose. Entries
// from different legs whose offset coxa angles collide intentionally share
// one solution.
type Cache struct {
	solver *Solver

	mu      sync.RWMutex
	entries map[int64]entry
}

type entry struct {
	femur float64
	tibia float64
}

func NewCache(s *Solver) *Cache {
	return &Cache{
		solver:  s,
		entries: map[int64]entry{},
	}
}

// GetOrCompute returns the femur and tibia angles for the given effective
// coxa angle, solving on a miss. Concurrent misses on the same key may
// solve redundantly, but the solver is deterministic, so whichever insert
// lands last replaces an identical value.
func (c *Cache) GetOrCompute(coxaAngle float64) (float64, float64, error) {
	key := quantize(coxaAngle)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e.femur, e.tibia, nil
	}

	log.Debugf("cache miss, solving coxa=%0.3f", coxaAngle)

	femur, tibia, err := c.solver.Solve(coxaAngle)
	if err != nil {
		return 0, 0, err
	}

	c.mu.Lock()
	c.entries[key] = entry{femur: femur, tibia: tibia}
	c.mu.Unlock()

	return femur, tibia, nil
}

// Warm pre-solves the full power-stroke coxa domain for each of the given
// per-leg offsets, so that walking never waits on the solver. Angles which
// turn out unreachable are skipped here and will error again (loudly) if
// the walk loop ever asks for them.
func (c *Cache) Warm(offsets []float64, sweepAngle, stepAngle float64) {
	t := time.Now()
	log.Info("warming femur/tibia angle cache...")

	for _, offset := range offsets {
		for phase := 90.0; phase <= 270.0; phase += stepAngle {
			coxa := sweepAngle*sind(phase) + offset
			_, _, err := c.GetOrCompute(coxa)
			if err != nil {
				log.Warnf("warm: %s", err)
			}
		}
	}

	log.Infof("warmed %d cache entries in %s", c.Len(), time.Since(t))
}

// Len returns the number of cached solutions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func quantize(angle float64) int64 {
	return int64(math.Round(angle * 1000))
}
