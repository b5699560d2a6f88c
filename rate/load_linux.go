//go:build linux

package rate

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// System reads the 1-minute load average and normalises it by CPU count.
type System struct {
	path string
}

func NewSystem() Sampler {
	return NewCached(System{path: "/proc/loadavg"})
}

func (s System) Load() (float64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, fmt.Errorf("reading load average: %w", err)
	}
	return parseLoadavg(string(data), runtime.NumCPU())
}

func parseLoadavg(data string, cpus int) (float64, error) {
	fields := strings.Fields(data)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty load average")
	}
	avg, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing load average %q: %w", fields[0], err)
	}
	if cpus < 1 {
		cpus = 1
	}
	v := avg / float64(cpus)
	if v > 1 {
		v = 1
	}
	return v, nil
}
