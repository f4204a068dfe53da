// Package sysmem reports physical memory so batch work can be sized to
// the host.
package sysmem

// Fallback is assumed when the platform cannot report its memory.
const Fallback uint64 = 2 << 30

// Total returns physical memory in bytes. ok is false when the value is
// Fallback rather than a platform reading.
func Total() (bytes uint64, ok bool) {
	if n, ok := totalSystemMemory(); ok && n > 0 {
		return n, true
	}
	return Fallback, false
}

// Limit returns how many tasks holding perTask bytes each fit in fraction
// of physical memory. The result is clamped to [1, ceiling].
func Limit(perTask uint64, fraction float64, ceiling int) int {
	total, _ := Total()
	return limit(total, perTask, fraction, ceiling)
}

func limit(total, perTask uint64, fraction float64, ceiling int) int {
	if ceiling < 1 {
		ceiling = 1
	}
	if perTask == 0 || fraction <= 0 {
		return ceiling
	}
	n := uint64(float64(total)*fraction) / perTask
	return int(max(1, min(n, uint64(ceiling))))
}
