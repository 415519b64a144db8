package util

import (
	"runtime"
)

// HeapAlloc returns the current heap allocation in bytes.
func HeapAlloc() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc
}
