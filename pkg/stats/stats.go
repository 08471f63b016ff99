package stats

import (
	"context"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
)

// EnableMemoryStatistics starts a go routine that periodically logs memory
// usage and number of go routines of the process until ctx is done.
func EnableMemoryStatistics(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				PrintMemoryStatistics()
				PrintNumOfRoutines()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func toMegabytes(bytes uint64) float64 {
	return float64(bytes) / MEGABYTE
}

// PrintMemoryStatistics logs memory statistics using go runtime library.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.WithFields(log.Fields{
		"module":        "stats",
		"total_alloc":   toMegabytes(memStats.TotalAlloc),
		"heap_alloc":    toMegabytes(memStats.HeapAlloc),
		"mallocs":       memStats.Mallocs,
		"frees":         memStats.Frees,
		"num_gc_cycles": memStats.NumGC,
	}).Info("memory statistics (MB)")
}

// PrintNumOfRoutines logs number of go routines currently running.
func PrintNumOfRoutines() {
	log.WithField("module", "stats").Infof("num of go routines: %d", runtime.NumGoroutine())
}
