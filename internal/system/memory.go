package system

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
)

// JobsForMemory lowers requested so that every concurrent job can hold
// perJob bytes in currently available memory. It never returns less than 1.
// When memory cannot be queried the request is returned unchanged.
func JobsForMemory(ctx context.Context, requested int, perJob uint64, log zerolog.Logger) int {
	if requested <= 1 || perJob == 0 {
		return max(requested, 1)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("memory query failed, keeping requested jobs")
		return requested
	}
	jobs := capJobs(requested, vm.Available, perJob)
	if jobs < requested {
		log.Info().
			Int("requested", requested).
			Int("jobs", jobs).
			Uint64("available_mb", vm.Available>>20).
			Msg("concurrent clips capped by available memory")
	}
	return jobs
}

func capJobs(requested int, available, perJob uint64) int {
	if requested < 1 {
		requested = 1
	}
	if perJob == 0 {
		return requested
	}
	fit := int(available / perJob)
	if fit < 1 {
		return 1
	}
	return min(requested, fit)
}

// FrameBytes is the memory one decoded RGBA frame of w x h needs.
func FrameBytes(w, h int) uint64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	return uint64(w) * uint64(h) * 4
}
