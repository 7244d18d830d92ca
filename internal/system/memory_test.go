package system

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCapJobs(t *testing.T) {
	const gb = 1 << 30
	tests := []struct {
		name      string
		requested int
		available uint64
		perJob    uint64
		want      int
	}{
		{"fits", 4, 8 * gb, gb, 4},
		{"capped", 8, 3 * gb, gb, 3},
		{"starved", 4, 100, gb, 1},
		{"zero request", 0, 8 * gb, gb, 1},
		{"no estimate", 6, 0, 0, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, capJobs(tt.requested, tt.available, tt.perJob))
		})
	}
}

func TestJobsForMemory_SingleJobSkipsQuery(t *testing.T) {
	assert.Equal(t, 1, JobsForMemory(context.Background(), 1, 1<<40, zerolog.Nop()))
	assert.Equal(t, 1, JobsForMemory(context.Background(), 0, 1<<40, zerolog.Nop()))
}

func TestFrameBytes(t *testing.T) {
	assert.Equal(t, uint64(1920*1080*4), FrameBytes(1920, 1080))
	assert.Equal(t, uint64(0), FrameBytes(0, 1080))
}
