package reframe

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/forPelevin/reelcut/internal/domain/motion"
	"github.com/forPelevin/reelcut/internal/ports"
)

// DefaultStride runs the detector on every second frame.
const DefaultStride = 2

// ProgressFunc is called once per processed frame of a pass. total is an
// estimate from the container and may be zero.
type ProgressFunc func(stage string, done, total int)

const (
	StageSample = "sample"
	StageRender = "render"
)

// Sampler builds the raw motion path of a clip in one sequential decode pass.
type Sampler struct {
	Source   ports.FrameSource
	Detector ports.SubjectDetector
	// Stride is the detector period in frames; frames in between hold the last
	// descriptor. Zero means DefaultStride.
	Stride   int
	Log      zerolog.Logger
	Progress ProgressFunc
}

// Sample returns the raw path and the number of frames actually decoded. A
// clip without decodable frames yields the one-entry default path and zero.
func (s Sampler) Sample(ctx context.Context, clip string) (motion.Path, ports.StreamInfo, int, error) {
	r, info, err := s.Source.Open(ctx, clip)
	if err != nil {
		return nil, ports.StreamInfo{}, 0, &DecodeError{Frame: 0, Err: err}
	}
	defer r.Close()

	stride := s.Stride
	if stride == 0 {
		stride = DefaultStride
	}
	if stride < 1 {
		stride = 1
	}

	total := expectedFrames(info)
	path := make(motion.Path, 0, total)
	last := motion.Default()
	detections := 0
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, info, 0, err
		}
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, info, 0, &DecodeError{Frame: i, Err: err}
		}
		if i%stride == 0 {
			last = s.Detector.Detect(frame).Clamp()
			detections++
		}
		path = append(path, last)
		if s.Progress != nil {
			s.Progress(StageSample, i+1, total)
		}
	}

	if len(path) == 0 {
		s.Log.Warn().Str("clip", clip).Msg("no decodable frames, using default path")
		return motion.DefaultPath(), info, 0, nil
	}
	s.Log.Debug().
		Str("clip", clip).
		Int("frames", len(path)).
		Int("detections", detections).
		Msg("motion path sampled")
	return path, info, len(path), nil
}

func expectedFrames(info ports.StreamInfo) int {
	if info.FPS <= 0 || info.Duration <= 0 {
		return 0
	}
	return int(info.Duration.Seconds()*info.FPS + 0.5)
}
