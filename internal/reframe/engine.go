// Package reframe turns a landscape clip into a vertical one whose crop
// follows the subject: a sampling pass builds the motion path, the path is
// smoothed, and a render pass crops and encodes every frame.
//
// One Engine serves one clip run at a time. Nothing is carried between clips.
package reframe

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/forPelevin/reelcut/internal/domain/motion"
	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/ports"
)

type Options struct {
	Aspect        float64
	Stride        int
	SmoothSeconds float64
	Logger        zerolog.Logger
	Progress      ProgressFunc
}

type Engine struct {
	Sampler  Sampler
	Smoother Smoother
	Reframer Reframer
	Aspect   float64
	log      zerolog.Logger
}

type Result struct {
	Output string
	Frames int
	Window int
	Info   ports.StreamInfo
	Crop   motion.CropWindow
}

func New(src ports.FrameSource, sink ports.FrameSink, det ports.SubjectDetector, opts Options) *Engine {
	aspect := opts.Aspect
	if aspect <= 0 {
		aspect = motion.DefaultAspect
	}
	log := logging.Component(opts.Logger, "reframe")
	return &Engine{
		Sampler: Sampler{
			Source:   src,
			Detector: det,
			Stride:   opts.Stride,
			Log:      log,
			Progress: opts.Progress,
		},
		Smoother: Smoother{Seconds: opts.SmoothSeconds},
		Reframer: Reframer{
			Source:   src,
			Sink:     sink,
			Log:      log,
			Progress: opts.Progress,
		},
		Aspect: aspect,
		log:    log,
	}
}

// Reframe runs sample, smooth and render in order. The render pass only
// starts once the whole smoothed path exists.
func (e *Engine) Reframe(ctx context.Context, in, out string) (Result, error) {
	raw, info, frames, err := e.Sampler.Sample(ctx, in)
	if err != nil {
		return Result{}, fmt.Errorf("sample motion: %w", err)
	}

	window := motion.WindowForFPS(info.FPS, e.Smoother.Seconds, len(raw))
	smoothed := e.Smoother.Smooth(raw, info.FPS)
	e.log.Info().
		Str("clip", in).
		Int("frames", frames).
		Int("window", window).
		Msg("camera path ready")

	res, err := e.Reframer.Render(ctx, in, smoothed, e.Aspect, out)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Output: res,
		Frames: frames,
		Window: window,
		Info:   info,
		Crop:   motion.Crop(motion.Default(), info.Width, info.Height, e.Aspect),
	}, nil
}
