package reframe

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forPelevin/reelcut/internal/domain/motion"
	"github.com/forPelevin/reelcut/internal/ports"
)

// Smoother turns a raw motion path into the camera path.
type Smoother struct {
	// Seconds is the boxcar span. Zero means one second.
	Seconds float64
}

func (s Smoother) Smooth(path motion.Path, fps float64) motion.Path {
	return motion.Smooth(path, motion.WindowForFPS(fps, s.Seconds, len(path)))
}

// Reframer decodes a clip a second time and encodes the per-frame crop.
type Reframer struct {
	Source   ports.FrameSource
	Sink     ports.FrameSink
	Log      zerolog.Logger
	Progress ProgressFunc
	// OnFrame, when set, observes every crop window in output order.
	OnFrame func(frame int, win motion.CropWindow)
}

// Render writes the reframed clip to out and returns out once the encoder has finalized it.
func (r Reframer) Render(ctx context.Context, clip string, path motion.Path, aspect float64, out string) (string, error) {
	if len(path) == 0 {
		path = motion.DefaultPath()
	}
	if aspect <= 0 {
		aspect = motion.DefaultAspect
	}

	src, info, err := r.Source.Open(ctx, clip)
	if err != nil {
		return "", &RenderError{Path: out, Frame: 0, Err: &DecodeError{Frame: 0, Err: err}}
	}
	defer src.Close()

	if info.FPS <= 0 {
		return "", &RenderError{Path: out, Frame: -1, Err: fmt.Errorf("invalid frame rate %q", info.FrameRate)}
	}
	if info.Width <= 0 || info.Height <= 0 {
		return "", &RenderError{Path: out, Frame: -1, Err: fmt.Errorf("invalid frame size %dx%d", info.Width, info.Height)}
	}

	size := motion.Crop(motion.Default(), info.Width, info.Height, aspect)
	spec := ports.EncodeSpec{
		Out:       partialPath(out),
		Width:     size.Width,
		Height:    size.Height,
		FrameRate: frameRate(info),
	}
	if info.HasAudio {
		spec.AudioFrom = clip
	}

	w, err := r.Sink.Create(ctx, spec)
	if err != nil {
		return "", &RenderError{Path: out, Frame: -1, Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(spec.Out)
		}
	}()

	total := expectedFrames(info)
	frames := 0
	for k := 0; ; k++ {
		if err := ctx.Err(); err != nil {
			_ = w.Close()
			return "", &RenderError{Path: out, Frame: k, Err: err}
		}
		img, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = w.Close()
			return "", &RenderError{Path: out, Frame: k, Err: &DecodeError{Frame: k, Err: err}}
		}
		b := img.Bounds()
		if b.Dx() != info.Width || b.Dy() != info.Height {
			_ = w.Close()
			return "", &RenderError{Path: out, Frame: k, Err: &DecodeError{
				Frame: k,
				Err:   fmt.Errorf("frame size %dx%d, stream is %dx%d", b.Dx(), b.Dy(), info.Width, info.Height),
			}}
		}

		t := float64(k) / info.FPS
		win := motion.Crop(path[motion.FrameIndex(t, info.FPS, len(path))], info.Width, info.Height, aspect)
		if r.OnFrame != nil {
			r.OnFrame(k, win)
		}
		rect := image.Rect(b.Min.X+win.X1, b.Min.Y, b.Min.X+win.X1+win.Width, b.Min.Y+win.Height)
		if err := w.WriteFrame(img.SubImage(rect)); err != nil {
			_ = w.Close()
			return "", &RenderError{Path: out, Frame: k, Err: err}
		}
		frames++
		if r.Progress != nil {
			r.Progress(StageRender, frames, total)
		}
	}

	if err := w.Close(); err != nil {
		return "", &RenderError{Path: out, Frame: -1, Err: err}
	}
	if err := os.Rename(spec.Out, out); err != nil {
		return "", &RenderError{Path: out, Frame: -1, Err: err}
	}
	committed = true

	r.Log.Debug().
		Str("out", out).
		Int("frames", frames).
		Int("crop_w", size.Width).
		Int("crop_h", size.Height).
		Msg("reframed clip written")
	return out, nil
}

// partialPath keeps the extension so the encoder still infers the container.
func partialPath(out string) string {
	ext := filepath.Ext(out)
	base := strings.TrimSuffix(filepath.Base(out), ext)
	return filepath.Join(filepath.Dir(out), "."+base+".partial"+ext)
}

func frameRate(info ports.StreamInfo) string {
	if info.FrameRate != "" {
		return info.FrameRate
	}
	return strconv.FormatFloat(info.FPS, 'f', -1, 64)
}
