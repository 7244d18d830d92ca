package reframe

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"time"

	"github.com/forPelevin/reelcut/internal/domain/motion"
	"github.com/forPelevin/reelcut/internal/ports"
)

// fakeSource serves synthetic frames; the frame index is stamped into the
// first two bytes of the pixel buffer so detectors can tell frames apart.
type fakeSource struct {
	width, height int
	frames        int
	fps           float64
	hasAudio      bool
	failAt        int // -1 disables
	openErr       error
	opens         int
}

func newFakeSource(w, h, frames int, fps float64) *fakeSource {
	return &fakeSource{width: w, height: h, frames: frames, fps: fps, failAt: -1}
}

func (s *fakeSource) Open(_ context.Context, _ string) (ports.FrameReader, ports.StreamInfo, error) {
	s.opens++
	if s.openErr != nil {
		return nil, ports.StreamInfo{}, s.openErr
	}
	info := ports.StreamInfo{
		Width:     s.width,
		Height:    s.height,
		FPS:       s.fps,
		FrameRate: "30/1",
		Duration:  time.Duration(float64(s.frames) / s.fps * float64(time.Second)),
		HasAudio:  s.hasAudio,
	}
	return &fakeReader{src: s, buf: image.NewRGBA(image.Rect(0, 0, s.width, s.height))}, info, nil
}

type fakeReader struct {
	src  *fakeSource
	buf  *image.RGBA
	next int
}

func (r *fakeReader) Next() (*image.RGBA, error) {
	if r.src.failAt >= 0 && r.next == r.src.failAt {
		return nil, errors.New("corrupt packet")
	}
	if r.next >= r.src.frames {
		return nil, io.EOF
	}
	r.buf.Pix[0] = byte(r.next & 0xff)
	r.buf.Pix[1] = byte(r.next >> 8)
	r.next++
	return r.buf, nil
}

func (r *fakeReader) Close() error { return nil }

func frameNumber(img image.Image) int {
	rgba := img.(*image.RGBA)
	return int(rgba.Pix[0]) | int(rgba.Pix[1])<<8
}

// funcDetector maps a frame number to a descriptor and records which frames it saw.
type funcDetector struct {
	fn   func(frame int) motion.SubjectDescriptor
	seen []int
}

func (d *funcDetector) Detect(img image.Image) motion.SubjectDescriptor {
	n := frameNumber(img)
	d.seen = append(d.seen, n)
	return d.fn(n)
}

type fakeSink struct {
	spec     ports.EncodeSpec
	windows  []image.Rectangle
	closeErr error
	writeErr error
}

func (s *fakeSink) Create(_ context.Context, spec ports.EncodeSpec) (ports.FrameWriter, error) {
	s.spec = spec
	if err := os.WriteFile(spec.Out, nil, 0o644); err != nil {
		return nil, err
	}
	return &fakeWriter{sink: s}, nil
}

type fakeWriter struct {
	sink *fakeSink
}

func (w *fakeWriter) WriteFrame(img image.Image) error {
	if w.sink.writeErr != nil {
		return w.sink.writeErr
	}
	w.sink.windows = append(w.sink.windows, img.Bounds())
	return nil
}

func (w *fakeWriter) Close() error {
	if w.sink.closeErr != nil {
		return w.sink.closeErr
	}
	return os.WriteFile(w.sink.spec.Out, []byte("mp4"), 0o644)
}
