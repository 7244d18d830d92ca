package ffmpeg

import (
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"

	"golang.org/x/image/draw"

	"github.com/forPelevin/reelcut/internal/ports"
)

// Create starts an H.264 encoder fed with raw RGBA frames on stdin.
func (a *Adapter) Create(ctx context.Context, spec ports.EncodeSpec) (ports.FrameWriter, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("ffmpeg encode: invalid frame size %dx%d", spec.Width, spec.Height)
	}
	if spec.FrameRate == "" {
		return nil, fmt.Errorf("ffmpeg encode: missing frame rate")
	}

	args := encodeArgs(spec)
	a.log.Debug().Strs("args", args).Msg("starting encoder")
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	stderr := newTailBuffer(8 << 10)
	cmd.Stdout = stderr
	cmd.Stderr = stderr
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg encode: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg encode: start: %w", err)
	}
	return &frameWriter{
		cmd:    cmd,
		in:     in,
		stderr: stderr,
		buf:    image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height)),
	}, nil
}

func encodeArgs(spec ports.EncodeSpec) []string {
	args := []string{
		"-hide_banner",
		"-v", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"-r", spec.FrameRate,
		"-i", "pipe:0",
	}
	if spec.AudioFrom != "" {
		args = append(args,
			"-i", spec.AudioFrom,
			"-map", "0:v:0",
			"-map", "1:a:0?",
			"-c:a", "copy",
		)
	}
	// yuv420p needs even dimensions.
	if spec.Width%2 != 0 || spec.Height%2 != 0 {
		args = append(args, "-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2")
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "18",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-shortest",
		spec.Out,
	)
	return args
}

type frameWriter struct {
	cmd    *exec.Cmd
	in     io.WriteCloser
	stderr *tailBuffer
	buf    *image.RGBA
	closed bool
}

func (w *frameWriter) WriteFrame(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != w.buf.Rect.Dx() || b.Dy() != w.buf.Rect.Dy() {
		return fmt.Errorf("ffmpeg encode: frame size %dx%d, encoder expects %dx%d",
			b.Dx(), b.Dy(), w.buf.Rect.Dx(), w.buf.Rect.Dy())
	}
	if _, err := w.in.Write(packRGBA(w.buf, img)); err != nil {
		return fmt.Errorf("ffmpeg encode: write frame: %w\n%s", err, w.stderr)
	}
	return nil
}

// Close flushes stdin and waits for the encoder to finalize the container.
func (w *frameWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.in.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w\n%s", err, w.stderr)
	}
	return nil
}

// packRGBA returns img as tightly packed RGBA bytes. A sub-image of a larger
// frame has a wider stride, so it is copied into buf first.
func packRGBA(buf *image.RGBA, img image.Image) []byte {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == b.Dx()*4 {
		start := rgba.PixOffset(b.Min.X, b.Min.Y)
		return rgba.Pix[start : start+b.Dx()*b.Dy()*4]
	}
	draw.Draw(buf, buf.Bounds(), img, b.Min, draw.Src)
	return buf.Pix
}
