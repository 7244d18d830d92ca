package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"

	"github.com/forPelevin/reelcut/internal/ports"
)

// Open starts a decoder that streams the first video stream as raw RGBA.
func (a *Adapter) Open(ctx context.Context, path string) (ports.FrameReader, ports.StreamInfo, error) {
	info, err := a.Probe(ctx, path)
	if err != nil {
		return nil, ports.StreamInfo{}, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, info, fmt.Errorf("ffmpeg decode %s: invalid frame size %dx%d", path, info.Width, info.Height)
	}

	args := decodeArgs(path)
	a.log.Debug().Strs("args", args).Msg("starting decoder")
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	stderr := newTailBuffer(8 << 10)
	cmd.Stderr = stderr
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, info, fmt.Errorf("ffmpeg decode: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, info, fmt.Errorf("ffmpeg decode: start: %w", err)
	}

	return &frameReader{
		cmd:    cmd,
		out:    out,
		stderr: stderr,
		buf:    image.NewRGBA(image.Rect(0, 0, info.Width, info.Height)),
	}, info, nil
}

func decodeArgs(path string) []string {
	return []string{
		"-hide_banner",
		"-v", "error",
		"-i", path,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-fps_mode", "passthrough",
		"pipe:1",
	}
}

type frameReader struct {
	cmd    *exec.Cmd
	out    io.ReadCloser
	stderr *tailBuffer
	buf    *image.RGBA

	done     bool
	waitOnce sync.Once
	waitErr  error
}

func (r *frameReader) Next() (*image.RGBA, error) {
	if r.done {
		return nil, io.EOF
	}
	_, err := io.ReadFull(r.out, r.buf.Pix)
	switch {
	case err == nil:
		return r.buf, nil
	case errors.Is(err, io.EOF):
		r.done = true
		if werr := r.wait(); werr != nil {
			return nil, fmt.Errorf("ffmpeg decode: %w\n%s", werr, r.stderr)
		}
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.done = true
		werr := r.wait()
		return nil, fmt.Errorf("ffmpeg decode: truncated frame (exit: %v)\n%s", werr, r.stderr)
	default:
		return nil, fmt.Errorf("ffmpeg decode: read frame: %w", err)
	}
}

// Close stops the decoder if it is still running.
func (r *frameReader) Close() error {
	if !r.done && r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	r.done = true
	_ = r.wait()
	return nil
}

func (r *frameReader) wait() error {
	r.waitOnce.Do(func() {
		r.waitErr = r.cmd.Wait()
	})
	return r.waitErr
}
