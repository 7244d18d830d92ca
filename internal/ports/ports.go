package ports

import (
	"context"
	"image"
	"time"

	"github.com/forPelevin/reelcut/internal/domain/motion"
	"github.com/forPelevin/reelcut/internal/types"
)

// StreamInfo describes the first video stream of a media file.
type StreamInfo struct {
	Width  int
	Height int
	FPS    float64
	// FrameRate is the exact rate as reported by the container, e.g. "30000/1001".
	FrameRate string
	Duration  time.Duration
	HasAudio  bool
}

// FrameReader yields decoded frames in presentation order.
// Next returns io.EOF after the last frame. The returned image is only
// valid until the following call to Next.
type FrameReader interface {
	Next() (*image.RGBA, error)
	Close() error
}

type FrameSource interface {
	Open(ctx context.Context, path string) (FrameReader, StreamInfo, error)
}

// EncodeSpec describes an output video built from raw frames.
type EncodeSpec struct {
	Out       string
	Width     int
	Height    int
	FrameRate string
	// AudioFrom is a media file whose audio stream is copied unchanged. Empty means silent.
	AudioFrom string
}

// FrameWriter accepts frames for encoding. Close finalizes the file and
// reports any encoder failure; the output is not valid before Close returns nil.
type FrameWriter interface {
	WriteFrame(img image.Image) error
	Close() error
}

type FrameSink interface {
	Create(ctx context.Context, spec EncodeSpec) (FrameWriter, error)
}

// SubjectDetector locates the main subject in a frame. A miss is not an
// error: implementations return motion.Default().
type SubjectDetector interface {
	Detect(frame image.Image) motion.SubjectDescriptor
}

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error
	CutClip(ctx context.Context, inMP4 string, start, end time.Duration, outMP4 string) error
	BurnSubtitles(ctx context.Context, inMP4, assPath, outMP4 string) error
	Probe(ctx context.Context, inMP4 string) (StreamInfo, error)
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error)
}

type MomentSelector interface {
	Select(
		ctx context.Context,
		tr types.Transcript,
		clipsN int,
		minClip time.Duration,
		maxClip time.Duration,
	) ([]types.Moment, error)
}
