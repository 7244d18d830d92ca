package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/reelcut/internal/domain/motion"
	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/reframe"
	"github.com/forPelevin/reelcut/internal/types"
)

type fakeVideoTool struct {
	mu        sync.Mutex
	cutStarts []time.Duration
	burnIn    []string
	burnASS   []string
	info      ports.StreamInfo
}

func (f *fakeVideoTool) ExtractAudioMono16k(_ context.Context, _, _ string) error { return nil }

func (f *fakeVideoTool) CutClip(_ context.Context, _ string, start, _ time.Duration, out string) error {
	f.mu.Lock()
	f.cutStarts = append(f.cutStarts, start)
	f.mu.Unlock()
	return os.WriteFile(out, []byte("raw"), 0o644)
}

func (f *fakeVideoTool) BurnSubtitles(_ context.Context, in, ass, out string) error {
	f.mu.Lock()
	f.burnIn = append(f.burnIn, in)
	f.burnASS = append(f.burnASS, ass)
	f.mu.Unlock()
	b, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	return os.WriteFile(out, append(b, []byte("+subs")...), 0o644)
}

func (f *fakeVideoTool) Probe(_ context.Context, _ string) (ports.StreamInfo, error) {
	return f.info, nil
}

type fakeASR struct{ tr types.Transcript }

func (f fakeASR) Transcribe(_ context.Context, _, _ string) (types.Transcript, error) {
	return f.tr, nil
}

type fakeSelector struct{ moments []types.Moment }

func (f fakeSelector) Select(_ context.Context, _ types.Transcript, _ int, _, _ time.Duration) ([]types.Moment, error) {
	return f.moments, nil
}

type fakeReframer struct {
	failIn string
	err    error
}

func (f fakeReframer) Reframe(_ context.Context, in, out string) (reframe.Result, error) {
	if f.err != nil && (f.failIn == "" || strings.Contains(in, f.failIn)) {
		return reframe.Result{}, f.err
	}
	if err := os.WriteFile(out, []byte("vertical"), 0o644); err != nil {
		return reframe.Result{}, err
	}
	return reframe.Result{Output: out, Frames: 150, Crop: motion.CropWindow{Width: 608, Height: 1080}}, nil
}

func testTranscript() types.Transcript {
	return types.Transcript{Segments: []types.Segment{{
		Start: 0, End: 5, Text: "hello world",
		Words: []types.Word{
			{Start: 0.1, End: 0.7, Word: "hello"},
			{Start: 0.8, End: 1.4, Word: "world"},
		},
	}}}
}

func newInput(t *testing.T) Input {
	tmp := t.TempDir()
	cache := filepath.Join(tmp, "cache")
	require.NoError(t, os.MkdirAll(cache, 0o755))
	return Input{
		InputMP4: filepath.Join(tmp, "in.mp4"),
		ClipsN:   2,
		MinClip:  5 * time.Second,
		MaxClip:  60 * time.Second,
		CacheDir: cache,
		OutDir:   filepath.Join(tmp, "out"),
		Jobs:     1,
	}
}

func TestRun_ReframeAndBurn(t *testing.T) {
	video := &fakeVideoTool{info: ports.StreamInfo{Width: 1920, Height: 1080, Duration: time.Minute}}
	uc := New(Deps{
		Video:       video,
		ASR:         fakeASR{tr: testTranscript()},
		Selector:    fakeSelector{moments: []types.Moment{{Start: 0, End: 5 * time.Second, Headline: "Hello, World!"}}},
		NewReframer: func() (Reframer, error) { return fakeReframer{}, nil },
		Log:         zerolog.Nop(),
	})
	in := newInput(t)
	in.Reframe, in.BurnSubtitles = true, true

	res, err := uc.Run(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Manifest.Clips, 1)

	c := res.Manifest.Clips[0]
	assert.Equal(t, "001", c.ID)
	assert.Equal(t, "clips/001_hello__world.mp4", c.File)
	assert.Equal(t, "subtitles/001.ass", c.Subtitles)
	assert.True(t, c.Reframed)
	assert.Equal(t, 608, c.CropWidth)
	assert.Equal(t, 1080, c.CropHeight)
	assert.Equal(t, 150, c.Frames)

	require.Len(t, video.burnIn, 1)
	assert.True(t, strings.HasSuffix(video.burnIn[0], "001_vertical.mp4"), video.burnIn[0])
	out, err := os.ReadFile(filepath.Join(in.OutDir, "clips", "001_hello__world.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "vertical+subs", string(out))

	ass, err := os.ReadFile(filepath.Join(in.OutDir, "subtitles", "001.ass"))
	require.NoError(t, err)
	assert.Contains(t, string(ass), `{\k`)

	_, err = os.Stat(filepath.Join(in.CacheDir, "clips", "001_raw.mp4"))
	assert.True(t, os.IsNotExist(err), "intermediates are removed")
}

func TestRun_NoReframeNoSubsMovesRawCut(t *testing.T) {
	video := &fakeVideoTool{}
	uc := New(Deps{
		Video:    video,
		ASR:      fakeASR{tr: testTranscript()},
		Selector: fakeSelector{moments: []types.Moment{{Start: 0, End: 5 * time.Second}}},
		Log:      zerolog.Nop(),
	})
	in := newInput(t)

	res, err := uc.Run(context.Background(), in)
	require.NoError(t, err)
	c := res.Manifest.Clips[0]
	assert.False(t, c.Reframed)
	assert.Empty(t, c.Subtitles)
	assert.Equal(t, "clips/001.mp4", c.File)
	assert.Empty(t, video.burnIn)

	b, err := os.ReadFile(filepath.Join(in.OutDir, "clips", "001.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))
	_, err = os.Stat(filepath.Join(in.OutDir, "subtitles"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_SortsClipsByTimeline(t *testing.T) {
	video := &fakeVideoTool{}
	uc := New(Deps{
		Video: video,
		ASR:   fakeASR{tr: testTranscript()},
		Selector: fakeSelector{moments: []types.Moment{
			{Start: 2 * time.Minute, End: 2*time.Minute + 20*time.Second, Headline: "late"},
			{Start: 20 * time.Second, End: 40 * time.Second, Headline: "early"},
		}},
		Log: zerolog.Nop(),
	})

	res, err := uc.Run(context.Background(), newInput(t))
	require.NoError(t, err)
	require.Len(t, res.Manifest.Clips, 2)
	assert.Equal(t, "001", res.Manifest.Clips[0].ID)
	assert.Equal(t, "early", res.Manifest.Clips[0].Headline)
	assert.Equal(t, "002", res.Manifest.Clips[1].ID)
	assert.Equal(t, []time.Duration{20 * time.Second, 2 * time.Minute}, video.cutStarts)
}

func TestRun_FallbackMomentWhenNothingSelected(t *testing.T) {
	video := &fakeVideoTool{info: ports.StreamInfo{Duration: 9 * time.Second}}
	uc := New(Deps{Video: video, ASR: fakeASR{}, Selector: fakeSelector{}, Log: zerolog.Nop()})

	res, err := uc.Run(context.Background(), newInput(t))
	require.NoError(t, err)
	require.Len(t, res.Manifest.Clips, 1)
	c := res.Manifest.Clips[0]
	assert.Equal(t, "Highlight", c.Headline)
	assert.Equal(t, 0.0, c.StartSec)
	assert.Equal(t, 9.0, c.EndSec, "fallback is clamped to the input duration")
}

func TestRun_SkipFailedRecordsReframeError(t *testing.T) {
	video := &fakeVideoTool{info: ports.StreamInfo{Width: 64, Height: 36}}
	uc := New(Deps{
		Video: video,
		ASR:   fakeASR{tr: testTranscript()},
		Selector: fakeSelector{moments: []types.Moment{
			{Start: 0, End: 10 * time.Second, Headline: "a"},
			{Start: 20 * time.Second, End: 30 * time.Second, Headline: "b"},
		}},
		NewReframer: func() (Reframer, error) {
			return fakeReframer{failIn: "002_raw", err: &reframe.DecodeError{Frame: 12, Err: errors.New("bad packet")}}, nil
		},
		Log: zerolog.Nop(),
	})
	in := newInput(t)
	in.Reframe, in.SkipFailed, in.Jobs = true, true, 2

	res, err := uc.Run(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Manifest.Clips, 2)
	assert.Empty(t, res.Manifest.Clips[0].Error)
	assert.True(t, res.Manifest.Clips[0].Reframed)
	assert.Contains(t, res.Manifest.Clips[1].Error, "decode frame 12")
	assert.Empty(t, res.Manifest.Clips[1].File)
}

func TestRun_ReframeErrorAbortsWithoutSkip(t *testing.T) {
	uc := New(Deps{
		Video:    &fakeVideoTool{},
		ASR:      fakeASR{tr: testTranscript()},
		Selector: fakeSelector{moments: []types.Moment{{Start: 0, End: 10 * time.Second}}},
		NewReframer: func() (Reframer, error) {
			return fakeReframer{err: &reframe.RenderError{Path: "x.mp4", Frame: -1, Err: errors.New("encoder died")}}, nil
		},
		Log: zerolog.Nop(),
	})
	in := newInput(t)
	in.Reframe = true

	_, err := uc.Run(context.Background(), in)
	var re *reframe.RenderError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, err.Error(), "clip 001")
}

func TestClipName(t *testing.T) {
	assert.Equal(t, "001", clipName("001", ""))
	assert.Equal(t, "002_why_go", clipName("002", "Why Go?"))
	assert.Equal(t, "003_abcdefghijklmnopqrstuvwxyzabcd", clipName("003", strings.Repeat("abcdefghijklmnopqrstuvwxyz", 2)))
}
