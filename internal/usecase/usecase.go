package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/reelcut/internal/domain/subtitles"
	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/reframe"
	"github.com/forPelevin/reelcut/internal/system"
	"github.com/forPelevin/reelcut/internal/types"
)

// Reframer converts one landscape clip into a vertical one.
type Reframer interface {
	Reframe(ctx context.Context, in, out string) (reframe.Result, error)
}

type Deps struct {
	Video    ports.VideoTool
	ASR      ports.ASR
	Selector ports.MomentSelector
	// NewReframer returns a fresh reframer per clip. Clip runs share nothing.
	NewReframer func() (Reframer, error)
	Log         zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	InputMP4      string
	ClipsN        int
	MinClip       time.Duration
	MaxClip       time.Duration
	Reframe       bool
	BurnSubtitles bool
	// SkipFailed records clips whose reframing failed instead of aborting the batch.
	SkipFailed bool
	Jobs       int
	CacheDir   string
	OutDir     string
}

type Result struct {
	Manifest types.Manifest
}

// fallbackMoment is used when nothing else can be selected.
var fallbackMoment = types.Moment{Start: 0, End: 15 * time.Second, Headline: "Highlight", Reason: "fallback"}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Log
	info, err := u.d.Video.Probe(ctx, in.InputMP4)
	if err != nil {
		return Result{}, fmt.Errorf("probe input: %w", err)
	}

	wav := filepath.Join(in.CacheDir, "audio.wav")
	log.Info().Msg("extracting audio")
	if err := u.d.Video.ExtractAudioMono16k(ctx, in.InputMP4, wav); err != nil {
		return Result{}, err
	}

	log.Info().Msg("transcribing")
	tr, err := u.d.ASR.Transcribe(ctx, wav, in.CacheDir)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}
	log.Info().Int("segments", len(tr.Segments)).Msg("transcript ready")

	moments, err := u.d.Selector.Select(ctx, tr, in.ClipsN, in.MinClip, in.MaxClip)
	if err != nil {
		return Result{}, fmt.Errorf("select moments: %w", err)
	}
	if len(moments) == 0 {
		log.Warn().Msg("no moments selected, using fallback moment")
		moments = []types.Moment{clampMoment(fallbackMoment, info.Duration)}
	}
	sort.SliceStable(moments, func(i, j int) bool { return moments[i].Start < moments[j].Start })

	for _, dir := range []string{filepath.Join(in.CacheDir, "clips"), filepath.Join(in.OutDir, "clips")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, err
		}
	}
	if in.BurnSubtitles {
		if err := os.MkdirAll(filepath.Join(in.OutDir, "subtitles"), 0o755); err != nil {
			return Result{}, err
		}
	}

	jobs := in.Jobs
	if in.Reframe {
		// decoded source frame plus the packed crop, per clip
		jobs = system.JobsForMemory(ctx, jobs, 2*system.FrameBytes(info.Width, info.Height), log)
	}
	if jobs < 1 {
		jobs = 1
	}

	clips := make([]types.ManifestClip, len(moments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, m := range moments {
		id := fmt.Sprintf("%03d", i+1)
		g.Go(func() error {
			clip, err := u.processClip(gctx, in, tr, id, m)
			if err != nil {
				if !in.SkipFailed || !isReframeFailure(err) {
					return fmt.Errorf("clip %s: %w", id, err)
				}
				log.Warn().Err(err).Str("clip", id).Msg("clip skipped")
				clip.Error = err.Error()
				clip.File = ""
			}
			clips[i] = clip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return Result{Manifest: types.Manifest{Input: in.InputMP4, Clips: clips}}, nil
}

func (u Usecase) processClip(ctx context.Context, in Input, tr types.Transcript, id string, m types.Moment) (types.ManifestClip, error) {
	log := u.d.Log.With().Str("clip", id).Logger()
	name := clipName(id, m.Headline)
	clip := types.ManifestClip{
		ID:       id,
		StartSec: m.Start.Seconds(),
		EndSec:   m.End.Seconds(),
		Headline: m.Headline,
		Reason:   m.Reason,
		File:     filepath.ToSlash(filepath.Join("clips", name+".mp4")),
	}

	rawPath := filepath.Join(in.CacheDir, "clips", id+"_raw.mp4")
	verticalPath := filepath.Join(in.CacheDir, "clips", id+"_vertical.mp4")
	defer func() {
		_ = os.Remove(rawPath)
		_ = os.Remove(verticalPath)
	}()

	log.Info().Dur("start", m.Start).Dur("end", m.End).Str("headline", m.Headline).Msg("cutting clip")
	if err := u.d.Video.CutClip(ctx, in.InputMP4, m.Start, m.End, rawPath); err != nil {
		return clip, err
	}

	current := rawPath
	if in.Reframe && u.d.NewReframer != nil {
		r, err := u.d.NewReframer()
		if err != nil {
			return clip, fmt.Errorf("build reframer: %w", err)
		}
		res, err := r.Reframe(ctx, rawPath, verticalPath)
		if err != nil {
			return clip, err
		}
		current = res.Output
		clip.Reframed = true
		clip.CropWidth = res.Crop.Width
		clip.CropHeight = res.Crop.Height
		clip.Frames = res.Frames
	}

	finalPath := filepath.Join(in.OutDir, filepath.FromSlash(clip.File))
	if !in.BurnSubtitles {
		return clip, moveFile(current, finalPath)
	}

	assRel := filepath.Join("subtitles", id+".ass")
	assPath := filepath.Join(in.OutDir, assRel)
	if err := os.WriteFile(assPath, []byte(subtitles.RenderVerticalASS(tr, m.Start, m.End)), 0o644); err != nil {
		return clip, err
	}
	if err := u.d.Video.BurnSubtitles(ctx, current, assPath, finalPath); err != nil {
		return clip, err
	}
	clip.Subtitles = filepath.ToSlash(assRel)
	log.Info().Str("file", clip.File).Msg("clip ready")
	return clip, nil
}

func isReframeFailure(err error) bool {
	var de *reframe.DecodeError
	var re *reframe.RenderError
	return errors.As(err, &de) || errors.As(err, &re)
}

func clampMoment(m types.Moment, total time.Duration) types.Moment {
	if total > 0 && m.End > total {
		m.End = total
	}
	return m
}

// clipName is the id followed by a short slug of the headline.
func clipName(id, headline string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(headline) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if rs := []rune(slug); len(rs) > 30 {
		slug = strings.TrimRight(string(rs[:30]), "_")
	}
	if slug == "" {
		return id
	}
	return id + "_" + slug
}

// moveFile renames src to dst, copying when they are on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
