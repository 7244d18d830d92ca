package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/ports/adapters/detect"
	"github.com/forPelevin/reelcut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/reelcut/internal/ports/adapters/openrouter"
	"github.com/forPelevin/reelcut/internal/ports/adapters/pigo"
	"github.com/forPelevin/reelcut/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/reelcut/internal/reframe"
	"github.com/forPelevin/reelcut/internal/usecase"
)

type Config struct {
	InputMP4      string
	OutDir        string
	ClipsN        int
	MinClip       time.Duration
	MaxClip       time.Duration
	Jobs          int
	BurnSubtitles bool
	SkipFailed    bool

	// CacheDir is the base directory for local artifacts (audio, transcripts, etc.).
	// If empty, defaults to ".cache".
	CacheDir string

	Reframe       bool
	Aspect        float64
	Detector      string
	Cascade       string
	Stride        int
	SmoothSeconds float64

	FFmpegPath  string
	FFprobePath string

	WhisperBin      string
	WhisperModel    string
	WhisperLanguage string
	WhisperThreads  int

	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string

	Logger   zerolog.Logger
	Progress reframe.ProgressFunc
}

// Validate checks a full highlight run.
func (c Config) Validate() error {
	if c.InputMP4 == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.InputMP4); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if c.ClipsN <= 0 {
		return fmt.Errorf("clips must be > 0")
	}
	if c.MaxClip <= 0 {
		return fmt.Errorf("max clip must be > 0")
	}
	if c.MinClip <= 0 {
		return fmt.Errorf("min clip must be > 0")
	}
	if c.MinClip > c.MaxClip {
		return fmt.Errorf("min clip must be <= max clip")
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must be >= 0")
	}
	if c.WhisperModel == "" {
		return fmt.Errorf("whisper model path is required")
	}
	if c.Reframe {
		if err := c.validateReframe(); err != nil {
			return err
		}
	}
	return openrouter.ValidateBaseURL(
		c.OpenRouterBaseURL,
		c.OpenRouterAllowedHosts,
	)
}

// ValidateReframe checks the settings used by a standalone reframe.
func (c Config) ValidateReframe() error {
	return c.validateReframe()
}

func (c Config) validateReframe() error {
	if c.Aspect < 0 {
		return fmt.Errorf("aspect must be > 0")
	}
	if c.Stride < 0 {
		return fmt.Errorf("stride must be >= 1")
	}
	if c.SmoothSeconds < 0 {
		return fmt.Errorf("smooth seconds must be >= 0")
	}
	switch kind := strings.ToLower(strings.TrimSpace(c.Detector)); kind {
	case "", detect.KindPigo:
		cascade := c.Cascade
		if cascade == "" {
			cascade = pigo.DefaultCascade
		}
		if _, err := os.Stat(cascade); err != nil {
			return fmt.Errorf("pigo cascade: %w", err)
		}
		return nil
	case detect.KindCenter:
		return nil
	default:
		return fmt.Errorf("unknown detector %q (want one of %s)", c.Detector, strings.Join(detect.Kinds(), ", "))
	}
}

// Run executes the whole highlight pipeline and returns the run output directory.
func Run(ctx context.Context, cfg Config) (string, error) {
	log := logging.Component(cfg.Logger, "pipeline")

	// adapters
	v := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, cfg.Logger)
	asr := whispercpp.New(whispercpp.Options{
		Bin:      cfg.WhisperBin,
		Model:    cfg.WhisperModel,
		Language: cfg.WhisperLanguage,
		Threads:  cfg.WhisperThreads,
		Logger:   cfg.Logger,
	})
	sel := openrouter.New(openrouter.Options{
		APIKey:  cfg.OpenRouterAPIKey,
		Model:   cfg.OpenRouterModel,
		BaseURL: cfg.OpenRouterBaseURL,
		Logger:  cfg.Logger,
	})

	deps := usecase.Deps{
		Video:    v,
		ASR:      asr,
		Selector: sel,
		Log:      cfg.Logger,
	}
	if cfg.Reframe {
		deps.NewReframer = func() (usecase.Reframer, error) {
			e, err := newEngine(cfg, v)
			if err != nil {
				return nil, err
			}
			return e, nil
		}
	}

	uc := usecase.New(deps)

	jobID := hash(cfg.InputMP4)
	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	cacheDir := filepath.Join(baseCache, "runs", jobID)
	log.Info().Msg("preparing workspace")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}
	log.Debug().Str("cache", cacheDir).Msg("cache ready")

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.InputMP4, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return "", err
	}
	log.Info().Str("dir", runOutDir).Msg("output run dir")

	res, err := uc.Run(ctx, usecase.Input{
		InputMP4:      cfg.InputMP4,
		ClipsN:        cfg.ClipsN,
		MinClip:       cfg.MinClip,
		MaxClip:       cfg.MaxClip,
		Reframe:       cfg.Reframe,
		BurnSubtitles: cfg.BurnSubtitles,
		SkipFailed:    cfg.SkipFailed,
		Jobs:          cfg.Jobs,
		CacheDir:      cacheDir,
		OutDir:        runOutDir,
	})
	if err != nil {
		return runOutDir, err
	}

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return runOutDir, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return runOutDir, err
	}
	log.Info().Int("clips", len(res.Manifest.Clips)).Str("path", manifestPath).Msg("manifest written")
	return runOutDir, nil
}

// Reframe converts a single clip without transcription or selection.
func Reframe(ctx context.Context, cfg Config, in, out string) (reframe.Result, error) {
	if _, err := os.Stat(in); err != nil {
		return reframe.Result{}, fmt.Errorf("stat input: %w", err)
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return reframe.Result{}, err
		}
	}
	e, err := newEngine(cfg, ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, cfg.Logger))
	if err != nil {
		return reframe.Result{}, err
	}
	return e.Reframe(ctx, in, out)
}

func newEngine(cfg Config, ff *ffmpeg.Adapter) (*reframe.Engine, error) {
	det, err := detect.New(cfg.Detector, detect.Options{CascadePath: cfg.Cascade, Logger: cfg.Logger})
	if err != nil {
		return nil, err
	}
	return reframe.New(ff, ff, det, reframe.Options{
		Aspect:        cfg.Aspect,
		Stride:        cfg.Stride,
		SmoothSeconds: cfg.SmoothSeconds,
		Logger:        cfg.Logger,
		Progress:      cfg.Progress,
	}), nil
}

func buildRunOutDir(outRoot, inputMP4 string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(inputMP4), filepath.Ext(inputMP4))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", inputMP4, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var (
	_ ports.VideoTool      = (*ffmpeg.Adapter)(nil)
	_ ports.FrameSource    = (*ffmpeg.Adapter)(nil)
	_ ports.FrameSink      = (*ffmpeg.Adapter)(nil)
	_ ports.ASR            = (*whispercpp.Adapter)(nil)
	_ ports.MomentSelector = (*openrouter.Adapter)(nil)
	_ usecase.Reframer     = (*reframe.Engine)(nil)
)
