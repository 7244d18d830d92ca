package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/forPelevin/reelcut/internal/config"
	"github.com/forPelevin/reelcut/internal/domain/motion"
	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/pipeline"
)

const runTimeout = 3 * time.Hour

func run(cmd *cobra.Command, input string) error {
	cfg, verbose, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Init(verbose)

	if cfg.OpenRouter.APIKey == "" {
		return errors.New("OPENROUTER_API_KEY is required (set it in .env)")
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	pcfg, err := pipelineConfig(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	pcfg.InputMP4 = absIn
	pcfg.Logger = zlog.Logger

	if err := pcfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := commandContext()
	defer cancel()

	dir, err := pipeline.Run(ctx, pcfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), dir)
	return nil
}

func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// loadConfig reads the config file and environment, then applies the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, bool, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, false, fmt.Errorf("config: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, false, err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	return cfg, verbose, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	var err error
	set := func(name string, fn func() error) {
		if err == nil && fs.Changed(name) {
			err = fn()
		}
	}

	set("out", func() (e error) { cfg.Out, e = fs.GetString("out"); return })
	set("clips", func() (e error) { cfg.Clips, e = fs.GetInt("clips"); return })
	set("jobs", func() (e error) { cfg.Jobs, e = fs.GetInt("jobs"); return })
	set("skip-failed", func() (e error) { cfg.SkipFailed, e = fs.GetBool("skip-failed"); return })
	set("aspect", func() (e error) { cfg.Reframe.Aspect, e = fs.GetString("aspect"); return })
	set("detector", func() (e error) { cfg.Reframe.Detector, e = fs.GetString("detector"); return })
	set("cascade", func() (e error) { cfg.Reframe.Cascade, e = fs.GetString("cascade"); return })
	set("smooth", func() (e error) { cfg.Reframe.SmoothSeconds, e = fs.GetFloat64("smooth"); return })
	set("stride", func() (e error) { cfg.Reframe.Stride, e = fs.GetInt("stride"); return })
	set("no-reframe", func() error {
		off, e := fs.GetBool("no-reframe")
		cfg.Reframe.Enabled = !off
		return e
	})
	set("no-subs", func() error {
		off, e := fs.GetBool("no-subs")
		cfg.Subtitles = !off
		return e
	})
	set("max", func() error {
		sec, e := fs.GetInt("max")
		cfg.MaxClipSec = float64(sec)
		return e
	})
	set("min", func() error {
		sec, e := fs.GetInt("min")
		cfg.MinClipSec = float64(sec)
		return e
	})
	return err
}

func pipelineConfig(cfg *config.Config) (pipeline.Config, error) {
	aspect, err := motion.ParseAspect(cfg.Reframe.Aspect)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		OutDir:        cfg.Out,
		CacheDir:      cfg.CacheDir,
		ClipsN:        cfg.Clips,
		MinClip:       seconds(cfg.MinClipSec),
		MaxClip:       seconds(cfg.MaxClipSec),
		Jobs:          cfg.Jobs,
		BurnSubtitles: cfg.Subtitles,
		SkipFailed:    cfg.SkipFailed,

		Reframe:       cfg.Reframe.Enabled,
		Aspect:        aspect,
		Detector:      cfg.Reframe.Detector,
		Cascade:       cfg.Reframe.Cascade,
		Stride:        cfg.Reframe.Stride,
		SmoothSeconds: cfg.Reframe.SmoothSeconds,

		FFmpegPath:  cfg.FFmpeg.FFmpeg,
		FFprobePath: cfg.FFmpeg.FFprobe,

		WhisperBin:      cfg.Whisper.Bin,
		WhisperModel:    cfg.Whisper.Model,
		WhisperLanguage: cfg.Whisper.Language,
		WhisperThreads:  cfg.Whisper.Threads,

		OpenRouterAPIKey:       cfg.OpenRouter.APIKey,
		OpenRouterModel:        cfg.OpenRouter.Model,
		OpenRouterBaseURL:      cfg.OpenRouter.BaseURL,
		OpenRouterAllowedHosts: cfg.OpenRouter.AllowedHosts,
	}, nil
}

func seconds(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
