package whispercpp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/types"
)

type Options struct {
	Bin   string
	Model string
	// Language is passed as -l; empty lets whisper.cpp decide.
	Language string
	Threads  int
	Logger   zerolog.Logger
}

type Adapter struct {
	opts Options
	log  zerolog.Logger
}

func New(opts Options) *Adapter {
	if opts.Bin == "" {
		opts.Bin = "whisper-cli"
	}
	return &Adapter{opts: opts, log: logging.Component(opts.Logger, "whisper")}
}

// Transcribe runs whisper.cpp on a 16 kHz mono wav. A transcript already in
// cacheDir is reused.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error) {
	outPrefix := filepath.Join(cacheDir, "whisper")
	jsonPath := outPrefix + ".json"

	if tr, err := readTranscript(jsonPath); err == nil {
		a.log.Info().Str("path", jsonPath).Int("segments", len(tr.Segments)).Msg("reusing cached transcript")
		return tr, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		a.log.Warn().Err(err).Msg("cached transcript unreadable, transcribing again")
	}

	args := a.args(wavPath, outPrefix)
	a.log.Debug().Strs("args", args).Msg("executing whisper.cpp")
	cmd := exec.CommandContext(ctx, a.opts.Bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	tr, err := readTranscript(jsonPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read whisper output: %w", err)
	}
	return tr, nil
}

func (a *Adapter) args(wavPath, outPrefix string) []string {
	args := []string{
		"-m", a.opts.Model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
		"-owts",
	}
	if a.opts.Language != "" {
		args = append(args, "-l", a.opts.Language)
	}
	if a.opts.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(a.opts.Threads))
	}
	return args
}

func readTranscript(path string) (types.Transcript, error) {
	jb, err := os.ReadFile(path)
	if err != nil {
		return types.Transcript{}, err
	}
	var tr types.Transcript
	if err := json.Unmarshal(jb, &tr); err != nil {
		return types.Transcript{}, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range tr.Segments {
		seg := &tr.Segments[i]
		seg.Text = strings.TrimSpace(seg.Text)
		for j := range seg.Words {
			seg.Words[j].Word = strings.TrimSpace(seg.Words[j].Word)
		}
	}
	return tr, nil
}
