package cli

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/forPelevin/reelcut/internal/reframe"
)

var stageLabels = map[string]string{
	reframe.StageSample: "Tracking",
	reframe.StageRender: "Rendering",
}

// progress shows one bar per reframe pass.
type progress struct {
	mu    sync.Mutex
	w     io.Writer
	stage string
	bar   *progressbar.ProgressBar
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

func (p *progress) Update(stage string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stage != p.stage || p.bar == nil {
		p.finishLocked()
		p.stage = stage
		p.bar = p.newBar(stage, total)
	}
	_ = p.bar.Set(done)
}

func (p *progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked()
}

func (p *progress) finishLocked() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

func (p *progress) newBar(stage string, total int) *progressbar.ProgressBar {
	label, ok := stageLabels[stage]
	if !ok {
		label = stage
	}
	n := total
	if n <= 0 {
		// unknown length: spinner
		n = -1
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(p.w, "\n") }),
	)
}
