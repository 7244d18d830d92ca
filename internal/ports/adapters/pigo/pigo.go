// Package pigo locates faces with the pigo pixel-intensity cascade and
// reports the most confident one as the frame's subject.
package pigo

import (
	"fmt"
	"image"
	"os"

	pigocore "github.com/esimov/pigo/core"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"github.com/forPelevin/reelcut/internal/domain/motion"
	"github.com/forPelevin/reelcut/internal/logging"
)

const (
	DefaultCascade    = ".cache/models/facefinder"
	DefaultMaxWidth   = 640
	DefaultMinQuality = 5.0
)

type Options struct {
	// CascadePath is the facefinder cascade file.
	CascadePath string
	// MaxWidth bounds the width frames are downscaled to before detection.
	MaxWidth int
	// MinQuality drops detections below this cascade score.
	MinQuality float32
	Logger     zerolog.Logger
}

// Detector is not safe for concurrent use; it reuses a scratch frame.
type Detector struct {
	classifier *pigocore.Pigo
	maxWidth   int
	minQ       float32
	log        zerolog.Logger
	scratch    *image.RGBA
	misses     int
}

func New(opts Options) (*Detector, error) {
	path := opts.CascadePath
	if path == "" {
		path = DefaultCascade
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cascade %s: %w", path, err)
	}
	return NewFromCascade(data, opts)
}

func NewFromCascade(cascade []byte, opts Options) (*Detector, error) {
	classifier, err := pigocore.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = DefaultMaxWidth
	}
	if opts.MinQuality <= 0 {
		opts.MinQuality = DefaultMinQuality
	}
	return &Detector{
		classifier: classifier,
		maxWidth:   opts.MaxWidth,
		minQ:       opts.MinQuality,
		log:        logging.Component(opts.Logger, "pigo"),
	}, nil
}

func (d *Detector) Detect(frame image.Image) motion.SubjectDescriptor {
	img := d.prepare(frame)
	b := img.Bounds()
	cols, rows := b.Dx(), b.Dy()
	if cols == 0 || rows == 0 {
		return motion.Default()
	}

	minDim := cols
	if rows < minDim {
		minDim = rows
	}
	params := pigocore.CascadeParams{
		MinSize:     max(20, minDim/12),
		MaxSize:     minDim,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigocore.ImageParams{
			Pixels: pigocore.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}
	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	desc, ok := best(dets, d.minQ, cols, rows)
	if !ok {
		d.misses++
		d.log.Debug().Int("candidates", len(dets)).Int("misses", d.misses).Msg("no face above threshold")
		return motion.Default()
	}
	return desc
}

// prepare returns an RGBA frame anchored at the origin, downscaled so its
// width does not exceed maxWidth.
func (d *Detector) prepare(frame image.Image) *image.RGBA {
	b := frame.Bounds()
	w, h := scaledSize(b.Dx(), b.Dy(), d.maxWidth)
	if rgba, ok := frame.(*image.RGBA); ok && b.Min == (image.Point{}) && w == b.Dx() {
		return rgba
	}
	if d.scratch == nil || d.scratch.Rect.Dx() != w || d.scratch.Rect.Dy() != h {
		d.scratch = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(d.scratch, d.scratch.Rect, frame, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(d.scratch, d.scratch.Rect, frame, b, draw.Src, nil)
	}
	return d.scratch
}

func scaledSize(w, h, maxWidth int) (int, int) {
	if w <= maxWidth || w == 0 {
		return w, h
	}
	sh := h * maxWidth / w
	if sh < 1 {
		sh = 1
	}
	return maxWidth, sh
}

// best picks the highest-scoring detection at or above minQ and converts it
// to frame-relative coordinates.
func best(dets []pigocore.Detection, minQ float32, cols, rows int) (motion.SubjectDescriptor, bool) {
	idx := -1
	for i, det := range dets {
		if det.Q < minQ {
			continue
		}
		if idx < 0 || det.Q > dets[idx].Q {
			idx = i
		}
	}
	if idx < 0 {
		return motion.SubjectDescriptor{}, false
	}
	det := dets[idx]
	return motion.SubjectDescriptor{
		CenterX: float64(det.Col) / float64(cols),
		CenterY: float64(det.Row) / float64(rows),
		Scale:   float64(det.Scale) / float64(rows),
	}.Clamp(), true
}
