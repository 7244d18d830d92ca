package motion

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultAspect is the vertical 9:16 target.
const DefaultAspect = 9.0 / 16.0

// pixelEpsilon absorbs float noise from smoothing before pixel truncation,
// so a subject sitting exactly on a pixel boundary does not flicker by one.
const pixelEpsilon = 1e-6

// CropWindow is a horizontal slice of the source frame in pixel coordinates.
// The window always spans the full source height.
type CropWindow struct {
	X1     int `json:"x1"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CropWidth is the window width for a source of height srcH at the target aspect (w/h).
func CropWidth(srcH int, aspect float64) int {
	return int(math.Round(float64(srcH) * aspect))
}

// Crop derives the crop window centered on d.CenterX and pinned to the frame
// edges. CenterY and Scale are ignored: the virtual camera pans, it never tilts or zooms.
func Crop(d SubjectDescriptor, srcW, srcH int, aspect float64) CropWindow {
	width := CropWidth(srcH, aspect)
	if width > srcW {
		width = srcW
	}
	if width < 1 {
		width = 1
	}

	px := clampUnit(d.CenterX, 0.5) * float64(srcW)
	x1 := px - float64(width)/2
	x1 = math.Max(0, math.Min(x1, float64(srcW-width)))

	return CropWindow{
		X1:     int(math.Floor(x1 + pixelEpsilon)),
		Width:  width,
		Height: srcH,
	}
}

// FrameIndex maps a presentation time to an index into a path of length n.
func FrameIndex(t, fps float64, n int) int {
	if n <= 0 {
		return 0
	}
	idx := int(math.Floor(t*fps + 1e-9))
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

// ParseAspect accepts "W:H" (e.g. "9:16") or a decimal width/height ratio.
func ParseAspect(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultAspect, nil
	}
	if w, h, ok := strings.Cut(s, ":"); ok {
		wf, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return 0, fmt.Errorf("aspect %q: %w", s, err)
		}
		hf, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err != nil {
			return 0, fmt.Errorf("aspect %q: %w", s, err)
		}
		if wf <= 0 || hf <= 0 {
			return 0, fmt.Errorf("aspect %q: sides must be > 0", s)
		}
		return wf / hf, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("aspect %q: %w", s, err)
	}
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("aspect %q: must be > 0", s)
	}
	return v, nil
}
