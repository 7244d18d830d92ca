package detect

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/ports/adapters/center"
	"github.com/forPelevin/reelcut/internal/ports/adapters/pigo"
)

const (
	KindPigo   = "pigo"
	KindCenter = "center"
)

type Options struct {
	CascadePath string
	Logger      zerolog.Logger
}

// New builds a fresh detector of the given kind. Detectors keep per-clip
// scratch state, so every clip run gets its own.
func New(kind string, opts Options) (ports.SubjectDetector, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindPigo:
		d, err := pigo.New(pigo.Options{CascadePath: opts.CascadePath, Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindCenter:
		return center.Detector{}, nil
	default:
		return nil, fmt.Errorf("unknown detector %q (want %s or %s)", kind, KindPigo, KindCenter)
	}
}

// Kinds lists the accepted detector names.
func Kinds() []string {
	return []string{KindPigo, KindCenter}
}
