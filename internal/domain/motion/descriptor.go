package motion

import "math"

// SubjectDescriptor is the normalized position and size of the tracked subject
// within one frame. All channels are in [0,1].
type SubjectDescriptor struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Scale   float64 `json:"scale"`
}

// Default is the descriptor used when no subject is found: frame center, full scale.
func Default() SubjectDescriptor {
	return SubjectDescriptor{CenterX: 0.5, CenterY: 0.5, Scale: 1.0}
}

// Clamp forces every channel into [0,1]. NaN channels fall back to the default value.
func (d SubjectDescriptor) Clamp() SubjectDescriptor {
	def := Default()
	return SubjectDescriptor{
		CenterX: clampUnit(d.CenterX, def.CenterX),
		CenterY: clampUnit(d.CenterY, def.CenterY),
		Scale:   clampUnit(d.Scale, def.Scale),
	}
}

// Path holds one descriptor per decoded source frame, indexed by frame number.
type Path []SubjectDescriptor

// DefaultPath is the path of a clip without decodable frames.
func DefaultPath() Path {
	return Path{Default()}
}

func clampUnit(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
