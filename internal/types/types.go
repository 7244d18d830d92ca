package types

import "time"

type Transcript struct {
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// Candidate is a heuristic pre-pick used to hint the selector and as offline fallback.
type Candidate struct {
	Start time.Duration
	End   time.Duration
	Text  string

	InfoScore float64
	HookScore float64
}

// Moment is a time range of the source chosen for a short clip.
type Moment struct {
	Start    time.Duration
	End      time.Duration
	Headline string
	Reason   string
}

type Manifest struct {
	Input string         `json:"input"`
	Clips []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	ID         string  `json:"id"`
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	Headline   string  `json:"headline"`
	Reason     string  `json:"reason,omitempty"`
	File       string  `json:"file,omitempty"`
	Subtitles  string  `json:"subtitles,omitempty"`
	Reframed   bool    `json:"reframed"`
	CropWidth  int     `json:"crop_width,omitempty"`
	CropHeight int     `json:"crop_height,omitempty"`
	Frames     int     `json:"frames,omitempty"`
	Error      string  `json:"error,omitempty"`
}
