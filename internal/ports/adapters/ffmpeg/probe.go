package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/reelcut/internal/ports"
)

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	RFrameRate   string            `json:"r_frame_rate"`
	Duration     string            `json:"duration"`
	Tags         map[string]string `json:"tags"`
	SideDataList []struct {
		Rotation float64 `json:"rotation"`
	} `json:"side_data_list"`
}

func (a *Adapter) Probe(ctx context.Context, inMP4 string) (ports.StreamInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		inMP4,
	)
	stderr := newTailBuffer(4 << 10)
	cmd.Stderr = stderr
	b, err := cmd.Output()
	if err != nil {
		return ports.StreamInfo{}, fmt.Errorf("ffprobe %s: %w\n%s", inMP4, err, stderr)
	}
	info, err := parseProbe(b)
	if err != nil {
		return ports.StreamInfo{}, fmt.Errorf("ffprobe %s: %w", inMP4, err)
	}
	return info, nil
}

func parseProbe(b []byte) (ports.StreamInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return ports.StreamInfo{}, fmt.Errorf("parse json: %w", err)
	}

	var info ports.StreamInfo
	var video *probeStream
	for i := range out.Streams {
		s := &out.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if video == nil {
		return ports.StreamInfo{}, errors.New("no video stream")
	}

	info.Width, info.Height = video.Width, video.Height
	// ffmpeg autorotates on decode, so report the displayed size.
	if r := rotation(*video); r == 90 || r == 270 {
		info.Width, info.Height = info.Height, info.Width
	}

	for _, rate := range []string{video.AvgFrameRate, video.RFrameRate} {
		if fps, ok := parseRate(rate); ok {
			info.FPS = fps
			info.FrameRate = rate
			break
		}
	}

	dur := out.Format.Duration
	if dur == "" {
		dur = video.Duration
	}
	if sec, err := strconv.ParseFloat(strings.TrimSpace(dur), 64); err == nil && sec > 0 {
		info.Duration = time.Duration(sec * float64(time.Second))
	}
	return info, nil
}

// parseRate parses "num/den" or a plain decimal. "0/0" is reported as not ok.
func parseRate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d := 1.0
	if found {
		d, err = strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, false
		}
	}
	fps := n / d
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return 0, false
	}
	return fps, true
}

func rotation(s probeStream) int {
	deg := 0.0
	if v, ok := s.Tags["rotate"]; ok {
		deg, _ = strconv.ParseFloat(v, 64)
	}
	for _, sd := range s.SideDataList {
		if sd.Rotation != 0 {
			deg = sd.Rotation
		}
	}
	r := int(math.Round(deg)) % 360
	if r < 0 {
		r += 360
	}
	return r
}
