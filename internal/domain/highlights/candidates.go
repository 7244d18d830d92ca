package highlights

import (
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/reelcut/internal/types"
)

// maxCandidates bounds the work on very long transcripts.
const maxCandidates = 1000

// BuildCandidates returns every run of contiguous segments whose span lies
// within [minClip, maxClip], scored with Score.
func BuildCandidates(tr types.Transcript, minClip, maxClip time.Duration) []types.Candidate {
	if minClip <= 0 {
		minClip = time.Second
	}
	if maxClip < minClip {
		return nil
	}

	segs := tr.Segments
	var out []types.Candidate
	for i := range segs {
		start := seconds(segs[i].Start)
		var text strings.Builder
		for j := i; j < len(segs); j++ {
			if t := strings.TrimSpace(segs[j].Text); t != "" {
				if text.Len() > 0 {
					text.WriteByte(' ')
				}
				text.WriteString(t)
			}
			end := seconds(segs[j].End)
			span := end - start
			if span > maxClip {
				break
			}
			if span < minClip || text.Len() == 0 {
				continue
			}
			info, hook := Score(text.String())
			out = append(out, types.Candidate{Start: start, End: end, Text: text.String(), InfoScore: info, HookScore: hook})
			if len(out) >= maxCandidates {
				return out
			}
		}
	}
	return out
}

// Best picks up to n non-overlapping candidates by combined score. Picked
// windows are kept at least minGap apart. The result is sorted by start.
func Best(cands []types.Candidate, n int, minGap time.Duration) []types.Candidate {
	if n <= 0 || len(cands) == 0 {
		return nil
	}
	ranked := append([]types.Candidate(nil), cands...)
	sort.SliceStable(ranked, func(i, j int) bool {
		ti, tj := total(ranked[i]), total(ranked[j])
		if ti != tj {
			return ti > tj
		}
		return ranked[i].Start < ranked[j].Start
	})

	var picked []types.Candidate
	for _, c := range ranked {
		if len(picked) == n {
			break
		}
		if overlapsAny(c, picked, minGap) {
			continue
		}
		picked = append(picked, c)
	}
	sort.Slice(picked, func(i, j int) bool { return picked[i].Start < picked[j].Start })
	return picked
}

// Moments turns candidates into clip moments with a headline taken from
// the opening words.
func Moments(cands []types.Candidate) []types.Moment {
	out := make([]types.Moment, 0, len(cands))
	for _, c := range cands {
		out = append(out, types.Moment{
			Start:    c.Start,
			End:      c.End,
			Headline: headline(c.Text, 6),
			Reason:   "transcript heuristics",
		})
	}
	return out
}

func total(c types.Candidate) float64 {
	return 0.6*c.HookScore + 0.4*c.InfoScore
}

func overlapsAny(c types.Candidate, picked []types.Candidate, gap time.Duration) bool {
	for _, p := range picked {
		if c.Start < p.End+gap && p.Start < c.End+gap {
			return true
		}
	}
	return false
}

func headline(text string, words int) string {
	f := strings.Fields(text)
	if len(f) > words {
		return strings.Join(f[:words], " ") + "..."
	}
	return strings.Join(f, " ")
}

func seconds(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
