package openrouter

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/reelcut/internal/types"
)

// snapWindow is how far back an end time may move to land on a sentence end.
const snapWindow = 3 * time.Second

// normalizeMoments fits model answers into the transcript and the duration
// bounds, drops overlaps in answer order, and returns at most n sorted by start.
func normalizeMoments(raw []rawMoment, tr types.Transcript, n int, minClip, maxClip time.Duration) []types.Moment {
	total := transcriptEnd(tr)
	ends := sentenceEnds(tr)

	var out []types.Moment
	for _, m := range raw {
		if len(out) == n {
			break
		}
		st, en, ok := fitRange(m.Start, m.End, total, minClip, maxClip)
		if !ok {
			continue
		}
		en = snapEnd(st, en, minClip, ends)
		if overlaps(out, st, en) {
			continue
		}
		headline := strings.TrimSpace(m.Headline)
		if headline == "" {
			headline = "Highlight"
		}
		out = append(out, types.Moment{Start: st, End: en, Headline: headline, Reason: strings.TrimSpace(m.Reason)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func fitRange(startSec, endSec float64, total, minClip, maxClip time.Duration) (time.Duration, time.Duration, bool) {
	if math.IsNaN(startSec) || math.IsNaN(endSec) || endSec <= startSec {
		return 0, 0, false
	}
	st, en := seconds(math.Max(startSec, 0)), seconds(endSec)
	if total > 0 && en > total {
		en = total
	}
	if maxClip > 0 && en-st > maxClip {
		en = st + maxClip
	}
	if en-st < minClip {
		en = st + minClip
		if total > 0 && en > total {
			en = total
			st = max(en-minClip, 0)
		}
	}
	if en <= st || en-st < minClip {
		return 0, 0, false
	}
	return st, en, true
}

// snapEnd moves end back to the latest sentence end inside snapWindow that
// still keeps the moment at least minClip long.
func snapEnd(st, en, minClip time.Duration, ends []time.Duration) time.Duration {
	best := en
	for _, e := range ends {
		if e > en || e < en-snapWindow || e-st < minClip {
			continue
		}
		if best == en || e > best {
			best = e
		}
	}
	return best
}

func sentenceEnds(tr types.Transcript) []time.Duration {
	var out []time.Duration
	for _, s := range tr.Segments {
		if len(s.Words) == 0 {
			if endsSentence(s.Text) {
				out = append(out, seconds(s.End))
			}
			continue
		}
		for _, w := range s.Words {
			if endsSentence(w.Word) {
				out = append(out, seconds(w.End))
			}
		}
	}
	return out
}

func endsSentence(s string) bool {
	s = strings.TrimRight(strings.TrimSpace(s), `"')]`)
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

func transcriptEnd(tr types.Transcript) time.Duration {
	var end time.Duration
	for _, s := range tr.Segments {
		end = max(end, seconds(s.End))
	}
	return end
}

func overlaps(existing []types.Moment, st, en time.Duration) bool {
	for _, m := range existing {
		if st < m.End && m.Start < en {
			return true
		}
	}
	return false
}

func seconds(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
