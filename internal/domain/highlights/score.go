package highlights

import (
	"regexp"
	"strings"
)

var (
	reFigure   = regexp.MustCompile(`\b\d+(?:[\.,]\d+)?(?:%|x|k|m)?\b`)
	reTeach    = regexp.MustCompile(`(?i)\b(how\s+to|step\s+\d+|the\s+trick|the\s+reason|because|that's\s+why)\b`)
	reHookWord = regexp.MustCompile(`(?i)\b(secret|mistake|never|nobody|crazy|insane|wrong|truth|actually|biggest|worst|best)\b`)
	reHookLead = regexp.MustCompile(`(?i)^(so|look|listen|here's|imagine|what\s+if|did\s+you\s+know)\b`)
	reYou      = regexp.MustCompile(`(?i)\byou(r|'re)?\b`)
)

// Score rates a transcript span for short-form use. info favours concrete,
// explanatory content; hook favours lines that grab attention. Both are in [0,10].
func Score(text string) (info, hook float64) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, 0
	}

	info = 0.5*float64(len(reFigure.FindAllStringIndex(t, -1))) +
		1.0*float64(len(reTeach.FindAllStringIndex(t, -1)))

	hook = 0.8*float64(len(reHookWord.FindAllStringIndex(t, -1))) +
		0.6*float64(strings.Count(t, "?")) +
		0.3*float64(strings.Count(t, "!")) +
		0.15*float64(len(reYou.FindAllStringIndex(t, -1)))
	if reHookLead.MatchString(t) {
		hook += 1.0
	}

	// Long rambling windows dilute both scores.
	words := len(strings.Fields(t))
	if words > 120 {
		penalty := float64(words-120) * 0.01
		info -= penalty
		hook -= penalty
	}
	return clamp(info, 0, 10), clamp(hook, 0, 10)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
