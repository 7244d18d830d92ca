package openrouter

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type rawMoment struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Headline string  `json:"headline"`
	Reason   string  `json:"reason"`
}

// parseMoments accepts {"moments":[...]} as well as a bare array, optionally
// wrapped in a code fence or surrounded by prose.
func parseMoments(content string) ([]rawMoment, error) {
	clean, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(clean, "[") {
		var arr []rawMoment
		if err := json.Unmarshal([]byte(clean), &arr); err != nil {
			return nil, fmt.Errorf("openrouter: decode moments: %w", err)
		}
		return arr, nil
	}
	var obj struct {
		Moments []rawMoment `json:"moments"`
	}
	if err := json.Unmarshal([]byte(clean), &obj); err != nil {
		return nil, fmt.Errorf("openrouter: decode moments: %w", err)
	}
	return obj.Moments, nil
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// array of {type,text} parts
		var b strings.Builder
		for _, it := range x {
			if m, ok := it.(map[string]any); ok {
				if t, ok := m["text"].(string); ok {
					b.WriteString(t)
				}
			}
		}
		if strings.TrimSpace(b.String()) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func extractJSON(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openrouter: empty content")
	}
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	obj, arr := strings.Index(t, "{"), strings.Index(t, "[")
	open, closer := "{", "}"
	if arr >= 0 && (obj < 0 || arr < obj) {
		open, closer = "[", "]"
	}
	start, end := strings.Index(t, open), strings.LastIndex(t, closer)
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}
	return "", fmt.Errorf("openrouter: could not locate JSON in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	if apiKey != "" {
		s = strings.ReplaceAll(s, apiKey, "[REDACTED]")
	}
	s = bearerTokenRE.ReplaceAllString(s, "Bearer [REDACTED]")
	s = authHeaderRE.ReplaceAllString(s, "${1}[REDACTED]")
	return apiKeyFieldRE.ReplaceAllString(s, "${1}[REDACTED]")
}
