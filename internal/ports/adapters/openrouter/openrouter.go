package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/reelcut/internal/domain/highlights"
	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/types"
)

const (
	requestTimeout = 90 * time.Second
	defaultModel   = "google/gemini-2.0-flash-001"
	// promptSegments bounds how much of the transcript is sent.
	promptSegments = 100
	promptHints    = 10
)

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
	Logger  zerolog.Logger
}

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func New(opts Options) *Adapter {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Adapter{
		key:     opts.APIKey,
		model:   opts.Model,
		baseURL: normalizeBaseURL(opts.BaseURL),
		client:  opts.Client,
		log:     logging.Component(opts.Logger, "openrouter"),
	}
}

// Select asks the model for the n most engaging moments. Transport and
// status errors are returned; an unusable answer falls back to transcript
// heuristics.
func (a *Adapter) Select(
	ctx context.Context,
	tr types.Transcript,
	clipsN int,
	minClip time.Duration,
	maxClip time.Duration,
) ([]types.Moment, error) {
	if clipsN <= 0 || len(tr.Segments) == 0 {
		return nil, nil
	}

	hints := highlights.Best(highlights.BuildCandidates(tr, minClip, maxClip), promptHints, 0)
	prompt, err := buildPrompt(tr, hints, clipsN, minClip, maxClip)
	if err != nil {
		return nil, err
	}

	content, err := a.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := parseMoments(content)
	if err != nil {
		a.log.Warn().Err(err).Msg("unusable model answer, using transcript heuristics")
		return a.fallback(tr, clipsN, minClip, maxClip), nil
	}
	out := normalizeMoments(raw, tr, clipsN, minClip, maxClip)
	if len(out) == 0 {
		a.log.Warn().Int("returned", len(raw)).Msg("no model moment fits the duration bounds, using transcript heuristics")
		return a.fallback(tr, clipsN, minClip, maxClip), nil
	}
	a.log.Info().Int("moments", len(out)).Str("model", a.model).Msg("moments selected")
	return out, nil
}

func (a *Adapter) fallback(tr types.Transcript, n int, minClip, maxClip time.Duration) []types.Moment {
	cands := highlights.BuildCandidates(tr, minClip, maxClip)
	return highlights.Moments(highlights.Best(cands, n, 2*time.Second))
}

func (a *Adapter) complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "reelcut_moments",
				"strict": true,
				"schema": momentsSchema(),
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.baseURL+"/api/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	a.log.Debug().Str("model", a.model).Int("prompt_bytes", len(prompt)).Msg("requesting moments")
	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return "", fmt.Errorf("openrouter request: %s", redactSecrets(err.Error(), a.key))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if readErr != nil {
			return "", fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decode openrouter response: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", nil
	}
	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return "", nil
	}
	return content, nil
}

func momentsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"moments": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"start":    map[string]any{"type": "number"},
						"end":      map[string]any{"type": "number"},
						"headline": map[string]any{"type": "string"},
						"reason":   map[string]any{"type": "string"},
					},
					"required":             []string{"start", "end", "headline", "reason"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"moments"},
		"additionalProperties": false,
	}
}

type promptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type promptHint struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`
}

func buildPrompt(tr types.Transcript, hints []types.Candidate, n int, minClip, maxClip time.Duration) (string, error) {
	segs := tr.Segments
	if len(segs) > promptSegments {
		segs = segs[:promptSegments]
	}
	ps := make([]promptSegment, 0, len(segs))
	for _, s := range segs {
		ps = append(ps, promptSegment{Start: s.Start, End: s.End, Text: s.Text})
	}
	ph := make([]promptHint, 0, len(hints))
	for _, h := range hints {
		ph = append(ph, promptHint{Start: h.Start.Seconds(), End: h.End.Seconds(), Score: h.InfoScore + h.HookScore})
	}

	sb, err := json.Marshal(ps)
	if err != nil {
		return "", fmt.Errorf("marshal segments: %w", err)
	}
	hb, err := json.Marshal(ph)
	if err != nil {
		return "", fmt.Errorf("marshal hints: %w", err)
	}

	return fmt.Sprintf(
		"Identify the top %d most engaging, high-impact moments of this video for vertical short-form platforms. "+
			"Each moment must last between %.0f and %.0f seconds, start on a clean sentence, end on a complete thought, "+
			"and must not overlap another moment. Give each a catchy hook headline and a one-line reason. "+
			"Return only JSON matching the schema, times in seconds from the start of the video.\n\n"+
			"Segment timestamps:\n%s\n\nHeuristic hints (optional, may be ignored):\n%s",
		n, minClip.Seconds(), maxClip.Seconds(), sb, hb,
	), nil
}
