package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/reelcut/internal/types"
)

// wordsPerLine keeps captions short enough for a 9:16 frame.
const wordsPerLine = 3

// wrapAbove is the caption length above which segment text is broken into lines.
const wrapAbove = 20

// RenderVerticalASS builds an ASS script for the clip [start, end) of the
// transcript. Times are clip-local. Word timings produce karaoke captions;
// without them whole segments that fit inside the clip are shown.
func RenderVerticalASS(tr types.Transcript, start, end time.Duration) string {
	var b strings.Builder
	b.WriteString(header)
	if words := clipWords(tr, start, end); len(words) > 0 {
		for _, ev := range karaokeEvents(words) {
			writeEvent(&b, ev)
		}
		return b.String()
	}
	for _, ev := range segmentEvents(tr, start, end) {
		writeEvent(&b, ev)
	}
	return b.String()
}

type event struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type word struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

func clipWords(tr types.Transcript, start, end time.Duration) []word {
	var out []word
	for _, s := range tr.Segments {
		for _, w := range s.Words {
			ws, we := seconds(w.Start), seconds(w.End)
			text := strings.TrimSpace(w.Word)
			if text == "" || we <= start || ws >= end {
				continue
			}
			ws, we = max(ws, start), min(we, end)
			out = append(out, word{Start: ws - start, End: we - start, Text: caption(text)})
		}
	}
	return out
}

func karaokeEvents(words []word) []event {
	var out []event
	for i := 0; i < len(words); i += wordsPerLine {
		group := words[i:min(i+wordsPerLine, len(words))]
		var text strings.Builder
		for j, w := range group {
			cs := int((w.End - w.Start) / (10 * time.Millisecond))
			if cs < 1 {
				cs = 1
			}
			if j > 0 {
				text.WriteByte(' ')
			}
			fmt.Fprintf(&text, "{\\k%d}%s", cs, w.Text)
		}
		out = append(out, event{Start: group[0].Start, End: group[len(group)-1].End, Text: text.String()})
	}
	return out
}

func segmentEvents(tr types.Transcript, start, end time.Duration) []event {
	var out []event
	for _, s := range tr.Segments {
		ss, se := seconds(s.Start), seconds(s.End)
		if ss < start || se > end {
			continue
		}
		text := caption(s.Text)
		if text == "" {
			continue
		}
		out = append(out, event{Start: ss - start, End: se - start, Text: wrap(text)})
	}
	return out
}

// wrap splits long captions into lines of wordsPerLine words.
func wrap(text string) string {
	if len([]rune(text)) <= wrapAbove {
		return text
	}
	f := strings.Fields(text)
	var lines []string
	for i := 0; i < len(f); i += wordsPerLine {
		lines = append(lines, strings.Join(f[i:min(i+wordsPerLine, len(f))], " "))
	}
	return strings.Join(lines, `\N`)
}

func writeEvent(b *strings.Builder, ev event) {
	fmt.Fprintf(b, "Dialogue: 0,%s,%s,Vertical,,0,0,0,,%s\n", assTime(ev.Start), assTime(ev.End), ev.Text)
}

const header = `[Script Info]
ScriptType: v4.00+
PlayResX: 1080
PlayResY: 1920
WrapStyle: 2
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Vertical,Arial,72,&H00FFFFFF,&H0000D7FF,&H00000000,&H64000000,-1,0,0,0,100,100,0,0,1,5,2,2,60,60,320,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	cs := int64(d / (10 * time.Millisecond))
	h := cs / 360000
	m := cs / 6000 % 60
	s := cs / 100 % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs%100)
}

// caption uppercases text and strips characters that ASS treats as markup.
func caption(s string) string {
	r := strings.NewReplacer(`\`, "", "{", "(", "}", ")", "\n", " ")
	return strings.ToUpper(strings.TrimSpace(r.Replace(s)))
}

func seconds(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
