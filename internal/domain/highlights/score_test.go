package highlights

import (
	"strings"
	"testing"
)

func TestScore_Table(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantInfo bool
		wantHook bool
	}{
		{"empty", "   ", false, false},
		{"figures", "We cut costs by 40% in 3 months.", true, false},
		{"teaching", "Here is how to do it, because the cache is cold.", true, false},
		{"hook", "Nobody tells you the biggest mistake!", false, true},
		{"lead", "Imagine waking up tomorrow", false, true},
		{"question", "Why does it break?", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, hook := Score(tt.text)
			if tt.wantInfo != (info > 0) {
				t.Fatalf("info=%v, wantInfo=%v", info, tt.wantInfo)
			}
			if tt.wantHook != (hook > 0) {
				t.Fatalf("hook=%v, wantHook=%v", hook, tt.wantHook)
			}
		})
	}
}

func TestScore_Bounded(t *testing.T) {
	text := strings.Repeat("Never! Why? 100% secret. ", 50)
	info, hook := Score(text)
	if info < 0 || info > 10 || hook < 0 || hook > 10 {
		t.Fatalf("scores out of range: info=%v hook=%v", info, hook)
	}
}
