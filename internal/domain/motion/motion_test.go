package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCrop_PinsToEdges(t *testing.T) {
	tests := []struct {
		name   string
		cx     float64
		wantX1 int
	}{
		{name: "left edge", cx: 0.0, wantX1: 0},
		{name: "near left", cx: 0.05, wantX1: 0},
		{name: "center", cx: 0.5, wantX1: 656},
		{name: "near right", cx: 0.95, wantX1: 1312},
		{name: "right edge", cx: 1.0, wantX1: 1312},
		{name: "out of range", cx: 1.7, wantX1: 1312},
		{name: "nan", cx: math.NaN(), wantX1: 656},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Crop(SubjectDescriptor{CenterX: tt.cx, CenterY: 0.5, Scale: 1}, 1920, 1080, DefaultAspect)
			assert.Equal(t, 608, w.Width)
			assert.Equal(t, 1080, w.Height)
			assert.Equal(t, tt.wantX1, w.X1)
		})
	}
}

func TestCrop_IgnoresVerticalAndScale(t *testing.T) {
	a := Crop(SubjectDescriptor{CenterX: 0.3, CenterY: 0.1, Scale: 0.2}, 1920, 1080, DefaultAspect)
	b := Crop(SubjectDescriptor{CenterX: 0.3, CenterY: 0.9, Scale: 1.0}, 1920, 1080, DefaultAspect)
	assert.Equal(t, a, b)
}

func TestCrop_SourceNarrowerThanTarget(t *testing.T) {
	w := Crop(Default(), 400, 1080, DefaultAspect)
	assert.Equal(t, CropWindow{X1: 0, Width: 400, Height: 1080}, w)
}

func TestCrop_NeverLeavesFrame(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		srcH := rapid.IntRange(16, 2160).Draw(t, "srcH")
		srcW := rapid.IntRange(srcH, srcH*4).Draw(t, "srcW")
		cx := rapid.Float64Range(-0.5, 1.5).Draw(t, "cx")
		w := Crop(SubjectDescriptor{CenterX: cx}, srcW, srcH, DefaultAspect)
		if w.X1 < 0 || w.X1+w.Width > srcW {
			t.Fatalf("window %+v outside source width %d", w, srcW)
		}
		if w.Height != srcH {
			t.Fatalf("height %d, want %d", w.Height, srcH)
		}
	})
}

func TestSmooth_PreservesLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 400).Draw(t, "n")
		window := rapid.IntRange(-3, 500).Draw(t, "window")
		path := make(Path, n)
		for i := range path {
			path[i] = SubjectDescriptor{
				CenterX: rapid.Float64Range(0, 1).Draw(t, "x"),
				CenterY: rapid.Float64Range(0, 1).Draw(t, "y"),
				Scale:   rapid.Float64Range(0, 1).Draw(t, "s"),
			}
		}
		out := Smooth(path, window)
		if len(out) != n {
			t.Fatalf("len %d, want %d", len(out), n)
		}
		for i, d := range out {
			if math.IsNaN(d.CenterX) || math.IsNaN(d.CenterY) || math.IsNaN(d.Scale) {
				t.Fatalf("NaN at %d", i)
			}
		}
	})
}

func TestSmooth_ConstantIsFixedPoint(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 300).Draw(t, "n")
		window := rapid.IntRange(1, 90).Draw(t, "window")
		c := SubjectDescriptor{
			CenterX: rapid.Float64Range(0, 1).Draw(t, "x"),
			CenterY: rapid.Float64Range(0, 1).Draw(t, "y"),
			Scale:   rapid.Float64Range(0, 1).Draw(t, "s"),
		}
		path := make(Path, n)
		for i := range path {
			path[i] = c
		}
		for i, d := range Smooth(path, window) {
			if math.Abs(d.CenterX-c.CenterX) > 1e-9 || math.Abs(d.CenterY-c.CenterY) > 1e-9 || math.Abs(d.Scale-c.Scale) > 1e-9 {
				t.Fatalf("sample %d = %+v, want %+v", i, d, c)
			}
		}
	})
}

func TestSmooth_CenteredWindow(t *testing.T) {
	path := Path{{CenterX: 0}, {CenterX: 3}, {CenterX: 6}, {CenterX: 9}, {CenterX: 12}}
	out := Smooth(path, 3)
	want := []float64{1.5, 3, 6, 9, 10.5}
	require.Len(t, out, len(want))
	for i := range want {
		assert.InDelta(t, want[i], out[i].CenterX, 1e-9, "index %d", i)
	}
}

func TestSmooth_EvenWindowLeansBack(t *testing.T) {
	path := Path{{Scale: 0}, {Scale: 4}, {Scale: 8}, {Scale: 12}}
	// window 2 averages [i-1, i]
	out := Smooth(path, 2)
	want := []float64{0, 2, 6, 10}
	for i := range want {
		assert.InDelta(t, want[i], out[i].Scale, 1e-9, "index %d", i)
	}
}

func TestSmooth_DoesNotAliasInput(t *testing.T) {
	path := Path{Default(), Default()}
	out := Smooth(path, 1)
	out[0].CenterX = 0
	assert.Equal(t, 0.5, path[0].CenterX)
}

func TestWindowForFPS(t *testing.T) {
	assert.Equal(t, 30, WindowForFPS(30, 1, 300))
	assert.Equal(t, 30, WindowForFPS(29.97, 0, 300))
	assert.Equal(t, 10, WindowForFPS(30, 1, 10))
	assert.Equal(t, 1, WindowForFPS(30, 1, 1))
	assert.Equal(t, 1, WindowForFPS(0, 1, 100))
	assert.Equal(t, 15, WindowForFPS(30, 0.5, 100))
}

func TestFrameIndex(t *testing.T) {
	assert.Equal(t, 0, FrameIndex(0, 30, 10))
	assert.Equal(t, 3, FrameIndex(0.1, 30, 10))
	assert.Equal(t, 9, FrameIndex(5, 30, 10))
	assert.Equal(t, 0, FrameIndex(-1, 30, 10))
	assert.Equal(t, 0, FrameIndex(2, 30, 1))
	// k/fps*fps must land on k even when the division is inexact
	for k := 0; k < 1000; k++ {
		fps := 30000.0 / 1001.0
		require.Equal(t, k, FrameIndex(float64(k)/fps, fps, 1000))
	}
}

func TestParseAspect(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "", want: DefaultAspect},
		{in: "9:16", want: 0.5625},
		{in: " 4 : 5 ", want: 0.8},
		{in: "0.5", want: 0.5},
		{in: "0:16", wantErr: true},
		{in: "a:b", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "wide", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAspect(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestDescriptorClamp(t *testing.T) {
	d := SubjectDescriptor{CenterX: -0.2, CenterY: math.NaN(), Scale: 3}.Clamp()
	assert.Equal(t, SubjectDescriptor{CenterX: 0, CenterY: 0.5, Scale: 1}, d)
	assert.Equal(t, Path{Default()}, DefaultPath())
}
