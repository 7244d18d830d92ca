package motion

import "math"

// WindowForFPS returns the boxcar length for a smoothing span of the given
// seconds at fps, clamped to [1, n]. A non-positive span means one second.
func WindowForFPS(fps, seconds float64, n int) int {
	if seconds <= 0 {
		seconds = 1
	}
	w := int(math.Round(fps * seconds))
	if n > 0 && w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Smooth applies a centered moving average of the given window to each channel
// independently. The window covers [i-window/2, i+(window-1)/2]; near the ends
// only in-range samples are averaged, so the output has the input's length.
func Smooth(path Path, window int) Path {
	n := len(path)
	out := make(Path, n)
	if n == 0 {
		return out
	}
	if window > n {
		window = n
	}
	if window <= 1 {
		copy(out, path)
		return out
	}

	xs := prefixSums(path, func(d SubjectDescriptor) float64 { return d.CenterX })
	ys := prefixSums(path, func(d SubjectDescriptor) float64 { return d.CenterY })
	ss := prefixSums(path, func(d SubjectDescriptor) float64 { return d.Scale })

	back := window / 2
	fwd := (window - 1) / 2
	for i := 0; i < n; i++ {
		lo := max(0, i-back)
		hi := min(n-1, i+fwd)
		cnt := float64(hi - lo + 1)
		out[i] = SubjectDescriptor{
			CenterX: (xs[hi+1] - xs[lo]) / cnt,
			CenterY: (ys[hi+1] - ys[lo]) / cnt,
			Scale:   (ss[hi+1] - ss[lo]) / cnt,
		}
	}
	return out
}

// prefixSums returns p with p[k] = sum of the first k channel values.
func prefixSums(path Path, ch func(SubjectDescriptor) float64) []float64 {
	p := make([]float64, len(path)+1)
	for i, d := range path {
		p[i+1] = p[i] + ch(d)
	}
	return p
}
