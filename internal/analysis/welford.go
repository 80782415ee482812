package analysis

import "math"

// welfordState accumulates mean and variance incrementally so buckets never
// need to retain their raw samples.
type welfordState struct {
	count int
	mean  float64
	m2    float64
}

func (w *welfordState) update(x float64) {
	w.count++
	delta := x - w.mean
	w.mean += delta / float64(w.count)
	delta2 := x - w.mean
	w.m2 += delta * delta2
}

// stdDev returns the sample standard deviation, 0 while count < 2.
func (w *welfordState) stdDev() float64 {
	if w.count < 2 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.count-1))
}
