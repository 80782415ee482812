package analysis

import (
	"math"
	"testing"
)

func TestTTestPValueDegenerateCases(t *testing.T) {
	if got := TTestPValue(0.5, 0.1, 1); got != 1 {
		t.Fatalf("n=1 should give p=1, got %v", got)
	}
	if got := TTestPValue(0, 0, 10); got != 1 {
		t.Fatalf("zero mean zero spread should give p=1, got %v", got)
	}
	if got := TTestPValue(0.5, 0, 10); got != 0 {
		t.Fatalf("nonzero mean zero spread should give p=0, got %v", got)
	}
}

func TestTTestPValueStrongSignal(t *testing.T) {
	strong := TTestPValue(0.05, 0.01, 30)
	weak := TTestPValue(0.001, 0.05, 30)
	if strong >= 0.001 {
		t.Fatalf("expected tiny p for strong signal, got %v", strong)
	}
	if weak <= 0.5 {
		t.Fatalf("expected large p for weak signal, got %v", weak)
	}
	if strong >= weak {
		t.Fatalf("stronger signal must have smaller p")
	}
}

func TestTTestPValueSymmetric(t *testing.T) {
	up := TTestPValue(0.02, 0.04, 15)
	down := TTestPValue(-0.02, 0.04, 15)
	if math.Abs(up-down) > 1e-12 {
		t.Fatalf("two-sided p must be symmetric in sign: %v vs %v", up, down)
	}
}

func TestTTestPValueKnownValue(t *testing.T) {
	// t = 2.0 with df = 9 has a two-sided p of roughly 0.0766.
	p := TTestPValue(0.2, 0.1*math.Sqrt(10), 10)
	if math.Abs(p-0.0766) > 0.002 {
		t.Fatalf("unexpected p for t=2 df=9: %v", p)
	}
}

func TestWelfordMatchesDirectComputation(t *testing.T) {
	xs := []float64{0.01, -0.02, 0.03, 0.015, -0.005, 0.02}

	var w welfordState
	for _, x := range xs {
		w.update(x)
	}

	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	varSum := 0.0
	for _, x := range xs {
		varSum += (x - mean) * (x - mean)
	}
	std := math.Sqrt(varSum / float64(len(xs)-1))

	if math.Abs(w.mean-mean) > 1e-12 {
		t.Fatalf("mean mismatch: %v vs %v", w.mean, mean)
	}
	if math.Abs(w.stdDev()-std) > 1e-12 {
		t.Fatalf("stddev mismatch: %v vs %v", w.stdDev(), std)
	}
}
