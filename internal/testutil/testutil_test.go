package testutil

import (
	"math"
	"testing"
)

func TestTimesAndTone(t *testing.T) {
	times := Times(4, 4, 1)
	want := []float64{1, 1.25, 1.5, 1.75}
	for i := range want {
		if math.Abs(times[i]-want[i]) > 1e-12 {
			t.Fatalf("times[%d] = %g, want %g", i, times[i], want[i])
		}
	}

	// 1 Hz sampled at quarter periods: sin and cos alternate.
	tone := Tone(Times(4, 4, 0), 1, 2, 0)
	wantTone := []float64{0, 2, 0, -2}
	for i := range wantTone {
		if math.Abs(tone[i]-wantTone[i]) > 1e-12 {
			t.Errorf("tone[%d] = %g, want %g", i, tone[i], wantTone[i])
		}
	}
}

func TestNoiseDeterministic(t *testing.T) {
	a := Noise(100, 1, 7)
	b := Noise(100, 1, 7)
	c := Noise(100, 1, 8)
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different sample at %d", i)
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical noise")
	}
}

func TestBandEnergy(t *testing.T) {
	const rate = 1000.0
	x := Tone(Times(1000, rate, 0), 50, 1, 0)

	in := BandEnergy(x, rate, 50, 1)
	out := BandEnergy(x, rate, 200, 1)
	if in <= 0 {
		t.Fatalf("expected energy at 50 Hz, got %g", in)
	}
	if out > in*1e-12 {
		t.Errorf("energy at 200 Hz = %g, want ~0 (50 Hz energy %g)", out, in)
	}
	if got := Add(x, x); math.Abs(got[250]-2*x[250]) > 1e-12 {
		t.Errorf("Add did not sum samples")
	}
}
