package synth

import (
	"math"
	"testing"
)

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNearlyEqual(t *testing.T, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > 0.0001 {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

func expectError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Errorf("expected an error, but got none")
	}
}

func TestBitreverse(t *testing.T) {
	expectEqual(t, bitReverse(0, 8), 0)
	expectEqual(t, bitReverse(1, 8), 4)
	expectEqual(t, bitReverse(2, 8), 2)
	expectEqual(t, bitReverse(3, 8), 6)
	expectEqual(t, bitReverse(4, 8), 1)
	expectEqual(t, bitReverse(5, 8), 5)
	expectEqual(t, bitReverse(6, 8), 3)
	expectEqual(t, bitReverse(7, 8), 7)
}

func TestFFTAbs(t *testing.T) {
	fft := NewFFT(8, false)
	x := make([]float64, 8)
	for i := range x {
		x[i] = math.Cos(2 * math.Pi * 2 * float64(i) / 8)
	}
	fft.CalcAbs(x)
	expectNearlyEqual(t, x[0], 0)
	expectNearlyEqual(t, x[1], 0)
	expectNearlyEqual(t, x[2], 4)
	expectNearlyEqual(t, x[3], 0)
	expectNearlyEqual(t, x[4], 0)
	expectNearlyEqual(t, x[5], 0)
	expectNearlyEqual(t, x[6], 4)
	expectNearlyEqual(t, x[7], 0)
}

func TestHanEndpoints(t *testing.T) {
	x := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	Han(x)
	expectNearlyEqual(t, x[0], 0)
	expectNearlyEqual(t, x[4], 1)
}
