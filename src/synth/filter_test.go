package synth

import (
	"math"
	"testing"
)

func TestFilterKindStrings(t *testing.T) {
	expectEqual(t, filterKindFromString("lowpass"), filterLowpass)
	expectEqual(t, filterKindFromString("highpass"), filterHighpass)
	expectEqual(t, filterKindFromString("bandpass"), filterBandpass)
	expectEqual(t, filterKindFromString("combpass"), filterLowpass)
	expectEqual(t, filterKindToString(filterBandpass), "bandpass")
}

// A unit-amplitude saw through any parameter combination must stay
// inside the headroom the voice mixer assumes.
func TestFilterBounded(t *testing.T) {
	kinds := []int{filterLowpass, filterHighpass, filterBandpass}
	cutoffs := []float64{0.01, 0.3, 0.7, 0.99}
	resonances := []float64{0, 0.5, 0.99}
	steepnesses := []int{1, 2, 4}
	src := &osc{}
	input := make([]float64, 4096)
	src.generate(waveSaw, 440, 0, 0, input)

	buf := make([]float64, len(input))
	for _, kind := range kinds {
		for _, cutoff := range cutoffs {
			for _, resonance := range resonances {
				for _, steepness := range steepnesses {
					f := &filter{}
					f.setParams(kind, cutoff, resonance, steepness, 0)
					copy(buf, input)
					f.process(buf)
					for i, v := range buf {
						if math.Abs(v) > 1.5 {
							t.Fatalf("unbounded output %v at sample %v (kind=%v cutoff=%v res=%v steep=%v)",
								v, i, kind, cutoff, resonance, steepness)
						}
					}
				}
			}
		}
	}
}

func TestFilterStatePersistsAcrossBuffers(t *testing.T) {
	whole := &filter{}
	split := &filter{}
	whole.setParams(filterLowpass, 0.3, 0.5, 2, 0)
	split.setParams(filterLowpass, 0.3, 0.5, 2, 0)

	src := &osc{}
	input := make([]float64, 512)
	src.generate(waveSaw, 220, 0, 0, input)

	a := make([]float64, 512)
	copy(a, input)
	whole.process(a)

	b := make([]float64, 512)
	copy(b, input)
	split.process(b[:256])
	split.process(b[256:])
	for i := range a {
		expectNearlyEqual(t, b[i], a[i])
	}
}

func TestFilterReset(t *testing.T) {
	f := &filter{}
	f.setParams(filterLowpass, 0.5, 0.9, 4, 0)
	buf := make([]float64, 256)
	for i := range buf {
		buf[i] = 1
	}
	f.process(buf)
	f.reset()
	for i := range f.z1 {
		expectEqual(t, f.z1[i], 0.0)
		expectEqual(t, f.z2[i], 0.0)
	}
}

func TestFilterParamsClamp(t *testing.T) {
	p := &filterParams{}
	expectNoError(t, p.set("cutoff", "2"))
	expectNearlyEqual(t, p.cutoff, 0.99)
	expectNoError(t, p.set("cutoff", "0"))
	expectNearlyEqual(t, p.cutoff, 0.01)
	expectNoError(t, p.set("resonance", "1.5"))
	expectNearlyEqual(t, p.resonance, 0.99)
	expectNoError(t, p.set("steepness", "9"))
	expectEqual(t, p.steepness, 4)
	expectError(t, p.set("cutoff", "wide"))
}
