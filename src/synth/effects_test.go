package synth

import (
	"math"
	"testing"
)

func TestFxKindStrings(t *testing.T) {
	expectEqual(t, fxKindFromString("chorus"), fxChorus)
	expectEqual(t, fxKindFromString("flanger"), fxFlanger)
	expectEqual(t, fxKindFromString("phaser"), fxPhaser)
	expectEqual(t, fxKindFromString("reverb"), fxReverb)
	expectEqual(t, fxKindFromString("delay"), fxDelay)
	expectEqual(t, fxKindFromString("distortion"), fxDistortion)
	expectEqual(t, fxKindFromString("shimmer"), fxNone)
	expectEqual(t, fxKindToString(fxReverb), "reverb")
}

func TestEmptySlotPassesThrough(t *testing.T) {
	e := &effect{}
	e.applyParams(newFxParams())
	l, r := e.step(0.3, -0.7)
	expectNearlyEqual(t, l, 0.3)
	expectNearlyEqual(t, r, -0.7)
}

// mix=0 must reproduce the dry signal exactly for every kind, including
// the ones that keep internal delay lines running.
func TestMixZeroIsIdentity(t *testing.T) {
	kinds := []int{fxChorus, fxFlanger, fxPhaser, fxReverb, fxDelay, fxDistortion}
	src := &osc{}
	input := make([]float64, 512)
	src.generate(waveSaw, 440, 0, 0, input)
	for _, kind := range kinds {
		e := &effect{}
		p := newFxParams()
		p.kind = kind
		p.mix = 0
		e.applyParams(p)
		for i, x := range input {
			l, r := e.step(x, x)
			if math.Abs(l-x) > 0.0001 || math.Abs(r-x) > 0.0001 {
				t.Fatalf("kind %v altered dry signal at sample %v: %v, %v != %v", kind, i, l, r, x)
			}
		}
	}
}

func TestDistortionShape(t *testing.T) {
	e := &effect{}
	p := newFxParams()
	p.kind = fxDistortion
	p.depth = 1
	p.mix = 1
	e.applyParams(p)
	norm := math.Tanh(10)
	for _, x := range []float64{-0.8, -0.1, 0, 0.2, 0.9} {
		l, _ := e.step(x, x)
		expectNearlyEqual(t, l, math.Tanh(x*10)/norm)
	}
}

func TestDelayEchoesAfterDelayTime(t *testing.T) {
	e := &effect{}
	p := newFxParams()
	p.kind = fxDelay
	p.depth = 0
	p.rate = 0 // 50ms
	p.mix = 1
	e.applyParams(p)
	delaySamples := int(0.05 * sampleRate)
	var first float64
	for i := 0; i <= delaySamples; i++ {
		x := 0.0
		if i == 0 {
			x = 1.0
		}
		first, _ = e.step(x, x)
		if i == 0 && math.Abs(first) > 0.0001 {
			t.Fatalf("wet-only delay should be silent before the delay time, got %v", first)
		}
	}
	if math.Abs(first-1) > 0.01 {
		t.Errorf("expected impulse echo near 1.0 after 50ms, got %v", first)
	}
}

func TestKindChangeResetsState(t *testing.T) {
	e := &effect{}
	p := newFxParams()
	p.kind = fxDelay
	e.applyParams(p)
	for i := 0; i < 100; i++ {
		e.step(1, 1)
	}
	p.kind = fxReverb
	e.applyParams(p)
	expectEqual(t, e.cursor, 0)
	expectNearlyEqual(t, e.phase, 0)
	for _, v := range e.lineL {
		if v != 0 {
			t.Fatalf("delay line should be cleared on kind change")
		}
	}
}

func TestChainAppliesSlotsInOrder(t *testing.T) {
	c := newFxChain()
	ps := []*fxParams{newFxParams(), newFxParams(), newFxParams()}
	ps[1].kind = fxDistortion
	ps[1].depth = 1
	ps[1].mix = 1
	c.applyParams(ps)
	l, r := c.step(0.5, 0.5)
	want := math.Tanh(0.5*10) / math.Tanh(10)
	expectNearlyEqual(t, l, want)
	expectNearlyEqual(t, r, want)
}

func TestChainResetClearsTails(t *testing.T) {
	c := newFxChain()
	ps := []*fxParams{newFxParams(), newFxParams(), newFxParams()}
	ps[0].kind = fxDelay
	ps[0].mix = 1
	c.applyParams(ps)
	for i := 0; i < 1000; i++ {
		c.step(1, 1)
	}
	c.reset()
	for _, v := range c.slots[0].lineL {
		if v != 0 {
			t.Fatalf("reset should clear delay tails")
		}
	}
}
