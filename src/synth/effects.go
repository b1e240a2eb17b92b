package synth

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- FX Kind ----- //

const (
	fxNone = iota
	fxChorus
	fxFlanger
	fxPhaser
	fxReverb
	fxDelay
	fxDistortion
)

func fxKindFromString(s string) int {
	switch s {
	case "chorus":
		return fxChorus
	case "flanger":
		return fxFlanger
	case "phaser":
		return fxPhaser
	case "reverb":
		return fxReverb
	case "delay":
		return fxDelay
	case "distortion":
		return fxDistortion
	}
	return fxNone
}
func fxKindToString(kind int) string {
	switch kind {
	case fxChorus:
		return "chorus"
	case fxFlanger:
		return "flanger"
	case fxPhaser:
		return "phaser"
	case fxReverb:
		return "reverb"
	case fxDelay:
		return "delay"
	case fxDistortion:
		return "distortion"
	}
	return "none"
}

// ----- FX Params ----- //

type fxParams struct {
	kind  int
	depth float64 // 0-1
	rate  float64 // 0-1
	mix   float64 // 0-1
}
type fxJSON struct {
	Kind  string  `json:"kind"`
	Depth float64 `json:"depth"`
	Rate  float64 `json:"rate"`
	Mix   float64 `json:"mix"`
}

func newFxParams() *fxParams {
	return &fxParams{kind: fxNone, depth: 0.5, rate: 0.5, mix: 0.5}
}

func (f *fxParams) applyJSON(data json.RawMessage) {
	var j fxJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to fxParams")
		return
	}
	f.kind = fxKindFromString(j.Kind)
	f.depth = clamp(j.Depth, 0, 1)
	f.rate = clamp(j.Rate, 0, 1)
	f.mix = clamp(j.Mix, 0, 1)
}
func (f *fxParams) toJSON() json.RawMessage {
	return toRawMessage(&fxJSON{
		Kind:  fxKindToString(f.kind),
		Depth: f.depth,
		Rate:  f.rate,
		Mix:   f.mix,
	})
}
func (f *fxParams) set(key string, value string) error {
	switch key {
	case "kind":
		f.kind = fxKindFromString(value)
	case "depth":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.depth = clamp(value, 0, 1)
	case "rate":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.rate = clamp(value, 0, 1)
	case "mix":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.mix = clamp(value, 0, 1)
	}
	return nil
}

// ----- Effect Slot ----- //

const (
	fxChainSlots  = 3
	fxLineSeconds = 2.0 // delay line length, also the reverb ring
	phaserStages  = 6
	chorusVoices  = 3
)

// reverb tap positions as fractions of the room size
var reverbTaps = [...]float64{0.3183, 0.4271, 0.5839, 0.6719, 0.7523, 0.8117}

type allpassState struct {
	x1 float64
	y1 float64
}

func (s *allpassState) process(x, coef float64) float64 {
	y := coef*x + s.x1 - coef*s.y1
	s.x1 = x
	s.y1 = y
	return y
}

// effect is one slot of the master chain. Delay lines and modulator
// phase persist across calls; switching the slot's kind resets them.
type effect struct {
	kind  int
	depth float64
	rate  float64
	mix   float64

	phase   float64
	lineL   []float64
	lineR   []float64
	cursor  int
	stagesL [phaserStages]allpassState
	stagesR [phaserStages]allpassState
}

func (e *effect) applyParams(p *fxParams) {
	if e.kind != p.kind {
		e.kind = p.kind
		e.resetState()
	}
	e.depth = p.depth
	e.rate = p.rate
	e.mix = p.mix
	if e.needsLine() && e.lineL == nil {
		length := int(fxLineSeconds * sampleRate)
		e.lineL = make([]float64, length)
		e.lineR = make([]float64, length)
	}
}

func (e *effect) needsLine() bool {
	switch e.kind {
	case fxChorus, fxFlanger, fxReverb, fxDelay:
		return true
	}
	return false
}

func (e *effect) resetState() {
	e.phase = 0
	e.cursor = 0
	for i := range e.lineL {
		e.lineL[i] = 0
		e.lineR[i] = 0
	}
	for i := range e.stagesL {
		e.stagesL[i] = allpassState{}
		e.stagesR[i] = allpassState{}
	}
}

// readLine reads the delay lines delay samples behind the cursor with
// linear interpolation.
func (e *effect) readLine(delay float64) (float64, float64) {
	length := float64(len(e.lineL))
	pos := float64(e.cursor) - delay
	for pos < 0 {
		pos += length
	}
	idx := int(pos)
	frac := pos - float64(idx)
	next := idx + 1
	if next >= len(e.lineL) {
		next = 0
	}
	l := e.lineL[idx]*(1-frac) + e.lineL[next]*frac
	r := e.lineR[idx]*(1-frac) + e.lineR[next]*frac
	return l, r
}

func (e *effect) writeLine(l, r float64) {
	e.lineL[e.cursor] = l
	e.lineR[e.cursor] = r
	e.cursor++
	if e.cursor >= len(e.lineL) {
		e.cursor = 0
	}
}

func (e *effect) advancePhase(freq float64) {
	e.phase += 2 * math.Pi * freq / sampleRate
	if e.phase >= 2*math.Pi {
		e.phase -= 2 * math.Pi
	}
}

// step processes one stereo sample. mix=0 reproduces the input exactly,
// mix=1 the wet signal only.
func (e *effect) step(l, r float64) (float64, float64) {
	if e.kind == fxNone {
		return l, r
	}
	wetL, wetR := l, r
	switch e.kind {
	case fxChorus:
		// three modulated taps around a 25ms base, phase-offset
		base := 0.025 * sampleRate
		depth := (0.001 + 0.007*e.depth) * sampleRate
		rate := 0.1 + 4.9*e.rate
		e.writeLine(l, r)
		wetL, wetR = 0, 0
		for v := 0; v < chorusVoices; v++ {
			ph := e.phase + 2*math.Pi*float64(v)/chorusVoices
			d := base + depth*math.Sin(ph)
			tl, tr := e.readLine(d)
			wetL += tl
			wetR += tr
		}
		wetL /= chorusVoices
		wetR /= chorusVoices
		e.advancePhase(rate)
	case fxFlanger:
		base := 0.004 * sampleRate
		depth := 0.003 * e.depth * sampleRate
		rate := 0.05 + 1.95*e.rate
		mod := 0.5 * (1 + math.Sin(e.phase))
		d := base + depth*mod
		wetL, wetR = e.readLine(d)
		e.writeLine(l+wetL*0.7, r+wetR*0.7)
		e.advancePhase(rate)
	case fxPhaser:
		// sweep the allpass cascade between 300Hz and 1600Hz
		rate := 0.05 + 1.95*e.rate
		sweep := 0.5 * (1 + math.Sin(e.phase))
		center := 300 + (1600-300)*sweep*e.depth
		coef := allpassCoef(center)
		wetL, wetR = l, r
		for i := range e.stagesL {
			wetL = e.stagesL[i].process(wetL, coef)
			wetR = e.stagesR[i].process(wetR, coef)
		}
		e.advancePhase(rate)
	case fxReverb:
		room := (0.2 + 0.8*e.depth) * fxLineSeconds * sampleRate
		feedback := 0.2 + 0.7*e.rate
		wetL, wetR = 0, 0
		for _, frac := range reverbTaps {
			tl, tr := e.readLine(room * frac)
			wetL += tl
			wetR += tr
		}
		wetL /= float64(len(reverbTaps))
		wetR /= float64(len(reverbTaps))
		e.writeLine(l+wetL*feedback, r+wetR*feedback)
	case fxDelay:
		d := (0.05 + 0.95*e.rate) * sampleRate
		feedback := 0.9 * e.depth
		wetL, wetR = e.readLine(d)
		e.writeLine(l+wetL*feedback, r+wetR*feedback)
	case fxDistortion:
		drive := 1 + 9*e.depth
		norm := math.Tanh(drive)
		wetL = math.Tanh(l*drive) / norm
		wetR = math.Tanh(r*drive) / norm
	}
	outL := l*(1-e.mix) + wetL*e.mix
	outR := r*(1-e.mix) + wetR*e.mix
	return outL, outR
}

// first-order allpass coefficient for a given corner frequency
func allpassCoef(freq float64) float64 {
	g := math.Tan(math.Pi * freq / sampleRate)
	return (g - 1) / (g + 1)
}

// ----- FX Chain ----- //

// fxChain applies the slots in order. Empty slots pass through.
type fxChain struct {
	slots [fxChainSlots]*effect
}

func newFxChain() *fxChain {
	c := &fxChain{}
	for i := range c.slots {
		c.slots[i] = &effect{}
	}
	return c
}

func (c *fxChain) applyParams(ps []*fxParams) {
	for i, e := range c.slots {
		e.applyParams(ps[i])
	}
}

func (c *fxChain) step(l, r float64) (float64, float64) {
	for _, e := range c.slots {
		l, r = e.step(l, r)
	}
	return l, r
}

func (c *fxChain) reset() {
	for _, e := range c.slots {
		e.resetState()
	}
}
