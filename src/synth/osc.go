package synth

import (
	"encoding/json"
	"log"
	"math"
	"math/rand"
	"strconv"
)

// ----- Wave Kind ----- //

const (
	waveSine = iota
	waveSaw
	waveTriangle
	wavePulse
	waveNoise
)

func waveKindFromString(s string) int {
	switch s {
	case "sine":
		return waveSine
	case "saw":
		return waveSaw
	case "triangle":
		return waveTriangle
	case "pulse", "square":
		return wavePulse
	case "noise":
		return waveNoise
	}
	return waveSine
}
func waveKindToString(kind int) string {
	switch kind {
	case waveSaw:
		return "saw"
	case waveTriangle:
		return "triangle"
	case wavePulse:
		return "pulse"
	case waveNoise:
		return "noise"
	}
	return "sine"
}

// ----- OSC Params ----- //

type oscParams struct {
	enabled   bool
	bypassed  bool
	kind      int
	mix       float64 // 0-1
	detune    float64 // semitones, -12 ~ 12
	harmonics float64 // 0-1
}
type oscJSON struct {
	Enabled   bool    `json:"enabled"`
	Bypassed  bool    `json:"bypassed"`
	Kind      string  `json:"kind"`
	Mix       float64 `json:"mix"`
	Detune    float64 `json:"detune"`
	Harmonics float64 `json:"harmonics"`
}

func (o *oscParams) applyJSON(data json.RawMessage) {
	var j oscJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to oscParams")
		return
	}
	o.enabled = j.Enabled
	o.bypassed = j.Bypassed
	o.kind = waveKindFromString(j.Kind)
	o.mix = clamp(j.Mix, 0, 1)
	o.detune = clamp(j.Detune, -12, 12)
	o.harmonics = clamp(j.Harmonics, 0, 1)
}
func (o *oscParams) toJSON() json.RawMessage {
	return toRawMessage(&oscJSON{
		Enabled:   o.enabled,
		Bypassed:  o.bypassed,
		Kind:      waveKindToString(o.kind),
		Mix:       o.mix,
		Detune:    o.detune,
		Harmonics: o.harmonics,
	})
}
func (o *oscParams) set(key string, value string) error {
	switch key {
	case "enabled":
		o.enabled = value == "true"
	case "bypassed":
		o.bypassed = value == "true"
	case "kind":
		o.kind = waveKindFromString(value)
	case "mix":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.mix = clamp(value, 0, 1)
	case "detune":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.detune = clamp(value, -12, 12)
	case "harmonics":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.harmonics = clamp(value, 0, 1)
	}
	return nil
}

// ----- OSC ----- //

// osc generates one waveform with continuous phase across calls.
// The fundamental and every overtone keep their own phase accumulator
// so consecutive generate() calls join without discontinuities.
type osc struct {
	phase          float64    // [0, 2π)
	harmonicPhases [8]float64 // overtones 2..8
}

func baseWave(kind int, t float64) float64 {
	switch kind {
	case waveSaw:
		x := t / (2 * math.Pi)
		return 2 * (x - math.Round(x))
	case waveTriangle:
		x := t / (2 * math.Pi)
		return 2*math.Abs(2*(x-math.Round(x))) - 1
	case wavePulse:
		if positiveMod(t, 2*math.Pi) < math.Pi {
			return 1
		}
		return -1
	case waveNoise:
		return rand.Float64()*2 - 1
	}
	return math.Sin(t)
}

// generate fills out with the waveform at freq detuned by detune
// semitones. harmonics > 0 adds overtones 2..8 weighted 1/k.
func (o *osc) generate(kind int, freq float64, detune float64, harmonics float64, out []float64) {
	f := freq * math.Pow(2, detune/12.0)
	step := 2 * math.Pi * f / sampleRate
	for i := range out {
		out[i] = baseWave(kind, o.phase+step*float64(i))
	}
	o.phase = positiveMod(o.phase+step*float64(len(out)), 2*math.Pi)
	if harmonics <= 0 {
		return
	}
	for k := 2; k <= 8; k++ {
		hstep := step * float64(k)
		hphase := o.harmonicPhases[k-2]
		weight := harmonics / float64(k)
		for i := range out {
			out[i] += baseWave(kind, hphase+hstep*float64(i)) * weight
		}
		o.harmonicPhases[k-2] = positiveMod(hphase+hstep*float64(len(out)), 2*math.Pi)
	}
}

func (o *osc) reset() {
	o.phase = 0
	for i := range o.harmonicPhases {
		o.harmonicPhases[i] = 0
	}
}
