package synth

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- Filter Kind ----- //

const (
	filterLowpass = iota
	filterHighpass
	filterBandpass
)

func filterKindFromString(s string) int {
	switch s {
	case "lowpass":
		return filterLowpass
	case "highpass":
		return filterHighpass
	case "bandpass":
		return filterBandpass
	}
	return filterLowpass
}
func filterKindToString(kind int) string {
	switch kind {
	case filterHighpass:
		return "highpass"
	case filterBandpass:
		return "bandpass"
	}
	return "lowpass"
}

// ----- Filter Params ----- //

type filterParams struct {
	enabled   bool
	bypassed  bool
	kind      int
	cutoff    float64 // 0.01-0.99, normalized
	resonance float64 // 0-0.99
	steepness int     // 1-4 cascaded stages
	harmonics float64 // 0-1
}
type filterJSON struct {
	Enabled   bool    `json:"enabled"`
	Bypassed  bool    `json:"bypassed"`
	Kind      string  `json:"kind"`
	Cutoff    float64 `json:"cutoff"`
	Resonance float64 `json:"resonance"`
	Steepness int     `json:"steepness"`
	Harmonics float64 `json:"harmonics"`
}

func (f *filterParams) applyJSON(data json.RawMessage) {
	var j filterJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to filterParams")
		return
	}
	f.enabled = j.Enabled
	f.bypassed = j.Bypassed
	f.kind = filterKindFromString(j.Kind)
	f.cutoff = clamp(j.Cutoff, 0.01, 0.99)
	f.resonance = clamp(j.Resonance, 0, 0.99)
	f.steepness = int(clamp(float64(j.Steepness), 1, 4))
	f.harmonics = clamp(j.Harmonics, 0, 1)
}
func (f *filterParams) toJSON() json.RawMessage {
	return toRawMessage(&filterJSON{
		Enabled:   f.enabled,
		Bypassed:  f.bypassed,
		Kind:      filterKindToString(f.kind),
		Cutoff:    f.cutoff,
		Resonance: f.resonance,
		Steepness: f.steepness,
		Harmonics: f.harmonics,
	})
}
func (f *filterParams) set(key string, value string) error {
	switch key {
	case "enabled":
		f.enabled = value == "true"
	case "bypassed":
		f.bypassed = value == "true"
	case "kind":
		f.kind = filterKindFromString(value)
	case "cutoff":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.cutoff = clamp(value, 0.01, 0.99)
	case "resonance":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.resonance = clamp(value, 0, 0.99)
	case "steepness":
		value, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		f.steepness = int(clamp(float64(value), 1, 4))
	case "harmonics":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.harmonics = clamp(value, 0, 1)
	}
	return nil
}

// ----- Filter ----- //

const (
	filterMinFreq = 20.0
	filterMaxFreq = 22000.0
)

// filter is a cascadable resonant biquad. Stage delay state persists
// across process() calls; reset() is the only way to clear it.
type filter struct {
	kind       int
	cutoff     float64
	resonance  float64
	steepness  int
	harmonics  float64
	trim       float64
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     [4]float64
}

// setParams clamps everything once at the write boundary and derives
// the biquad coefficients; process() never validates.
func (f *filter) setParams(kind int, cutoff, resonance float64, steepness int, harmonics float64) {
	f.kind = kind
	f.cutoff = clamp(cutoff, 0.01, 0.99)
	f.resonance = clamp(resonance, 0, 0.99)
	f.steepness = int(clamp(float64(steepness), 1, 4))
	f.harmonics = clamp(harmonics, 0, 1)

	// exponential sweep 20Hz..22kHz, squared for finer low-end control
	cutoffFreq := filterMinFreq * math.Pow(filterMaxFreq/filterMinFreq, f.cutoff*f.cutoff)
	w0 := 2 * math.Pi * cutoffFreq / sampleRate
	cosw0 := math.Cos(w0)
	// resonance compresses alpha: higher resonance, narrower band
	q := 1 / (1 - 0.99*math.Sqrt(f.resonance))
	alpha := math.Sin(w0) / (2 * q)

	a0 := 1 + alpha
	f.a1 = -2 * cosw0 / a0
	f.a2 = (1 - alpha) / a0
	switch f.kind {
	case filterHighpass:
		f.b0 = (1 + cosw0) / 2 / a0
		f.b1 = -(1 + cosw0) / a0
		f.b2 = (1 + cosw0) / 2 / a0
	case filterBandpass:
		// constant peak gain, from RBJ's cookbook
		f.b0 = alpha / a0
		f.b1 = 0
		f.b2 = -alpha / a0
	default:
		f.b0 = (1 - cosw0) / 2 / a0
		f.b1 = (1 - cosw0) / a0
		f.b2 = (1 - cosw0) / 2 / a0
	}
	// normalize the resonant peak so a unit input stays bounded
	if f.kind != filterBandpass && q > 1 {
		f.b0 /= q
		f.b1 /= q
		f.b2 /= q
	}
	f.trim = 1 - f.cutoff*0.5
}

func (f *filter) process(buf []float64) {
	stages := f.steepness
	if stages < 1 {
		stages = 1
	}
	for s := 0; s < stages; s++ {
		b0, b1, b2, a1, a2 := f.b0, f.b1, f.b2, f.a1, f.a2
		z1, z2 := f.z1[s], f.z2[s]
		for i, x := range buf {
			y := b0*x + z1
			z1 = b1*x - a1*y + z2
			z2 = b2*x - a2*y
			buf[i] = y
		}
		f.z1[s], f.z2[s] = z1, z2
	}
	for i := range buf {
		buf[i] *= f.trim
	}
}

func (f *filter) reset() {
	for i := range f.z1 {
		f.z1[i] = 0
		f.z2[i] = 0
	}
}
