package synth

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- LFO Params ----- //

type lfoParams struct {
	enabled  bool
	bypassed bool
	wave     int
	freq     float64 // Hz
	depth    float64 // 0-1
	offset   float64 // seconds, timing offset
}
type lfoJSON struct {
	Enabled  bool    `json:"enabled"`
	Bypassed bool    `json:"bypassed"`
	Wave     string  `json:"wave"`
	Freq     float64 `json:"freq"`
	Depth    float64 `json:"depth"`
	Offset   float64 `json:"offset"`
}

func newLfoParams() *lfoParams {
	return &lfoParams{
		enabled: true,
		wave:    waveSine,
		freq:    1.0,
		depth:   1.0,
	}
}

func (l *lfoParams) applyJSON(data json.RawMessage) {
	var j lfoJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to lfoParams")
		return
	}
	l.enabled = j.Enabled
	l.bypassed = j.Bypassed
	l.wave = waveKindFromString(j.Wave)
	l.freq = clamp(j.Freq, 0, 20)
	l.depth = clamp(j.Depth, 0, 1)
	l.offset = j.Offset
}
func (l *lfoParams) toJSON() json.RawMessage {
	return toRawMessage(&lfoJSON{
		Enabled:  l.enabled,
		Bypassed: l.bypassed,
		Wave:     waveKindToString(l.wave),
		Freq:     l.freq,
		Depth:    l.depth,
		Offset:   l.offset,
	})
}
func (l *lfoParams) set(key string, value string) error {
	switch key {
	case "enabled":
		l.enabled = value == "true"
	case "bypassed":
		l.bypassed = value == "true"
	case "wave":
		l.wave = waveKindFromString(value)
	case "freq":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		l.freq = clamp(value, 0, 20)
	case "depth":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		l.depth = clamp(value, 0, 1)
	case "offset":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		l.offset = value
	}
	return nil
}

// ----- Modulation Router ----- //

// modRouter runs one low-frequency oscillator, independent of any
// voice, and writes modulated values for its registered targets back
// into the shared parameter store once per render cycle. A target's
// visible value is always base + lfo·depth·rangeScale, clamped to the
// parameter's range.
type modRouter struct {
	phase   float64
	targets map[string]float64 // name -> base value
	out     []float64
}

func newModRouter() *modRouter {
	return &modRouter{
		targets: make(map[string]float64),
		out:     make([]float64, samplesPerCycle),
	}
}

func (m *modRouter) addTarget(name string, base float64) {
	m.targets[name] = base
}

// removeTarget stops further writes to the parameter. The base value is
// not restored; the parameter keeps whatever was last written.
func (m *modRouter) removeTarget(name string) {
	delete(m.targets, name)
}

// generate produces n samples of the LFO waveform and advances the
// router's own phase. A disabled router yields silence and holds phase.
func (m *modRouter) generate(lp *lfoParams, n int) []float64 {
	if cap(m.out) < n {
		m.out = make([]float64, n)
	}
	out := m.out[:n]
	if !lp.enabled {
		for i := range out {
			out[i] = 0
		}
		return out
	}
	step := 2 * math.Pi * lp.freq / sampleRate
	shift := 2 * math.Pi * lp.freq * lp.offset
	for i := range out {
		out[i] = baseWave(lp.wave, m.phase+shift+step*float64(i))
	}
	m.phase = positiveMod(m.phase+step*float64(n), 2*math.Pi)
	return out
}

// step runs one render cycle of routing: generate the waveform, then
// write every registered target through the store's range table. While
// bypassed no writes happen but registrations survive; on unbypass the
// targets jump straight back to their modulated values.
func (m *modRouter) step(p *params, n int) []float64 {
	out := m.generate(p.lfoParams, n)
	if n == 0 || !p.lfoParams.enabled || p.lfoParams.bypassed || len(m.targets) == 0 {
		return out
	}
	last := out[n-1]
	for name, base := range m.targets {
		r, ok := paramRanges[name]
		if !ok {
			continue
		}
		scale := (r.max - r.min) / 2
		p.setFloat(name, clamp(base+last*p.lfoParams.depth*scale, r.min, r.max))
	}
	return out
}
