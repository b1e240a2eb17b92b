package synth

import "math"

// ----- Voice ----- //

const oscPerVoice = 4

// mix levels below this contribute nothing audible, skip the work
const mixThreshold = 0.001

// voice owns one oscillator bank, a noise/sub layer, an envelope and a
// filter. Voices are created once at pool construction and only ever
// reset, never reallocated.
type voice struct {
	note     int
	velocity float64 // 0-1
	active   bool

	oscs   [oscPerVoice]*osc
	noise  *noiseSub
	env    *adsr
	filter *filter

	out []float64
	tmp []float64
	lvl []float64
}

func newVoice() *voice {
	v := &voice{
		noise:  &noiseSub{},
		env:    &adsr{},
		filter: &filter{},
		out:    make([]float64, samplesPerCycle),
		tmp:    make([]float64, samplesPerCycle),
		lvl:    make([]float64, samplesPerCycle),
	}
	for i := range v.oscs {
		v.oscs[i] = &osc{}
	}
	return v
}

func (v *voice) noteOn(note int, velocity float64) {
	v.note = note
	v.velocity = velocity
	v.active = true
	v.env.gateOn()
}

func (v *voice) noteOff() {
	v.env.gateOff()
}

// reset forces the voice silent immediately. Filter and oscillator
// state is cleared here and nowhere else.
func (v *voice) reset() {
	v.active = false
	v.note = 0
	v.velocity = 0
	v.env.reset()
	v.filter.reset()
	v.noise.reset()
	for _, o := range v.oscs {
		o.reset()
	}
}

func (v *voice) buffers(n int) ([]float64, []float64, []float64) {
	if cap(v.out) < n {
		v.out = make([]float64, n)
		v.tmp = make([]float64, n)
		v.lvl = make([]float64, n)
	}
	return v.out[:n], v.tmp[:n], v.lvl[:n]
}

// process runs the per-voice signal chain for n samples and returns the
// voice output. Each stage is gated by its enabled/bypassed flags:
// disabled mutes the stage output, bypassed skips the stage entirely.
func (v *voice) process(p *params, n int) []float64 {
	out, tmp, lvl := v.buffers(n)
	for i := range out {
		out[i] = 0
	}
	if !v.active && v.env.idle() {
		return out
	}
	freq := noteToFreq(v.note)

	for i, op := range p.oscParams {
		if !op.enabled || op.bypassed || op.mix < mixThreshold {
			continue
		}
		v.oscs[i].generate(op.kind, freq, op.detune, op.harmonics, tmp)
		gain := op.mix * v.velocity
		for j := range out {
			out[j] += tmp[j] * gain
		}
	}

	if p.noiseParams.enabled && !p.noiseParams.bypassed {
		v.noise.generate(p.noiseParams, freq, out)
	}

	// the envelope always advances so the voice lifecycle is not tied
	// to the stage gates; the gates only decide what reaches the output
	v.env.setParams(p.adsrParams)
	v.env.process(lvl)
	if !p.adsrParams.bypassed {
		if p.adsrParams.enabled {
			for i := range out {
				out[i] *= lvl[i]
			}
		} else {
			for i := range out {
				out[i] = 0
			}
		}
	}

	if !p.filterParams.bypassed {
		if p.filterParams.enabled {
			fp := p.filterParams
			v.filter.setParams(fp.kind, fp.cutoff, fp.resonance, fp.steepness, fp.harmonics)
			v.filter.process(out)
		} else {
			for i := range out {
				out[i] = 0
			}
		}
	}

	if v.env.idle() {
		v.active = false
	}
	return out
}

func noteToFreq(note int) float64 {
	return 440.0 * math.Pow(2, float64(note-69)/12.0)
}
