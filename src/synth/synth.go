package synth

// ----- Voice Pool ----- //

const maxVoices = 16

// synthesizer owns the fixed voice pool: allocation, stealing, and the
// normalized voice mix. All methods are called under the engine lock.
type synthesizer struct {
	voices []*voice
}

func newSynthesizer() *synthesizer {
	voices := make([]*voice, maxVoices)
	for i := range voices {
		voices[i] = newVoice()
	}
	return &synthesizer{voices: voices}
}

// noteOn acquires a voice for the note. A free voice is taken in pool
// order; with none free, the voice holding the lowest active note is
// stolen (pool order breaks ties). Allocation never fails.
func (s *synthesizer) noteOn(note int, velocity float64) {
	for _, v := range s.voices {
		if !v.active {
			v.noteOn(note, velocity)
			return
		}
	}
	steal := s.voices[0]
	for _, v := range s.voices[1:] {
		if v.note < steal.note {
			steal = v
		}
	}
	steal.noteOn(note, velocity)
}

// noteOff releases the first voice holding the note; the voice stays
// active until its release stage finishes.
func (s *synthesizer) noteOff(note int) {
	for _, v := range s.voices {
		if v.active && v.note == note {
			v.noteOff()
			return
		}
	}
}

// resetAll is the emergency stop: every voice goes silent immediately.
func (s *synthesizer) resetAll() {
	for _, v := range s.voices {
		v.reset()
	}
}

func (s *synthesizer) activeCount() int {
	n := 0
	for _, v := range s.voices {
		if v.active {
			n++
		}
	}
	return n
}

// render sums all voices into out, divides by the active voice count to
// keep the plain summation from clipping, and hard-limits to [-1, 1].
func (s *synthesizer) render(p *params, out []float64) {
	for i := range out {
		out[i] = 0
	}
	active := s.activeCount()
	if active < 1 {
		active = 1
	}
	norm := 1.0 / float64(active)
	for _, v := range s.voices {
		buf := v.process(p, len(out))
		for i := range out {
			out[i] += buf[i] * norm
		}
	}
	for i := range out {
		out[i] = clamp(out[i], -1, 1)
	}
}
