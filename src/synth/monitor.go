package synth

import "sync"

// ----- Signal Monitor ----- //

const monitorRingSize = 2048

// monitored tap names
const (
	monitorMix      = "mix"       // voice mix before the effects chain
	monitorAudioOut = "audio_out" // final output after the effects chain
	monitorLfo      = "lfo"       // modulation router waveform
)

type monitorRing struct {
	buf []float64
	pos int
}

func (r *monitorRing) write(data []float64) {
	for _, v := range data {
		r.buf[r.pos] = v
		r.pos++
		if r.pos >= len(r.buf) {
			r.pos = 0
		}
	}
}

// monitor keeps the latest samples of a few named signal taps for the
// visualization collaborator. The render path pushes fire-and-forget:
// when a reader holds the lock the frame is dropped, never waited for.
type monitor struct {
	mu    sync.Mutex
	rings map[string]*monitorRing
}

func newMonitor(names ...string) *monitor {
	rings := make(map[string]*monitorRing, len(names))
	for _, name := range names {
		rings[name] = &monitorRing{buf: make([]float64, monitorRingSize)}
	}
	return &monitor{rings: rings}
}

func (m *monitor) push(name string, data []float64) {
	if !m.mu.TryLock() {
		return
	}
	defer m.mu.Unlock()
	if r, ok := m.rings[name]; ok {
		r.write(data)
	}
}

// snapshot returns a copy of the tap, oldest sample first.
func (m *monitor) snapshot(name string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rings[name]
	if !ok {
		return nil
	}
	out := make([]float64, len(r.buf))
	copy(out, r.buf[r.pos:])
	copy(out[len(r.buf)-r.pos:], r.buf[:r.pos])
	return out
}
