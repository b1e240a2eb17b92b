package synth

import (
	"encoding/json"
	"log"
	"math"
	"math/rand"
	"strconv"
)

// ----- Noise/Sub Params ----- //

type noiseParams struct {
	enabled       bool
	bypassed      bool
	noise         float64 // 0-1
	sub           float64 // 0-1
	harmonics     float64 // 0-1
	inharmonicity float64 // 0-1
}
type noiseJSON struct {
	Enabled       bool    `json:"enabled"`
	Bypassed      bool    `json:"bypassed"`
	Noise         float64 `json:"noise"`
	Sub           float64 `json:"sub"`
	Harmonics     float64 `json:"harmonics"`
	Inharmonicity float64 `json:"inharmonicity"`
}

func (n *noiseParams) applyJSON(data json.RawMessage) {
	var j noiseJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to noiseParams")
		return
	}
	n.enabled = j.Enabled
	n.bypassed = j.Bypassed
	n.noise = clamp(j.Noise, 0, 1)
	n.sub = clamp(j.Sub, 0, 1)
	n.harmonics = clamp(j.Harmonics, 0, 1)
	n.inharmonicity = clamp(j.Inharmonicity, 0, 1)
}
func (n *noiseParams) toJSON() json.RawMessage {
	return toRawMessage(&noiseJSON{
		Enabled:       n.enabled,
		Bypassed:      n.bypassed,
		Noise:         n.noise,
		Sub:           n.sub,
		Harmonics:     n.harmonics,
		Inharmonicity: n.inharmonicity,
	})
}
func (n *noiseParams) set(key string, value string) error {
	switch key {
	case "enabled":
		n.enabled = value == "true"
	case "bypassed":
		n.bypassed = value == "true"
	case "noise":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		n.noise = clamp(value, 0, 1)
	case "sub":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		n.sub = clamp(value, 0, 1)
	case "harmonics":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		n.harmonics = clamp(value, 0, 1)
	case "inharmonicity":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		n.inharmonicity = clamp(value, 0, 1)
	}
	return nil
}

// ----- Noise/Sub Layer ----- //

// noiseSub layers broadband noise, a sub-octave sine, sine overtones
// and one inharmonic partial on top of a voice's raw signal. All
// partials keep their own phase so buffers join without clicks.
type noiseSub struct {
	subPhase        float64
	harmonicPhases  [7]float64 // overtones 2..8
	inharmonicPhase float64
}

// generate mixes the layer into buf additively.
func (n *noiseSub) generate(p *noiseParams, freq float64, buf []float64) {
	if p.sub > 0 {
		step := 2 * math.Pi * (freq / 2) / sampleRate
		for i := range buf {
			buf[i] += math.Sin(n.subPhase+step*float64(i)) * p.sub
		}
		n.subPhase = positiveMod(n.subPhase+step*float64(len(buf)), 2*math.Pi)
	}
	if p.harmonics > 0 {
		for k := 2; k <= 8; k++ {
			step := 2 * math.Pi * freq * float64(k) / sampleRate
			phase := n.harmonicPhases[k-2]
			weight := p.harmonics / float64(k)
			for i := range buf {
				buf[i] += math.Sin(phase+step*float64(i)) * weight
			}
			n.harmonicPhases[k-2] = positiveMod(phase+step*float64(len(buf)), 2*math.Pi)
		}
	}
	if p.inharmonicity > 0 {
		step := 2 * math.Pi * freq * (1 + p.inharmonicity) / sampleRate
		for i := range buf {
			buf[i] += math.Sin(n.inharmonicPhase+step*float64(i)) * p.inharmonicity
		}
		n.inharmonicPhase = positiveMod(n.inharmonicPhase+step*float64(len(buf)), 2*math.Pi)
	}
	if p.noise > 0 {
		for i := range buf {
			buf[i] += (rand.Float64()*2 - 1) * p.noise
		}
	}
}

func (n *noiseSub) reset() {
	n.subPhase = 0
	for i := range n.harmonicPhases {
		n.harmonicPhases[i] = 0
	}
	n.inharmonicPhase = 0
}
