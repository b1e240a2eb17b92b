package synth

import (
	"encoding/json"
	"log"
	"strconv"
)

// ----- Params ----- //

// params is the shared configuration store: the only channel through
// which external state reaches the audio thread. Control handlers and
// the modulation router write it, the render path reads it, all under
// the engine lock.
type params struct {
	oscParams    []*oscParams
	noiseParams  *noiseParams
	adsrParams   *adsrParams
	filterParams *filterParams
	lfoParams    *lfoParams
	fxParams     []*fxParams
	masterGain   float64 // 0-1
	masterPan    float64 // -1 (left) to 1 (right)
}

func newParams() *params {
	return &params{
		oscParams: []*oscParams{
			{enabled: true, kind: waveSine, mix: 0.25},
			{enabled: true, kind: waveSaw, mix: 0.25},
			{enabled: true, kind: waveTriangle, mix: 0.25},
			{enabled: true, kind: wavePulse, mix: 0.25},
		},
		noiseParams:  &noiseParams{enabled: true},
		adsrParams:   &adsrParams{enabled: true, attack: 0.01, decay: 0.1, sustain: 0.7, release: 0.3},
		filterParams: &filterParams{enabled: true, kind: filterLowpass, cutoff: 0.99, steepness: 1},
		lfoParams:    newLfoParams(),
		fxParams:     []*fxParams{newFxParams(), newFxParams(), newFxParams()},
		masterGain:   1.0,
		masterPan:    0.0,
	}
}

func (p *params) setMaster(key string, value string) error {
	switch key {
	case "gain":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.masterGain = clamp(value, 0, 1)
	case "pan":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.masterPan = clamp(value, -1, 1)
	}
	return nil
}

type paramsJSON struct {
	Oscs       []json.RawMessage `json:"oscs"`
	Noise      json.RawMessage   `json:"noise"`
	Adsr       json.RawMessage   `json:"adsr"`
	Filter     json.RawMessage   `json:"filter"`
	Lfo        json.RawMessage   `json:"lfo"`
	Fx         []json.RawMessage `json:"fx"`
	MasterGain float64           `json:"masterGain"`
	MasterPan  float64           `json:"masterPan"`
}

func (p *params) applyJSON(data json.RawMessage) {
	var j paramsJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to params")
		return
	}
	if len(j.Oscs) == len(p.oscParams) {
		for i, data := range j.Oscs {
			p.oscParams[i].applyJSON(data)
		}
	} else {
		log.Println("failed to apply JSON to osc params")
	}
	p.noiseParams.applyJSON(j.Noise)
	p.adsrParams.applyJSON(j.Adsr)
	p.filterParams.applyJSON(j.Filter)
	p.lfoParams.applyJSON(j.Lfo)
	if len(j.Fx) == len(p.fxParams) {
		for i, data := range j.Fx {
			p.fxParams[i].applyJSON(data)
		}
	} else {
		log.Println("failed to apply JSON to fx params")
	}
	p.masterGain = clamp(j.MasterGain, 0, 1)
	p.masterPan = clamp(j.MasterPan, -1, 1)
}
func (p *params) toJSON() json.RawMessage {
	oscJsons := make([]json.RawMessage, len(p.oscParams))
	for i, op := range p.oscParams {
		oscJsons[i] = op.toJSON()
	}
	fxJsons := make([]json.RawMessage, len(p.fxParams))
	for i, fp := range p.fxParams {
		fxJsons[i] = fp.toJSON()
	}
	return toRawMessage(&paramsJSON{
		Oscs:       oscJsons,
		Noise:      p.noiseParams.toJSON(),
		Adsr:       p.adsrParams.toJSON(),
		Filter:     p.filterParams.toJSON(),
		Lfo:        p.lfoParams.toJSON(),
		Fx:         fxJsons,
		MasterGain: p.masterGain,
		MasterPan:  p.masterPan,
	})
}

// ----- Named Parameter Access ----- //

type paramRange struct {
	min float64
	max float64
}

// paramRanges lists every parameter the modulation router may target,
// with the range modulated values are clamped to.
var paramRanges = map[string]paramRange{
	"osc0_mix":         {0, 1},
	"osc1_mix":         {0, 1},
	"osc2_mix":         {0, 1},
	"osc3_mix":         {0, 1},
	"osc0_detune":      {-12, 12},
	"osc1_detune":      {-12, 12},
	"osc2_detune":      {-12, 12},
	"osc3_detune":      {-12, 12},
	"filter_cutoff":    {0.01, 0.99},
	"filter_resonance": {0, 0.99},
	"adsr_attack":      {0.001, 10},
	"adsr_decay":       {0.001, 10},
	"adsr_sustain":     {0, 1},
	"adsr_release":     {0.001, 10},
	"noise_amount":     {0, 1},
	"sub_amount":       {0, 1},
	"master_gain":      {0, 1},
	"master_pan":       {-1, 1},
}

func (p *params) getFloat(name string) (float64, bool) {
	switch name {
	case "osc0_mix":
		return p.oscParams[0].mix, true
	case "osc1_mix":
		return p.oscParams[1].mix, true
	case "osc2_mix":
		return p.oscParams[2].mix, true
	case "osc3_mix":
		return p.oscParams[3].mix, true
	case "osc0_detune":
		return p.oscParams[0].detune, true
	case "osc1_detune":
		return p.oscParams[1].detune, true
	case "osc2_detune":
		return p.oscParams[2].detune, true
	case "osc3_detune":
		return p.oscParams[3].detune, true
	case "filter_cutoff":
		return p.filterParams.cutoff, true
	case "filter_resonance":
		return p.filterParams.resonance, true
	case "adsr_attack":
		return p.adsrParams.attack, true
	case "adsr_decay":
		return p.adsrParams.decay, true
	case "adsr_sustain":
		return p.adsrParams.sustain, true
	case "adsr_release":
		return p.adsrParams.release, true
	case "noise_amount":
		return p.noiseParams.noise, true
	case "sub_amount":
		return p.noiseParams.sub, true
	case "master_gain":
		return p.masterGain, true
	case "master_pan":
		return p.masterPan, true
	}
	return 0, false
}

func (p *params) setFloat(name string, value float64) {
	switch name {
	case "osc0_mix":
		p.oscParams[0].mix = value
	case "osc1_mix":
		p.oscParams[1].mix = value
	case "osc2_mix":
		p.oscParams[2].mix = value
	case "osc3_mix":
		p.oscParams[3].mix = value
	case "osc0_detune":
		p.oscParams[0].detune = value
	case "osc1_detune":
		p.oscParams[1].detune = value
	case "osc2_detune":
		p.oscParams[2].detune = value
	case "osc3_detune":
		p.oscParams[3].detune = value
	case "filter_cutoff":
		p.filterParams.cutoff = value
	case "filter_resonance":
		p.filterParams.resonance = value
	case "adsr_attack":
		p.adsrParams.attack = value
	case "adsr_decay":
		p.adsrParams.decay = value
	case "adsr_sustain":
		p.adsrParams.sustain = value
	case "adsr_release":
		p.adsrParams.release = value
	case "noise_amount":
		p.noiseParams.noise = value
	case "sub_amount":
		p.noiseParams.sub = value
	case "master_gain":
		p.masterGain = value
	case "master_pan":
		p.masterPan = value
	}
}
