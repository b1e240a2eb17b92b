package synth

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- ADSR Params ----- //

type adsrParams struct {
	enabled  bool
	bypassed bool
	attack   float64 // seconds
	decay    float64 // seconds
	sustain  float64 // 0-1
	release  float64 // seconds
}
type adsrJSON struct {
	Enabled  bool    `json:"enabled"`
	Bypassed bool    `json:"bypassed"`
	Attack   float64 `json:"attack"`
	Decay    float64 `json:"decay"`
	Sustain  float64 `json:"sustain"`
	Release  float64 `json:"release"`
}

func (a *adsrParams) applyJSON(data json.RawMessage) {
	var j adsrJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to adsrParams")
		return
	}
	a.enabled = j.Enabled
	a.bypassed = j.Bypassed
	a.attack = clamp(j.Attack, 0.001, 10)
	a.decay = clamp(j.Decay, 0.001, 10)
	a.sustain = clamp(j.Sustain, 0, 1)
	a.release = clamp(j.Release, 0.001, 10)
}
func (a *adsrParams) toJSON() json.RawMessage {
	return toRawMessage(&adsrJSON{
		Enabled:  a.enabled,
		Bypassed: a.bypassed,
		Attack:   a.attack,
		Decay:    a.decay,
		Sustain:  a.sustain,
		Release:  a.release,
	})
}
func (a *adsrParams) set(key string, value string) error {
	switch key {
	case "enabled":
		a.enabled = value == "true"
	case "bypassed":
		a.bypassed = value == "true"
	case "attack":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.attack = clamp(value, 0.001, 10)
	case "decay":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.decay = clamp(value, 0.001, 10)
	case "sustain":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.sustain = clamp(value, 0, 1)
	case "release":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.release = clamp(value, 0.001, 10)
	}
	return nil
}

// ----- ADSR ----- //

const (
	envIdle = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

// 1 +     x
//   |    / \
// s +   /   x------x
//   |  /            \
// 0 +-+---+--+------+---
//   |a    |d |      |r |

type adsr struct {
	attack  float64 // seconds
	decay   float64 // seconds
	sustain float64 // 0-1
	release float64 // seconds

	state        int
	level        float64
	pos          int     // samples into the current stage
	attackLevel  float64 // level captured at gateOn
	releaseLevel float64 // level captured at gateOff
}

func (a *adsr) setParams(p *adsrParams) {
	// 1ms floor keeps stage slopes finite
	a.attack = math.Max(0.001, p.attack)
	a.decay = math.Max(0.001, p.decay)
	a.sustain = clamp(p.sustain, 0, 1)
	a.release = math.Max(0.001, p.release)
}

// gateOn retriggers immediately, ramping up from wherever the level is.
func (a *adsr) gateOn() {
	a.state = envAttack
	a.pos = 0
	a.attackLevel = a.level
}

// gateOff starts the release from the current level, which may be
// anywhere in the cycle, not necessarily at sustain.
func (a *adsr) gateOff() {
	a.state = envRelease
	a.pos = 0
	a.releaseLevel = a.level
}

func (a *adsr) idle() bool {
	return a.state == envIdle
}

func (a *adsr) reset() {
	a.state = envIdle
	a.level = 0
	a.pos = 0
	a.attackLevel = 0
	a.releaseLevel = 0
}

// process advances the state machine sample by sample and writes the
// level trajectory into out.
func (a *adsr) process(out []float64) {
	for i := range out {
		switch a.state {
		case envAttack:
			a.pos++
			t := float64(a.pos) / (a.attack * sampleRate)
			if t >= 1 {
				a.level = 1
				a.state = envDecay
				a.pos = 0
			} else {
				a.level = a.attackLevel + (1-a.attackLevel)*t
			}
		case envDecay:
			a.pos++
			t := float64(a.pos) / (a.decay * sampleRate)
			if t >= 1 {
				a.level = a.sustain
				a.state = envSustain
				a.pos = 0
			} else {
				a.level = 1 - (1-a.sustain)*t
			}
		case envSustain:
			a.level = a.sustain
		case envRelease:
			a.pos++
			t := float64(a.pos) / (a.release * sampleRate)
			if t >= 1 {
				a.level = 0
				a.state = envIdle
				a.pos = 0
			} else {
				a.level = a.releaseLevel * (1 - t)
			}
		default:
			a.level = 0
		}
		out[i] = a.level
	}
}
