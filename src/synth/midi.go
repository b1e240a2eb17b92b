package synth

import (
	"context"
	"log"
	"math"

	"gitlab.com/gomidi/rtmididrv"
)

// ----- MIDI Input ----- //

// ListenToMidiIn opens the first MIDI IN port and forwards raw messages
// until ctx is canceled.
func ListenToMidiIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 65536)
	go func() {
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		if len(ins) == 0 {
			log.Println("WARN: MIDI IN not found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			ch <- data
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		defer close(ch)
		<-ctx.Done()
	}()
	return ch
}

// ----- Control Change Map ----- //

// Knob layout of the hardware controller this was built against.
var oscMixCC = [oscPerVoice]uint8{14, 15, 16, 17}
var oscDetuneCC = [oscPerVoice]uint8{26, 27, 28, 29}
var adsrCC = [4]uint8{18, 19, 20, 21}

const (
	filterCutoffCC    = 22
	filterResonanceCC = 23
)

// AddMidiEvent decodes a raw MIDI message and applies it: note-on and
// note-off drive the voice pool, control changes write mapped
// parameters. Unmapped messages are dropped.
func (a *Audio) AddMidiEvent(data []byte) {
	if len(data) < 3 {
		return
	}
	switch data[0] >> 4 {
	case 8:
		a.NoteOff(int(data[1]))
	case 9:
		if data[2] == 0 {
			a.NoteOff(int(data[1]))
		} else {
			a.NoteOn(int(data[1]), int(data[2]))
		}
	case 11:
		a.handleControlChange(data[1], data[2])
	}
}

func (a *Audio) handleControlChange(cc uint8, value uint8) {
	normalized := float64(value) / 127.0
	a.state.Lock()
	defer a.state.Unlock()
	for i, c := range oscMixCC {
		if cc == c {
			a.state.params.oscParams[i].mix = normalized
			a.Changes.Add("data")
			return
		}
	}
	for i, c := range oscDetuneCC {
		if cc == c {
			// center of the knob is zero detune
			a.state.params.oscParams[i].detune = normalized*24 - 12
			a.Changes.Add("data")
			return
		}
	}
	switch cc {
	case filterCutoffCC:
		a.state.params.filterParams.cutoff = clamp(normalized, 0.01, 0.99)
		a.Changes.Add("data")
		a.Changes.Add("filter-shape")
	case filterResonanceCC:
		a.state.params.filterParams.resonance = clamp(normalized, 0, 0.99)
		a.Changes.Add("data")
		a.Changes.Add("filter-shape")
	case adsrCC[0]:
		a.state.params.adsrParams.attack = math.Max(0.001, normalized*2)
		a.Changes.Add("data")
	case adsrCC[1]:
		a.state.params.adsrParams.decay = math.Max(0.001, normalized*2)
		a.Changes.Add("data")
	case adsrCC[2]:
		a.state.params.adsrParams.sustain = normalized
		a.Changes.Add("data")
	case adsrCC[3]:
		a.state.params.adsrParams.release = math.Max(0.001, normalized*3)
		a.Changes.Add("data")
	}
}
