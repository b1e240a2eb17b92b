package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/hajimehoshi/oto"
)

const (
	sampleRate      = 44100
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	fftSize         = 2048 // multiple of samplesPerCycle
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate

var fft = NewFFT(fftSize, false)

// ----- Utility ----- //

func now() float64 {
	return float64(time.Now().UnixNano()) / 1000 / 1000 / 1000
}
func positiveMod(a float64, b float64) float64 {
	if b < 0 {
		panic("b should not be negative")
	}
	for a < 0 {
		a += b
	}
	return math.Mod(a, b)
}
func clamp(v float64, min float64, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- Changes ----- //

// Changes tracks which parts of the state the control surface should
// re-read.
type Changes struct {
	sync.Mutex
	dict map[string]struct{}
}

// Add ...
func (c *Changes) Add(key string) {
	c.Lock()
	c.dict[key] = struct{}{}
	c.Unlock()
}

// Has ...
func (c *Changes) Has(key string) bool {
	c.Lock()
	_, ok := c.dict[key]
	c.Unlock()
	return ok
}

// Delete ...
func (c *Changes) Delete(key string) {
	c.Lock()
	delete(c.dict, key)
	c.Unlock()
}

// ----- State ----- //

// state is everything the engine lock guards: the parameter store, the
// voice pool, the modulation router and the effects chain. The lock is
// held for the whole of Read() and for every control-event handler.
type state struct {
	sync.Mutex
	params  *params
	synth   *synthesizer
	router  *modRouter
	chain   *fxChain
	presets *presetManager
	pos     int64
	out     []float64 // length: fftSize, ring for the spectrum snapshot
}

func newState() *state {
	return &state{
		params:  newParams(),
		synth:   newSynthesizer(),
		router:  newModRouter(),
		chain:   newFxChain(),
		presets: newPresetManager("presets"),
		out:     make([]float64, fftSize),
	}
}

// ----- Audio ----- //

// Audio renders the synthesizer into the oto player through io.Reader.
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	state      *state
	Changes    *Changes
	monitor    *monitor
	fftResult  []float64 // length: fftSize
}

var _ io.Reader = (*Audio)(nil)

// NewAudio opens the audio device. A device-level failure here is fatal
// to stream startup and is returned to the caller, never retried.
func NewAudio() (*Audio, error) {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	commandCh := make(chan []string, 256)
	audio := &Audio{
		ctx:        context.Background(),
		otoContext: otoContext,
		CommandCh:  commandCh,
		state:      newState(),
		Changes: &Changes{
			dict: make(map[string]struct{}),
		},
		monitor:   newMonitor(monitorMix, monitorAudioOut, monitorLfo),
		fftResult: make([]float64, fftSize),
	}
	go processCommands(audio, commandCh)
	return audio, nil
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		err := audio.update(command)
		if err != nil {
			log.Printf("command error: %v\n", err)
		}
	}
	log.Println("processCommands() ended.")
}

// Read renders one cycle of audio into buf as interleaved 16-bit
// stereo. Any fault during rendering is converted to a silent buffer;
// nothing ever propagates across the real-time boundary.
func (a *Audio) Read(buf []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("render fault, substituting silence: %v\n", r)
			for i := range buf {
				buf[i] = 0
			}
			n, err = len(buf), nil
		}
	}()
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		a.state.Lock()
		defer a.state.Unlock()
		frames := len(buf) / bytesPerSample

		lfoBuf := a.state.router.step(a.state.params, frames)

		offset := a.state.pos % fftSize
		out := a.state.out[offset : offset+int64(frames)]
		a.state.synth.render(a.state.params, out)
		a.monitor.push(monitorMix, out)
		a.monitor.push(monitorLfo, lfoBuf)

		a.state.chain.applyParams(a.state.params.fxParams)
		gain := a.state.params.masterGain
		pan := a.state.params.masterPan
		lgain := math.Min(1, 1-pan)
		rgain := math.Min(1, 1+pan)
		for i := 0; i < frames; i++ {
			v := out[i] * gain
			l, r := a.state.chain.step(v*lgain, v*rgain)
			writeSample(buf, i, 0, l)
			writeSample(buf, i, 1, r)
			out[i] = (l + r) / 2 // post-chain signal feeds the spectrum
		}
		a.monitor.push(monitorAudioOut, out)
		a.state.pos += int64(frames)
		return len(buf), nil
	}
}

func writeSample(buf []byte, i int, ch int, value float64) {
	const max = 32767
	b := int16(clamp(value, -1, 1) * max)
	buf[bytesPerSample*i+2*ch] = byte(b)
	buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
}

// ----- Engine Operations ----- //

// NoteOn triggers a voice. note and velocity are MIDI-range ints.
func (a *Audio) NoteOn(note int, velocity int) {
	a.state.Lock()
	defer a.state.Unlock()
	a.state.synth.noteOn(note, clamp(float64(velocity)/127.0, 0, 1))
}

// NoteOff releases the first voice holding note.
func (a *Audio) NoteOff(note int) {
	a.state.Lock()
	defer a.state.Unlock()
	a.state.synth.noteOff(note)
}

// ResetAll silences every voice and clears effect tails immediately.
func (a *Audio) ResetAll() {
	a.state.Lock()
	defer a.state.Unlock()
	a.state.synth.resetAll()
	a.state.chain.reset()
}

func (a *Audio) update(command []string) error {
	a.state.Lock()
	defer a.state.Unlock()

	switch command[0] {
	case "set":
		command = command[1:]
		if len(command) < 1 {
			return fmt.Errorf("invalid set command")
		}
		switch command[0] {
		case "osc":
			command = command[1:]
			if len(command) != 3 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			index, err := strconv.ParseInt(command[0], 10, 64)
			if err != nil {
				return err
			}
			if index < 0 || int(index) >= len(a.state.params.oscParams) {
				return fmt.Errorf("invalid osc index %v", index)
			}
			if err := a.state.params.oscParams[index].set(command[1], command[2]); err != nil {
				return err
			}
		case "noise":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			if err := a.state.params.noiseParams.set(command[0], command[1]); err != nil {
				return err
			}
		case "adsr":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			if err := a.state.params.adsrParams.set(command[0], command[1]); err != nil {
				return err
			}
		case "filter":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			if err := a.state.params.filterParams.set(command[0], command[1]); err != nil {
				return err
			}
			a.Changes.Add("filter-shape")
		case "lfo":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			if err := a.state.params.lfoParams.set(command[0], command[1]); err != nil {
				return err
			}
		case "fx":
			command = command[1:]
			if len(command) != 3 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			slot, err := strconv.ParseInt(command[0], 10, 64)
			if err != nil {
				return err
			}
			if slot < 0 || int(slot) >= len(a.state.params.fxParams) {
				return fmt.Errorf("invalid fx slot %v", slot)
			}
			if err := a.state.params.fxParams[slot].set(command[1], command[2]); err != nil {
				return err
			}
		case "master":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			if err := a.state.params.setMaster(command[0], command[1]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown set target %v", command[0])
		}
		a.Changes.Add("data")
	case "lfo":
		command = command[1:]
		if len(command) != 2 {
			return fmt.Errorf("invalid lfo command %v", command)
		}
		switch command[0] {
		case "add_target":
			base, ok := a.state.params.getFloat(command[1])
			if !ok {
				return fmt.Errorf("unknown modulation target %v", command[1])
			}
			a.state.router.addTarget(command[1], base)
		case "remove_target":
			a.state.router.removeTarget(command[1])
		default:
			return fmt.Errorf("unknown lfo command %v", command[0])
		}
		a.Changes.Add("data")
	case "preset":
		command = command[1:]
		if len(command) < 1 {
			return fmt.Errorf("invalid preset command")
		}
		switch command[0] {
		case "list":
			a.Changes.Add("preset-list")
		case "load":
			if len(command) != 2 {
				return fmt.Errorf("invalid preset command %v", command)
			}
			if err := a.state.presets.applyToParams(command[1], a.state.params); err != nil {
				return err
			}
			a.Changes.Add("data")
		case "save":
			if len(command) != 2 {
				return fmt.Errorf("invalid preset command %v", command)
			}
			if err := a.state.presets.saveFromParams(command[1], a.state.params); err != nil {
				return err
			}
			a.Changes.Add("preset-list")
		default:
			return fmt.Errorf("unknown preset command %v", command[0])
		}
	case "note_on":
		if len(command) != 3 {
			return fmt.Errorf("invalid note_on %v", command)
		}
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		velocity, err := strconv.ParseInt(command[2], 10, 32)
		if err != nil {
			return err
		}
		a.state.synth.noteOn(int(note), clamp(float64(velocity)/127.0, 0, 1))
	case "note_off":
		if len(command) != 2 {
			return fmt.Errorf("invalid note_off %v", command)
		}
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		a.state.synth.noteOff(int(note))
	case "reset":
		a.state.synth.resetAll()
		a.state.chain.reset()
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

// ----- JSON ----- //

type audioJSON struct {
	Params json.RawMessage `json:"params"`
}

// ApplyJSON ...
func (a *Audio) ApplyJSON(data []byte) {
	a.state.Lock()
	defer a.state.Unlock()
	var j audioJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to Audio", err)
		return
	}
	a.state.params.applyJSON(j.Params)
}

// ToJSON ...
func (a *Audio) ToJSON() []byte {
	a.state.Lock()
	defer a.state.Unlock()
	bytes, err := json.Marshal(toRawMessage(&audioJSON{
		Params: a.state.params.toJSON(),
	}))
	if err != nil {
		panic(err)
	}
	return bytes
}

// ----- Reports ----- //

// GetSpectrum returns the magnitude spectrum of the most recent output.
func (a *Audio) GetSpectrum() []float64 {
	a.state.Lock()
	// out:       | 4 | 1 | 2 | 3 |
	// offset:        ^
	// fftResult: | 1 | 2 | 3 | 4 |
	offset := a.state.pos % fftSize
	copy(a.fftResult, a.state.out[offset:])
	copy(a.fftResult[fftSize-offset:], a.state.out[:offset])
	a.state.Unlock()
	Han(a.fftResult)
	fft.CalcAbs(a.fftResult)
	for i, value := range a.fftResult {
		a.fftResult[i] = value * 2 / fftSize
	}
	return a.fftResult[:fftSize/2]
}

// GetSignal returns a monitor tap snapshot for display, oldest first.
func (a *Audio) GetSignal(name string) []float64 {
	return a.monitor.snapshot(name)
}

// PresetNames returns the names of the stored presets.
func (a *Audio) PresetNames() []string {
	a.state.Lock()
	defer a.state.Unlock()
	list, err := a.state.presets.getList()
	if err != nil {
		log.Printf("failed to load preset list: %v\n", err)
		return nil
	}
	names := make([]string, len(list))
	for i, meta := range list {
		names[i] = meta.name
	}
	return names
}

// ----- Lifecycle ----- //

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	return a.otoContext.Close()
}

// Start blocks rendering into the player until ctx is canceled.
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}
