package synth

import (
	"context"
	"fmt"
	"testing"
)

// newTestAudio builds the engine without opening an audio device.
func newTestAudio() *Audio {
	return &Audio{
		ctx:   context.Background(),
		state: newState(),
		Changes: &Changes{
			dict: make(map[string]struct{}),
		},
		monitor:   newMonitor(monitorMix, monitorAudioOut, monitorLfo),
		fftResult: make([]float64, fftSize),
	}
}

func TestReadSilenceWhenIdle(t *testing.T) {
	audio := newTestAudio()
	out := make([]byte, bufferSizeInBytes)
	n, err := audio.Read(out)
	expectNoError(t, err)
	expectEqual(t, n, bufferSizeInBytes)
	for i, b := range out {
		if b != 0 {
			t.Fatalf("expected silence, got %v at byte %v", b, i)
		}
	}
}

func TestReadProducesSignalAfterNoteOn(t *testing.T) {
	audio := newTestAudio()
	audio.NoteOn(69, 127)
	out := make([]byte, bufferSizeInBytes)
	_, err := audio.Read(out)
	expectNoError(t, err)
	nonZero := 0
	for _, b := range out {
		if b != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Errorf("expected audible output after note-on")
	}
}

func TestUpdateSetCommands(t *testing.T) {
	audio := newTestAudio()
	expectNoError(t, audio.update([]string{"set", "osc", "0", "kind", "saw"}))
	expectEqual(t, audio.state.params.oscParams[0].kind, waveSaw)
	expectNoError(t, audio.update([]string{"set", "osc", "2", "mix", "0.8"}))
	expectNearlyEqual(t, audio.state.params.oscParams[2].mix, 0.8)
	expectNoError(t, audio.update([]string{"set", "filter", "cutoff", "0.4"}))
	expectNearlyEqual(t, audio.state.params.filterParams.cutoff, 0.4)
	expectNoError(t, audio.update([]string{"set", "adsr", "attack", "0.2"}))
	expectNearlyEqual(t, audio.state.params.adsrParams.attack, 0.2)
	expectNoError(t, audio.update([]string{"set", "noise", "sub", "0.3"}))
	expectNearlyEqual(t, audio.state.params.noiseParams.sub, 0.3)
	expectNoError(t, audio.update([]string{"set", "lfo", "freq", "2"}))
	expectNearlyEqual(t, audio.state.params.lfoParams.freq, 2)
	expectNoError(t, audio.update([]string{"set", "fx", "1", "kind", "delay"}))
	expectEqual(t, audio.state.params.fxParams[1].kind, fxDelay)
	expectNoError(t, audio.update([]string{"set", "master", "gain", "0.5"}))
	expectNearlyEqual(t, audio.state.params.masterGain, 0.5)
	expectEqual(t, audio.Changes.Has("data"), true)
}

func TestUpdateRejectsInvalidCommands(t *testing.T) {
	audio := newTestAudio()
	expectError(t, audio.update([]string{"explode"}))
	expectError(t, audio.update([]string{"set", "osc", "9", "mix", "0.5"}))
	expectError(t, audio.update([]string{"set", "fx", "7", "kind", "delay"}))
	expectError(t, audio.update([]string{"set", "unknown", "a", "b"}))
	expectError(t, audio.update([]string{"note_on", "60"}))
	expectError(t, audio.update([]string{"lfo", "add_target", "osc9_mix"}))
}

func TestUpdateNoteLifecycle(t *testing.T) {
	audio := newTestAudio()
	expectNoError(t, audio.update([]string{"note_on", "60", "100"}))
	expectEqual(t, audio.state.synth.activeCount(), 1)
	expectNoError(t, audio.update([]string{"note_off", "60"}))
	expectNoError(t, audio.update([]string{"reset"}))
	expectEqual(t, audio.state.synth.activeCount(), 0)
}

func TestUpdateLfoTargets(t *testing.T) {
	audio := newTestAudio()
	expectNoError(t, audio.update([]string{"lfo", "add_target", "filter_cutoff"}))
	expectEqual(t, len(audio.state.router.targets), 1)
	expectNoError(t, audio.update([]string{"lfo", "remove_target", "filter_cutoff"}))
	expectEqual(t, len(audio.state.router.targets), 0)
}

func TestPresetCommands(t *testing.T) {
	audio := newTestAudio()
	audio.state.presets = newPresetManager(t.TempDir())
	expectNoError(t, audio.update([]string{"set", "filter", "cutoff", "0.42"}))
	expectNoError(t, audio.update([]string{"preset", "save", "bright"}))
	expectNoError(t, audio.update([]string{"set", "filter", "cutoff", "0.9"}))
	expectNoError(t, audio.update([]string{"preset", "load", "bright"}))
	expectNearlyEqual(t, audio.state.params.filterParams.cutoff, 0.42)
	expectError(t, audio.update([]string{"preset"}))
	expectError(t, audio.update([]string{"preset", "load", "missing"}))
	expectError(t, audio.update([]string{"preset", "rename", "bright"}))
}

func TestPresetListReport(t *testing.T) {
	audio := newTestAudio()
	audio.state.presets = newPresetManager(t.TempDir())
	expectNoError(t, audio.update([]string{"preset", "save", "one"}))
	expectNoError(t, audio.update([]string{"preset", "save", "two"}))
	expectNoError(t, audio.update([]string{"preset", "list"}))
	expectEqual(t, audio.Changes.Has("preset-list"), true)

	names := audio.PresetNames()
	expectEqual(t, len(names), 2)
	expectEqual(t, names[0], "one")
	expectEqual(t, names[1], "two")

	// the report sender clears the flag once the list has been sent
	audio.Changes.Delete("preset-list")
	expectEqual(t, audio.Changes.Has("preset-list"), false)
}

func TestJSONRoundTrip(t *testing.T) {
	audio := newTestAudio()
	expectNoError(t, audio.update([]string{"set", "osc", "0", "kind", "triangle"}))
	expectNoError(t, audio.update([]string{"set", "master", "pan", "-0.5"}))
	data := audio.ToJSON()

	restored := newTestAudio()
	restored.ApplyJSON(data)
	expectEqual(t, restored.state.params.oscParams[0].kind, waveTriangle)
	expectNearlyEqual(t, restored.state.params.masterPan, -0.5)
}

func TestGetSpectrumLength(t *testing.T) {
	audio := newTestAudio()
	audio.NoteOn(69, 127)
	out := make([]byte, bufferSizeInBytes)
	for i := 0; i < 4; i++ {
		_, err := audio.Read(out)
		expectNoError(t, err)
	}
	spectrum := audio.GetSpectrum()
	expectEqual(t, len(spectrum), fftSize/2)
}

func TestGetSignalSnapshot(t *testing.T) {
	audio := newTestAudio()
	audio.NoteOn(69, 127)
	out := make([]byte, bufferSizeInBytes)
	_, err := audio.Read(out)
	expectNoError(t, err)
	signal := audio.GetSignal(monitorMix)
	expectEqual(t, len(signal), monitorRingSize)
	expectEqual(t, audio.GetSignal("unknown") == nil, true)
}

func TestMidiEvents(t *testing.T) {
	audio := newTestAudio()
	audio.AddMidiEvent([]byte{0x90, 69, 100})
	expectEqual(t, audio.state.synth.activeCount(), 1)
	audio.AddMidiEvent([]byte{0x80, 69, 0})
	expectEqual(t, audio.state.synth.voices[0].env.state, envRelease)
	// velocity-zero note-on is a note-off
	audio.AddMidiEvent([]byte{0x90, 69, 100})
	audio.AddMidiEvent([]byte{0x90, 69, 0})
	expectEqual(t, audio.state.synth.voices[0].env.state, envRelease)

	audio.AddMidiEvent([]byte{0xB0, filterCutoffCC, 127})
	expectNearlyEqual(t, audio.state.params.filterParams.cutoff, 0.99)
	audio.AddMidiEvent([]byte{0xB0, 14, 64})
	expectNearlyEqual(t, audio.state.params.oscParams[0].mix, 64.0/127)
}

func TestBenchmark(t *testing.T) {
	polyphony := 10
	times := 1000

	audio := newTestAudio()
	out := make([]byte, bufferSizeInBytes)
	expectNoError(t, audio.update([]string{"set", "fx", "0", "kind", "chorus"}))
	expectNoError(t, audio.update([]string{"set", "fx", "1", "kind", "reverb"}))
	expectNoError(t, audio.update([]string{"lfo", "add_target", "filter_cutoff"}))
	_, err := audio.Read(out)
	expectNoError(t, err)
	for n := 0; n < polyphony; n++ {
		audio.NoteOn(60+n, 100)
	}
	start := now()
	for n := 0; n < times; n++ {
		_, err = audio.Read(out)
		expectNoError(t, err)
	}
	end := now()
	averageProcessTime := (end - start) / float64(times) * 1000
	fmt.Printf("average process time: %.2fms\n", averageProcessTime)
}
