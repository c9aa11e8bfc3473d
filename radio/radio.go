// Package radio implements one radio's effects lifecycle and gain chain:
// the state machine that decides which synthetic effects (squelch click,
// ambient band noise, blocked-carrier tone) ride alongside decoded voice,
// and the fixed VHF filter + compressor chain applied to the mixed result.
//
// It mirrors ATCRadioState's per-radio field grouping (frequency, gain,
// squelch/bypass flags, effect generators, filter state) guarded by a
// single mutex — the "radio state lock" that must always be taken before
// any stream-map lock held elsewhere, to avoid the classic lock-ordering
// deadlock between per-radio state and the stream registries.
package radio

import (
	"math"
	"sync"

	"github.com/xpilot-project/afv-native/dsp"
	"github.com/xpilot-project/afv-native/effects"
)

// Phase is the radio's effects lifecycle state.
type Phase int

const (
	// PhaseSilent: no active incoming streams, no effects playing.
	PhaseSilent Phase = iota
	// PhaseReceiving: exactly one active incoming stream; decoded voice is
	// mixed with ambient band noise.
	PhaseReceiving
	// PhaseReceivingBlocked: two or more simultaneous incoming streams;
	// the blocked-carrier tone is mixed in on top of the decoded voice.
	PhaseReceivingBlocked
)

func (p Phase) String() string {
	switch p {
	case PhaseSilent:
		return "Silent"
	case PhaseReceiving:
		return "Receiving"
	case PhaseReceivingBlocked:
		return "Receiving-Blocked"
	default:
		return "Unknown"
	}
}

// EventKind identifies what changed on a radio, delivered to listeners
// registered with SetOnEvent.
type EventKind int

const (
	EventFrequencyChanged EventKind = iota
	EventPhaseChanged
)

// Event describes one state change on a Radio.
type Event struct {
	Kind      EventKind
	Frequency uint32
	Phase     Phase
}

// Radio holds one transceiver slot's state: tuned frequency, output gain,
// squelch/bypass flags, the per-radio VHF filter and compressor, and the
// effects lifecycle's current phase and active generators.
type Radio struct {
	mu sync.RWMutex

	frequency        uint32
	gain             float64
	distanceRatio    float64
	hfSquelchEnabled bool
	bypassEffects    bool
	onHeadset        bool

	phase       Phase
	activeCount int

	filter     *dsp.VHFFilter
	compressor *dsp.Compressor

	click     effects.Generator // non-nil only while a squelch-open click is playing
	blockTone effects.Generator
	crackle   effects.Generator
	vhfNoise  effects.Generator
	hfNoise   effects.Generator
	acBus     effects.Generator

	listeners []func(Event)

	lastPeak float64 // last tick's peak sample magnitude, for the VU meter

	genScratch []float32 // reusable scratch buffer for mixGenerator/mixOneShot, grown on first use
}

// New returns a Radio tuned to frequencyHz with default unity gain and HF
// squelch enabled.
func New(frequencyHz uint32) *Radio {
	r := &Radio{
		frequency:        frequencyHz,
		gain:             1.0,
		hfSquelchEnabled: true,
		phase:            PhaseSilent,
		filter:           dsp.NewVHFFilter(),
		compressor:       dsp.NewCompressor(dsp.DefaultCompressorParams()),
		blockTone:        effects.NewSineSource(dsp.BlockToneFreqHz, dsp.SampleRate),
		crackle:          effects.NewBuiltinGenerator(effects.KindCrackle, dsp.SampleRate),
		vhfNoise:         effects.NewBuiltinGenerator(effects.KindVHFNoise, dsp.SampleRate),
		hfNoise:          effects.NewBuiltinGenerator(effects.KindHFNoise, dsp.SampleRate),
		acBus:            effects.NewBuiltinGenerator(effects.KindACBus, dsp.SampleRate),
	}
	return r
}

// SetOnEvent registers a listener invoked synchronously for every
// frequency or phase change, matching the SetOnXxx(fn func(...)) listener
// convention used throughout this codebase; invoked under no lock, so
// listeners must not call back into the Radio they're registered on.
func (r *Radio) SetOnEvent(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Radio) emit(ev Event) {
	for _, fn := range r.listeners {
		fn(ev)
	}
}

// SetFrequency retunes the radio. A frequency change immediately drops any
// in-progress effects (ambient band noise, block tone, filter/compressor
// delay-line state) and returns the radio to PhaseSilent — but does not
// suppress the squelch-open click on the next transmission; that click is
// generated fresh the next time a stream arrives, exactly as it would be on
// first squelch-open.
func (r *Radio) SetFrequency(freq uint32) {
	r.mu.Lock()
	changed := freq != r.frequency
	r.frequency = freq
	if changed {
		r.phase = PhaseSilent
		r.activeCount = 0
		r.click = nil
		r.filter.Reset()
		r.compressor.Reset()
	}
	listeners := append([]func(Event){}, r.listeners...)
	r.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(Event{Kind: EventFrequencyChanged, Frequency: freq})
		}
	}
}

// Frequency returns the currently tuned frequency.
func (r *Radio) Frequency() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frequency
}

// SetGain sets the radio's output gain multiplier.
func (r *Radio) SetGain(gain float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gain = gain
}

// Gain returns the radio's output gain multiplier.
func (r *Radio) Gain() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gain
}

// SetDistanceRatio sets the distance ratio used to derive the crackle
// intensity for this radio's ambient effects (dsp.CrackleFactor). The
// mixer sets it from the matching transceiver of every packet it
// dispatches to this radio, so the most recent packet's ratio applies:
// distance ratio is tracked per-transceiver upstream, but crackle is mixed
// once per radio, after decoded voice has already been summed across
// streams.
func (r *Radio) SetDistanceRatio(dr float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.distanceRatio = dr
}

// ResetToSilent immediately drops this radio to PhaseSilent and clears its
// effects state, without waiting for a tick with activeCount 0 to observe
// the transition. Used for self-transmit muting: a radio the operator is
// currently transmitting on contributes nothing to the mix regardless of
// what it's receiving, so its effects lifecycle is held at rest rather
// than left to run through a reception it will never actually output.
func (r *Radio) ResetToSilent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = PhaseSilent
	r.activeCount = 0
	r.click = nil
	r.filter.Reset()
	r.compressor.Reset()
}

// SetHFSquelchEnabled toggles HF noise-bed squelch. This can be changed
// mid-reception without otherwise disturbing the current phase or
// transmission — only the HF noise gain used on the next tick changes.
func (r *Radio) SetHFSquelchEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hfSquelchEnabled = enabled
}

// HFSquelchEnabled reports the current HF squelch setting.
func (r *Radio) HFSquelchEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hfSquelchEnabled
}

// SetBypassEffects disables the VHF filter, compressor, and all synthetic
// effects, passing decoded voice straight through at the configured gain.
func (r *Radio) SetBypassEffects(bypass bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bypassEffects = bypass
}

// SetOnHeadset marks whether this radio's output is routed to the headset
// (as opposed to speaker) output buffer.
func (r *Radio) SetOnHeadset(onHeadset bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onHeadset = onHeadset
}

// OnHeadset reports the headset-routing flag.
func (r *Radio) OnHeadset() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onHeadset
}

// Phase returns the radio's current effects-lifecycle phase.
func (r *Radio) Phase() Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phase
}

// Peak returns the last tick's peak sample magnitude, in [0,1].
func (r *Radio) Peak() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastPeak
}

// Vu maps Peak onto a [0,1] ratio using dsp.VUFloorDB as the noise floor.
func (r *Radio) Vu() float64 {
	peak := r.Peak()
	if peak <= 0 {
		return 0
	}
	db := 20 * math.Log10(peak)
	if db < dsp.VUFloorDB {
		return 0
	}
	ratio := (db - dsp.VUFloorDB) / (0 - dsp.VUFloorDB)
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}
