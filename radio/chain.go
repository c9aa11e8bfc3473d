package radio

import (
	"github.com/xpilot-project/afv-native/dsp"
	"github.com/xpilot-project/afv-native/effects"
)

// ProcessInPlace runs one 20 ms tick of this radio's effects lifecycle and
// gain chain. buf holds the decoded voice samples already summed across
// every active stream on this frequency (silence, all zero, if
// activeCount is 0); it is rewritten in place with the final mixed,
// filtered, and gained output.
//
// activeCount is the number of currently-active incoming streams on this
// radio, as determined by the caller from the stream registry; it drives
// the Silent -> Receiving -> Receiving-Blocked phase transitions.
func (r *Radio) ProcessInPlace(activeCount int, buf []float32) {
	r.mu.Lock()

	phaseEvent, changed := r.transitionLocked(activeCount)

	switch r.phase {
	case PhaseSilent:
		for i := range buf {
			buf[i] = 0
		}
	case PhaseReceiving, PhaseReceivingBlocked:
		if r.bypassEffects {
			// Decoded voice passes straight through at the configured
			// gain; no synthetic effects of any kind are mixed in.
		} else {
			r.mixVoiceAndEffectsLocked(buf, r.phase == PhaseReceivingBlocked)
		}
	}

	if r.click != nil && !r.bypassEffects {
		stillPlaying := r.mixOneShot(r.click, buf, dsp.ClickGain)
		if !stillPlaying {
			r.click = nil
		}
	}

	peak := float64(0)
	gain := float32(r.gain)
	for i, s := range buf {
		v := s * gain
		buf[i] = v
		if a := absf32(v); float64(a) > peak {
			peak = float64(a)
		}
	}
	r.lastPeak = peak

	listeners := append([]func(Event){}, r.listeners...)
	r.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(phaseEvent)
		}
	}
}

// transitionLocked updates r.phase from the observed active stream count,
// returning the phase-changed event to deliver (if changed is true) once
// the caller has released r.mu. Must be called with r.mu held.
func (r *Radio) transitionLocked(activeCount int) (ev Event, changed bool) {
	prevPhase := r.phase
	var next Phase
	switch {
	case activeCount == 0:
		next = PhaseSilent
	case activeCount == 1:
		next = PhaseReceiving
	default:
		next = PhaseReceivingBlocked
	}

	if prevPhase == PhaseSilent && next != PhaseSilent {
		// Squelch opens: arm a fresh one-shot click, discarding any
		// leftover tail from a previous transmission.
		r.click = effects.NewBuiltinGenerator(effects.KindClick, dsp.SampleRate)
	}

	r.activeCount = activeCount
	if next != prevPhase {
		r.phase = next
		return Event{Kind: EventPhaseChanged, Phase: next, Frequency: r.frequency}, true
	}
	return Event{}, false
}

// mixVoiceAndEffectsLocked applies the per-band gain model to the decoded
// voice already summed in buf, then clips, filters, and compresses that
// voice alone before the ambient band-noise beds (crackle, VHF/HF noise,
// AC-bus hum) are added on top, unscaled by voiceGain. If blocked is true
// a continuous block tone is mixed in last, on top of everything else,
// since a collision never fully silences the already-processed voice.
// Must be called with r.mu held.
func (r *Radio) mixVoiceAndEffectsLocked(buf []float32, blocked bool) {
	gains := dsp.ComputeBandGains(r.frequency, r.distanceRatio, r.hfSquelchEnabled)

	voiceGain := float32(gains.VoiceGain)
	for i := range buf {
		buf[i] *= voiceGain
	}

	hardClip(buf)
	r.filter.Process(buf)
	r.compressor.Process(buf)

	if gains.CrackleGain > 0 {
		r.mixGenerator(r.crackle, buf, gains.CrackleGain)
	}
	if gains.VHFGain > 0 {
		r.mixGenerator(r.vhfNoise, buf, gains.VHFGain)
	}
	if gains.HFGain > 0 {
		r.mixGenerator(r.hfNoise, buf, gains.HFGain)
	}
	if gains.ACBusGain > 0 {
		r.mixGenerator(r.acBus, buf, gains.ACBusGain)
	}

	if blocked {
		r.mixGenerator(r.blockTone, buf, dsp.BlockToneGain)
	}
}

// hardClip clamps every sample in buf to [-1, 1] before it enters the VHF
// filter, which assumes a bounded input range.
func hardClip(buf []float32) {
	for i, v := range buf {
		if v > 1 {
			buf[i] = 1
		} else if v < -1 {
			buf[i] = -1
		}
	}
}

// scratchFor returns this radio's reusable generator scratch buffer,
// growing it only the first time a tick needs more room than it already
// has. mixGenerator and mixOneShot are the only callers, always under
// r.mu, so reuse across the several effect generators mixed in one tick
// is safe.
func (r *Radio) scratchFor(n int) []float32 {
	if cap(r.genScratch) < n {
		r.genScratch = make([]float32, n)
	}
	return r.genScratch[:n]
}

// mixGenerator draws len(buf) samples from g and adds them, scaled by
// gain, into buf.
func (r *Radio) mixGenerator(g effectsGenerator, buf []float32, gain float64) {
	scratch := r.scratchFor(len(buf))
	g.Generate(scratch)
	for i := range buf {
		buf[i] += scratch[i] * float32(gain)
	}
}

// mixOneShot draws len(buf) samples from g and adds them, scaled by gain,
// reporting whether g has more to produce.
func (r *Radio) mixOneShot(g effectsGenerator, buf []float32, gain float64) bool {
	scratch := r.scratchFor(len(buf))
	more := g.Generate(scratch)
	for i := range buf {
		buf[i] += scratch[i] * float32(gain)
	}
	return more
}

// effectsGenerator aliases effects.Generator to keep this file's reads
// self-contained.
type effectsGenerator = effects.Generator

func absf32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
