// Package effects implements the pluggable sample producers a radio mixes
// in alongside decoded voice: band-limited recorded loops (VHF/HF noise
// beds, AC-bus hum, crackle), a one-shot squelch click, a continuous
// blocked-carrier sine tone, and a pink-noise generator. Every generator
// produces exactly one frame per call, is non-blocking, and deterministic.
//
// Recorded-loop generators are parameterized by an immutable []float32
// sample table. Resource loading lives outside the core (§1); callers that
// have real recorded samples pass them to NewLoopSource/NewOneShotSource.
// For callers without resource files, BuiltinTable synthesizes a
// deterministic fallback table from a fixed seed so the generators remain
// usable and testable standalone.
package effects

import "math"

// Generator produces one frame of samples per call into out (len(out) ==
// the caller's frame size). It returns false once it has nothing further to
// produce — only one-shot generators (the click) ever do this; looping and
// continuous generators always return true.
type Generator interface {
	Generate(out []float32) bool
}

// LoopSource wraps an immutable sample table and plays it back looping
// indefinitely, used for the VHF noise, HF noise, AC-bus hum, and crackle
// recorded-loop beds.
type LoopSource struct {
	table []float32
	pos   int
}

// NewLoopSource returns a LoopSource over table, starting at the beginning.
func NewLoopSource(table []float32) *LoopSource {
	return &LoopSource{table: table}
}

// Generate fills out by copying from the table, wrapping at the end.
func (l *LoopSource) Generate(out []float32) bool {
	if len(l.table) == 0 {
		for i := range out {
			out[i] = 0
		}
		return true
	}
	for i := range out {
		out[i] = l.table[l.pos]
		l.pos++
		if l.pos >= len(l.table) {
			l.pos = 0
		}
	}
	return true
}

// OneShotSource plays an immutable sample table exactly once and then
// reports exhaustion, used for the squelch-open click.
type OneShotSource struct {
	table []float32
	pos   int
}

// NewOneShotSource returns a OneShotSource over table.
func NewOneShotSource(table []float32) *OneShotSource {
	return &OneShotSource{table: table}
}

// Generate copies the next segment of the table into out, zero-padding the
// tail once the table is exhausted. Returns false once the table has been
// fully consumed (the caller should then release this source).
func (o *OneShotSource) Generate(out []float32) bool {
	remaining := len(o.table) - o.pos
	if remaining <= 0 {
		for i := range out {
			out[i] = 0
		}
		return false
	}
	n := len(out)
	if n > remaining {
		n = remaining
	}
	copy(out, o.table[o.pos:o.pos+n])
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	o.pos += n
	return o.pos < len(o.table)
}

// SineSource generates a continuous sine tone at a fixed frequency, used
// for the 180 Hz blocked-carrier tone. Unlike the UI notification chimes it
// has no envelope or duration — it plays for as long as the radio keeps it
// instantiated.
type SineSource struct {
	freqHz     float64
	sampleRate float64
	phase      float64
}

// NewSineSource returns a SineSource at freqHz, sampled at sampleRate.
func NewSineSource(freqHz, sampleRate float64) *SineSource {
	return &SineSource{freqHz: freqHz, sampleRate: sampleRate}
}

// Generate fills out with the next segment of the sine wave, advancing the
// phase accumulator continuously across calls (no clicks at frame
// boundaries).
func (s *SineSource) Generate(out []float32) bool {
	step := 2 * math.Pi * s.freqHz / s.sampleRate
	for i := range out {
		out[i] = float32(math.Sin(s.phase))
		s.phase += step
		if s.phase > 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
	return true
}

// PinkNoiseSource generates pink (1/f) noise using the Voss-McCartney
// algorithm: a small bank of white-noise generators updated at
// geometrically decreasing rates, summed together.
type PinkNoiseSource struct {
	rows  []float64
	total float64
	rng   func() float64
	index uint32
}

const pinkNoiseRows = 16

// NewPinkNoiseSource returns a PinkNoiseSource driven by rng, a function
// returning uniform samples in [-1, 1]. Pass DeterministicRNG(seed) for
// reproducible output in tests.
func NewPinkNoiseSource(rng func() float64) *PinkNoiseSource {
	return &PinkNoiseSource{
		rows: make([]float64, pinkNoiseRows),
		rng:  rng,
	}
}

// Generate fills out with pink noise samples scaled to roughly [-1, 1].
func (p *PinkNoiseSource) Generate(out []float32) bool {
	for i := range out {
		p.index++
		// Update the row whose bit position is the lowest set bit of the
		// running sample index — the classic Voss-McCartney update rule.
		lastIdx := p.index - 1
		var row int
		if lastIdx == 0 {
			row = 0
		} else {
			row = trailingZeros32(lastIdx)
			if row >= len(p.rows) {
				row = len(p.rows) - 1
			}
		}
		p.total -= p.rows[row]
		p.rows[row] = p.rng()
		p.total += p.rows[row]

		out[i] = float32(p.total / float64(pinkNoiseRows))
	}
	return true
}

func trailingZeros32(v uint32) int {
	n := 0
	for v&1 == 0 && n < 32 {
		v >>= 1
		n++
	}
	return n
}

// DeterministicRNG returns a reproducible uniform-noise generator in
// [-1, 1] seeded by seed, suitable for PinkNoiseSource and BuiltinTable.
// It is a tiny xorshift32 PRNG rather than math/rand so it has no external
// state and behaves identically across Go versions.
func DeterministicRNG(seed uint32) func() float64 {
	state := seed
	if state == 0 {
		state = 0x9e3779b9
	}
	return func() float64 {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		return float64(state)/float64(1<<31) - 1.0
	}
}

// BuiltinTable synthesizes a deterministic band-limited noise table of the
// given length, for use as a fallback recorded-loop sample when the caller
// has not supplied real resource-file audio. amplitude scales the result to
// roughly [-amplitude, amplitude].
func BuiltinTable(length int, seed uint32, amplitude float32) []float32 {
	rng := DeterministicRNG(seed)
	table := make([]float32, length)
	// A simple one-pole lowpass smooths the raw white noise so the loop
	// has some spectral shape rather than being flat hiss.
	var prev float32
	const smoothing = 0.6
	for i := range table {
		raw := float32(rng())
		v := prev*smoothing + raw*(1-smoothing)
		prev = v
		table[i] = v * amplitude
	}
	return table
}
