package effects

import "math"

// Kind identifies which effect generator a radio slot needs.
type Kind int

const (
	KindClick Kind = iota
	KindCrackle
	KindVHFNoise
	KindHFNoise
	KindACBus
	KindBlockTone
	KindPinkNoise
)

// Built-in fallback table lengths (in samples at 48 kHz) and amplitudes,
// used when the caller has not supplied real resource-file recordings.
// Loop tables are a few seconds long so the wraparound point is rarely
// audible; the click is short and percussive.
const (
	clickTableLen   = 48000 / 4  // 250 ms
	crackleTableLen = 48000 * 3  // 3 s
	vhfNoiseLen     = 48000 * 4  // 4 s
	hfNoiseLen      = 48000 * 4  // 4 s
	acBusLen        = 48000 * 2  // 2 s (hum loop, short period is fine — it's periodic anyway)
)

// builtinSeeds give each generator a distinct, fixed seed so their noise
// tables are uncorrelated with one another.
const (
	seedClick   = 0xC11C
	seedCrackle = 0xCACC1E
	seedVHF     = 0x1111
	seedHF      = 0x2222
	seedACBus   = 0x3333
)

// NewBuiltinGenerator returns a Generator of the requested Kind using the
// deterministic built-in fallback sample tables. sampleRate is used only by
// KindBlockTone and KindACBus.
func NewBuiltinGenerator(kind Kind, sampleRate float64) Generator {
	switch kind {
	case KindClick:
		return NewOneShotSource(BuiltinTable(clickTableLen, seedClick, 0.9))
	case KindCrackle:
		return NewLoopSource(BuiltinTable(crackleTableLen, seedCrackle, 0.5))
	case KindVHFNoise:
		return NewLoopSource(BuiltinTable(vhfNoiseLen, seedVHF, 0.35))
	case KindHFNoise:
		return NewLoopSource(BuiltinTable(hfNoiseLen, seedHF, 0.35))
	case KindACBus:
		return NewLoopSource(acBusHumTable(acBusLen, sampleRate))
	case KindBlockTone:
		return NewSineSource(180.0, sampleRate)
	case KindPinkNoise:
		return NewPinkNoiseSource(DeterministicRNG(seedACBus ^ seedVHF))
	default:
		return NewLoopSource(nil)
	}
}

// acBusHumTable synthesizes a 400 Hz fundamental plus a faint second
// harmonic, approximating the characteristic whine of an aircraft AC
// inverter bus, so the hum loop has real tonal content rather than noise.
func acBusHumTable(length int, sampleRate float64) []float32 {
	const fundamentalHz = 400.0
	table := make([]float32, length)
	for i := range table {
		t := float64(i) / sampleRate
		fundamental := 0.8 * math.Sin(2*math.Pi*fundamentalHz*t)
		harmonic := 0.2 * math.Sin(2*math.Pi*fundamentalHz*2*t)
		table[i] = float32((fundamental + harmonic) * 0.15)
	}
	return table
}
