package dsp

import "math"

// Compressor is a soft-knee dynamic-range compressor applied to each radio
// channel after the VHF filter cascade. It tracks a per-sample gain
// reduction envelope in the dB domain with independent attack and release
// time constants, smoothing across the knee width around the threshold.
type Compressor struct {
	params CompressorParams

	attackCoeff  float64
	releaseCoeff float64
	preGainLin   float64

	envDb float64 // current smoothed gain-reduction envelope, in dB (<=0)
}

// NewCompressor returns a Compressor configured with p.
// DefaultCompressorParams gives the design's fixed soft-knee parameters
// (ratio 30:1, threshold -24 dB, knee 12 dB, attack 3 ms, release 6 ms).
func NewCompressor(p CompressorParams) *Compressor {
	c := &Compressor{params: p}
	c.attackCoeff = timeConstant(p.AttackMs, p.SampleRate)
	c.releaseCoeff = timeConstant(p.ReleaseMs, p.SampleRate)
	c.preGainLin = math.Pow(10, p.PreGainDB/20)
	return c
}

// timeConstant converts a millisecond attack/release time into a one-pole
// smoothing coefficient for the given sample rate.
func timeConstant(ms, sampleRate float64) float64 {
	if ms <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (ms / 1000.0 * sampleRate))
}

const compressorFloor = 1e-9 // avoids log10(0) on true silence

// gainReductionDb computes the instantaneous (unsmoothed) gain reduction in
// dB for one input sample level, applying the soft knee around threshold.
func (c *Compressor) gainReductionDb(levelDb float64) float64 {
	p := c.params
	lowKnee := p.ThresholdDB - p.KneeDB/2
	highKnee := p.ThresholdDB + p.KneeDB/2

	switch {
	case levelDb < lowKnee:
		return 0
	case levelDb > highKnee:
		return (p.ThresholdDB - levelDb) * (1 - 1/p.Ratio)
	default:
		over := levelDb - lowKnee
		return -(1 - 1/p.Ratio) * (over * over) / (2 * p.KneeDB)
	}
}

// Process compresses buf in place.
func (c *Compressor) Process(buf []float32) {
	for i, x := range buf {
		in := float64(x) * c.preGainLin
		levelDb := 20 * math.Log10(math.Max(math.Abs(in), compressorFloor))

		targetDb := c.gainReductionDb(levelDb)

		// Attack when reduction is increasing (more negative), release
		// when it is recovering back toward 0.
		coeff := c.releaseCoeff
		if targetDb < c.envDb {
			coeff = c.attackCoeff
		}
		c.envDb = targetDb + coeff*(c.envDb-targetDb)

		gain := math.Pow(10, c.envDb/20)
		buf[i] = float32(in * gain)
	}
}

// Reset clears the compressor's gain-reduction envelope.
func (c *Compressor) Reset() {
	c.envDb = 0
}
