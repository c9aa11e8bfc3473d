// Package dsp implements the fixed-coefficient VHF/HF signal chain shared by
// every radio: the band-limiting biquad cascade, the soft-knee dynamic-range
// compressor that follows it, and the per-stream gain model that derives
// mix levels from a transceiver's frequency and distance ratio.
//
// All constants here are reproduced bit-for-bit from the design so that
// output audio matches the reference implementation.
package dsp

const (
	// SampleRate is the fixed audio sample rate, in Hz.
	SampleRate = 48000

	// FrameSize is the number of mono samples in one 20 ms frame at 48 kHz.
	FrameSize = 960

	// ClickGain is the mix level applied to the one-shot squelch-open click.
	ClickGain = 1.3

	// BlockToneFreqHz is the frequency of the continuous blocked-carrier tone.
	BlockToneFreqHz = 180.0

	// BlockToneGain is the mix level applied to the block tone when two or
	// more concurrent transmissions are present on a radio.
	BlockToneGain = 0.25

	// ACBusGainVHF is the AC-bus hum mix level on a VHF radio.
	ACBusGainVHF = 0.005
	// ACBusGainHF is the AC-bus hum mix level on an HF radio.
	ACBusGainHF = 0.001

	// VHFNoiseGain is the white-noise-bed mix level on a VHF radio.
	VHFNoiseGain = 0.17
	// HFNoiseGain is the white-noise-bed mix level on an HF radio with
	// squelch disabled.
	HFNoiseGain = 0.16

	// VUFloorDB is the noise floor used when mapping peak level to the VU
	// meter's [0,1] ratio.
	VUFloorDB = -40.0

	// HFBandLimitHz is the frequency boundary below which a transceiver is
	// treated as HF rather than VHF.
	HFBandLimitHz = 30_000_000

	// DefaultMaintenanceIntervalMs is the stream-registry sweep cadence.
	DefaultMaintenanceIntervalMs = 30_000
)

// CompressorParams holds the fixed soft-knee compressor configuration
// applied after the VHF filter cascade on every radio channel.
type CompressorParams struct {
	SampleRate  float64
	PreGainDB   float64
	ThresholdDB float64
	KneeDB      float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
}

// DefaultCompressorParams returns the fixed compressor configuration
// reproduced from the design (§6).
func DefaultCompressorParams() CompressorParams {
	return CompressorParams{
		SampleRate:  SampleRate,
		PreGainDB:   0, // pre-gain 1.0 linear == 0 dB
		ThresholdDB: -24,
		KneeDB:      12,
		Ratio:       30,
		AttackMs:    3,
		ReleaseMs:   6,
	}
}

// Section is one biquad filter stage: b0,b1,b2 are the feed-forward
// (numerator) coefficients and a0,a1,a2 the feedback (denominator)
// coefficients, applied as:
//
//	y[n] = (b0*x[n] + b1*x[n-1] + b2*x[n-2] - a1*y[n-1] - a2*y[n-2]) / a0
type Section struct {
	B0, B1, B2 float64
	A0, A1, A2 float64
}

// VHFFilterSections are the seven fixed biquad sections that shape the
// telephone-bandwidth voice spectrum, reproduced verbatim from the design.
var VHFFilterSections = []Section{
	{1, 0, 0, -0.01, 0, 0},
	{1, -1.7152995098277, 0.761385315196423, 0, 1, 0.753162969638192},
	{1, -1.71626681678914, 0.762433947105989, 1, -2.29278115712509, 1.00033663293577},
	{1, -1.79384214686345, 0.909678364879526, 1, -2.05042803669041, 1.05048374237779},
	{1, -1.79409285259567, 0.909822671281377, 1, -1.95188929743297, 0.951942325888074},
	{1, -1.9390093095185, 0.9411847259142, 1, -1.82547932903698, 1.09157529229851},
	{1, -1.94022767750807, 0.942630574503006, 1, -1.67241244173042, 0.916184578658119},
}
