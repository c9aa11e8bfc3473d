// Package codec wraps the Opus voice codec behind small interfaces so the
// mixing core can be tested without linking libopus.
package codec

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/xpilot-project/afv-native/afverr"
)

// MaxPacketBytes is the maximum size of one compressed Opus frame, per
// RFC 6716.
const MaxPacketBytes = 1275

// Encoder turns one 20 ms PCM frame into a compressed byte vector.
type Encoder interface {
	Encode(pcm []int16) ([]byte, error)
	SetBitrate(bitsPerSec int) error
	SetDTX(on bool) error
	SetInBandFEC(on bool) error
	SetPacketLossPerc(pct int) error
}

// Decoder turns a compressed byte vector back into one 20 ms PCM frame.
type Decoder interface {
	Decode(data []byte) ([]int16, error)
	DecodePLC() ([]int16, error)
}

// opusEncoder adapts *opus.Encoder to the Encoder interface.
type opusEncoder struct {
	enc *opus.Encoder
	buf []byte
}

// NewEncoder returns an Encoder configured for mono 48 kHz VoIP use, with
// DTX and in-band FEC enabled as the design's voice codec wrapper expects.
func NewEncoder(sampleRate, channels int) (Encoder, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("afv-native/codec: new encoder: %w", err)
	}
	if err := enc.SetDTX(true); err != nil {
		return nil, fmt.Errorf("afv-native/codec: set dtx: %w", err)
	}
	if err := enc.SetInBandFEC(true); err != nil {
		return nil, fmt.Errorf("afv-native/codec: set fec: %w", err)
	}
	return &opusEncoder{enc: enc, buf: make([]byte, MaxPacketBytes)}, nil
}

func (e *opusEncoder) Encode(pcm []int16) ([]byte, error) {
	n, err := e.enc.Encode(pcm, e.buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", afverr.ErrCodecError, err)
	}
	out := make([]byte, n)
	copy(out, e.buf[:n])
	return out, nil
}

func (e *opusEncoder) SetBitrate(bitsPerSec int) error { return e.enc.SetBitrate(bitsPerSec) }
func (e *opusEncoder) SetDTX(on bool) error            { return e.enc.SetDTX(on) }
func (e *opusEncoder) SetInBandFEC(on bool) error      { return e.enc.SetInBandFEC(on) }
func (e *opusEncoder) SetPacketLossPerc(pct int) error { return e.enc.SetPacketLossPerc(pct) }

// opusDecoder adapts *opus.Decoder to the Decoder interface.
type opusDecoder struct {
	dec       *opus.Decoder
	frameSize int
}

// NewDecoder returns a Decoder configured for mono 48 kHz playback.
func NewDecoder(sampleRate, channels, frameSize int) (Decoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("afv-native/codec: new decoder: %w", err)
	}
	return &opusDecoder{dec: dec, frameSize: frameSize}, nil
}

func (d *opusDecoder) Decode(data []byte) ([]int16, error) {
	pcm := make([]int16, d.frameSize)
	n, err := d.dec.Decode(data, pcm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", afverr.ErrCodecError, err)
	}
	return pcm[:n], nil
}

// DecodePLC asks the decoder to conceal a lost frame using its internal
// state (packet loss concealment), passing nil data per the Opus API.
func (d *opusDecoder) DecodePLC() ([]int16, error) {
	pcm := make([]int16, d.frameSize)
	n, err := d.dec.Decode(nil, pcm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", afverr.ErrCodecError, err)
	}
	return pcm[:n], nil
}

// FloatToPCM16 converts a float32 PCM frame in [-1, 1] to int16 samples,
// clamping out-of-range values.
func FloatToPCM16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, s := range in {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int16(s * 32767)
	}
	return out
}

// PCM16ToFloat converts int16 PCM samples to float32 in [-1, 1].
func PCM16ToFloat(in []int16, out []float32) {
	for i, s := range in {
		out[i] = float32(s) / 32768.0
	}
}
