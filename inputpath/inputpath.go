// Package inputpath implements the microphone capture pipeline: the
// ordered chain of optional preprocessors (echo cancellation, noise gate,
// ML noise suppression, automatic gain control) followed by the
// push-to-talk and voice-activity gates that decide whether a frame is
// encoded and handed off as a transmit packet.
//
// The chain order is fixed: AEC first (it needs the rawest possible signal
// to converge), then the noise gate, then optional ML denoising, then AGC,
// then the PTT/VAD transmit decision, then encode.
package inputpath

import (
	"sync"
	"sync/atomic"

	"github.com/xpilot-project/afv-native/codec"
	"github.com/xpilot-project/afv-native/inputpath/denoise"
	"github.com/xpilot-project/afv-native/internal/adapt"
	"github.com/xpilot-project/afv-native/internal/aec"
	"github.com/xpilot-project/afv-native/internal/agc"
	"github.com/xpilot-project/afv-native/internal/noisegate"
	"github.com/xpilot-project/afv-native/internal/vad"
)

// PTTState is the push-to-talk state machine's current state.
type PTTState int

const (
	// PTTIdle: the operator is not keying the transmitter.
	PTTIdle PTTState = iota
	// PTTTransmitting: frames are being encoded and handed off, subject to
	// the VAD gate.
	PTTTransmitting
)

// Packet is one assembled outbound transmission frame, ready to be
// wrapped in an AudioTxOnTransceivers message and sent.
type Packet struct {
	SequenceNum uint32
	Opus        []byte
	LastPacket  bool // true on the final frame sent after PTT release
}

// Path is the full capture preprocessor chain plus PTT/VAD gating and
// encoding for one microphone input.
type Path struct {
	mu sync.Mutex

	aec       *aec.AEC
	gate      *noisegate.Gate
	suppressor *denoise.Suppressor // optional; nil if ML denoise isn't wired in
	agcProc   *agc.AGC
	vadProc   *vad.VAD

	encoder   codec.Encoder
	sequence  atomic.Uint32

	pttState     PTTState
	wasTransmitting bool
}

// New returns a Path wired with AEC, noise gate, AGC, and energy-based
// VAD all enabled. suppressor may be nil to skip the ML denoise stage
// (e.g. when librnnoise isn't available on the target platform).
func New(frameSize int, enc codec.Encoder, suppressor *denoise.Suppressor) *Path {
	return &Path{
		aec:        aec.New(frameSize),
		gate:       noisegate.New(),
		suppressor: suppressor,
		agcProc:    agc.New(),
		vadProc:    vad.New(),
		encoder:    enc,
	}
}

// FeedFarEnd supplies the most recently played-back mix as the AEC's
// far-end echo reference. Call once per tick from the playback side,
// after the mixer has produced its output.
func (p *Path) FeedFarEnd(playback []float32) {
	p.aec.FeedFarEnd(playback)
}

// PTTState returns the current push-to-talk state.
func (p *Path) PTTState() PTTState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pttState
}

// SetPTTPressed transitions the PTT state machine. The very next frame
// processed after a press is subject to the VAD gate like any other
// transmitting frame; there is no arming delay.
func (p *Path) SetPTTPressed(pressed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pressed {
		p.pttState = PTTTransmitting
	} else {
		p.pttState = PTTIdle
	}
}

// Process runs one 20 ms captured frame through the full chain. buf is
// modified in place by each preprocessing stage. It returns a Packet and
// true if this frame should be transmitted, or false if PTT/VAD decided
// not to send it.
func (p *Path) Process(buf []float32) (Packet, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.aec.Process(buf)
	p.gate.Process(buf)
	if p.suppressor != nil {
		p.suppressor.Process(buf)
	}
	p.agcProc.Process(buf)

	rms := vad.RMS(buf)

	if p.pttState == PTTIdle {
		if !p.wasTransmitting {
			// Idle and nothing to close out: the frame is silently
			// dropped, but the sequence counter still advances so loss
			// accounting downstream isn't thrown off by frames that were
			// never sent in the first place.
			p.sequence.Add(1)
			return Packet{}, false
		}
		// Key was released since the last frame: send one final silent
		// packet marked LastPacket so the receiver's voice source knows
		// to close out this transmission rather than wait on a timeout.
		p.wasTransmitting = false
		opusData, err := p.encoder.Encode(codec.FloatToPCM16(make([]float32, len(buf))))
		if err != nil {
			p.sequence.Add(1)
			return Packet{}, false
		}
		return Packet{SequenceNum: p.sequence.Add(1), Opus: opusData, LastPacket: true}, true
	}

	if !p.vadProc.ShouldSend(rms) {
		p.sequence.Add(1)
		return Packet{}, false
	}

	opusData, err := p.encoder.Encode(codec.FloatToPCM16(buf))
	if err != nil {
		p.sequence.Add(1)
		return Packet{}, false
	}

	p.wasTransmitting = true
	return Packet{SequenceNum: p.sequence.Add(1), Opus: opusData}, true
}

// AdaptBitrate recomputes the encoder's target bitrate from observed
// packet loss and RTT and applies it, returning the new bitrate in kbps.
func (p *Path) AdaptBitrate(currentKbps int, lossRate, rttMs float64) int {
	next := adapt.NextBitrate(currentKbps, lossRate, rttMs)
	_ = p.encoder.SetBitrate(next * 1000)
	return next
}

// Reset clears the noise gate, VAD and AGC state, returns PTT to idle and
// zeroes the sequence counter, for use after a reconnect. The echo
// canceller keeps its adapted filter.
func (p *Path) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sequence.Store(0)
	p.gate.Reset()
	p.vadProc.Reset()
	p.agcProc.Reset()
	p.pttState = PTTIdle
	p.wasTransmitting = false
}
