// Package engine wires the mixing core, the capture input path, and the
// optional network/hardware adapters together into one runnable unit. Keep
// this struct thin and delegate to the packages that actually do the work.
package engine

import (
	"time"

	"github.com/xpilot-project/afv-native/codec"
	"github.com/xpilot-project/afv-native/config"
	"github.com/xpilot-project/afv-native/inputpath"
	"github.com/xpilot-project/afv-native/inputpath/denoise"
	"github.com/xpilot-project/afv-native/logging"
	"github.com/xpilot-project/afv-native/mixer"
	"github.com/xpilot-project/afv-native/netchannel"
	"github.com/xpilot-project/afv-native/protocol"
	"github.com/xpilot-project/afv-native/radio"
)

// Engine owns the mixing core and the microphone input path for one voice
// session. The network channel is attached separately via AttachChannel,
// and Engine holds no audio device: the caller drives Tick and
// ProcessCapture from its own device loop, or from fakes in tests.
type Engine struct {
	cfg config.Config

	mixer *mixer.Mixer
	input *inputpath.Path

	channel *netchannel.Channel

	stopMaintenance func()
}

// New builds an Engine from cfg. enc is the capture path's Opus encoder;
// newDecoder builds a fresh per-stream decoder for the mixer. suppressor may
// be nil to skip ML noise suppression.
func New(cfg config.Config, enc codec.Encoder, newDecoder mixer.DecoderFactory, suppressor *denoise.Suppressor, logger *logging.Logger) *Engine {
	return &Engine{
		cfg:   cfg,
		mixer: mixer.New(cfg.FrameSize, newDecoder, logger),
		input: inputpath.New(cfg.FrameSize, enc, suppressor),
	}
}

// AddRadio registers a new radio slot tuned to frequencyHz, with gain set
// to the configured default, and returns it so the caller can wire further
// per-radio controls (headset routing, squelch, bypass).
func (e *Engine) AddRadio(id string, frequencyHz uint32) *radio.Radio {
	r := radio.New(frequencyHz)
	r.SetGain(float64(e.cfg.DefaultRadioGain))
	e.mixer.AddRadio(id, r)
	return r
}

// RemoveRadio drops a previously added radio slot.
func (e *Engine) RemoveRadio(id string) {
	e.mixer.RemoveRadio(id)
}

// AttachChannel wires a network channel so Pop'd frames can be fed to
// RxVoicePacket and outbound capture packets can be sent via SendAT. The
// caller remains responsible for driving Channel.ReadOnce/Pop and SendAT on
// its own cadence; Engine only holds the reference and does not itself read
// from or send on the channel.
func (e *Engine) AttachChannel(ch *netchannel.Channel) {
	e.channel = ch
}

// Start begins the mixer's periodic stream-registry maintenance sweep,
// using the configured interval and idle timeout.
func (e *Engine) Start() {
	interval := time.Duration(e.cfg.MaintenanceIntervalMs) * time.Millisecond
	timeout := time.Duration(e.cfg.StreamCacheTimeoutMs) * time.Millisecond
	e.stopMaintenance = e.mixer.StartMaintenance(interval, timeout)
}

// Stop halts the maintenance sweep. Safe to call even if Start was never
// called.
func (e *Engine) Stop() {
	if e.stopMaintenance != nil {
		e.stopMaintenance()
		e.stopMaintenance = nil
	}
}

// RxVoicePacket enqueues one compressed frame received for callsign on
// every radio tuned to one of transceivers' frequencies, for mixing on the
// next Tick. Returns the number of radios the frame was dispatched to.
func (e *Engine) RxVoicePacket(callsign string, transceivers []protocol.Transceiver, frame []byte) int {
	return e.mixer.RxVoicePacket(callsign, transceivers, frame)
}

// Tick runs one 20 ms mixing pass and feeds the resulting mix back into the
// capture path's AEC as the far-end reference, so capture and playback
// share one echo-cancellation reference signal.
func (e *Engine) Tick() (headset, speaker []float32) {
	headset, speaker = e.mixer.Tick()

	farEnd := make([]float32, len(headset))
	for i := range farEnd {
		farEnd[i] = headset[i] + speaker[i]
	}
	e.input.FeedFarEnd(farEnd)

	return headset, speaker
}

// ProcessCapture runs one captured microphone frame through the input path
// and, if the result should be transmitted, returns the packet for the
// caller to wrap in an AudioTxOnTransceivers message and send, whether or
// not a channel is attached. Engine does not build that message itself since it
// needs per-transceiver frequency/position data the input path doesn't
// have.
func (e *Engine) ProcessCapture(buf []float32) (inputpath.Packet, bool) {
	return e.input.Process(buf)
}

// SetPTTPressed forwards a push-to-talk key state change to the input path
// and to the mixer, so the currently selected transmit radio (see
// SetTxRadio) is self-muted for as long as the key is held.
func (e *Engine) SetPTTPressed(pressed bool) {
	e.input.SetPTTPressed(pressed)
	e.mixer.SetPTTActive(pressed)
}

// SetTxRadio designates which registered radio id the operator is
// currently set up to transmit on, for self-transmit muting.
func (e *Engine) SetTxRadio(id string) {
	e.mixer.SetTxRadio(id)
}

// Input returns the underlying capture path, for callers that need direct
// access to AdaptBitrate/Reset/PTTState.
func (e *Engine) Input() *inputpath.Path {
	return e.input
}

// Mixer returns the underlying mixing core, for callers that need direct
// access to CacheMisses or RadioCount.
func (e *Engine) Mixer() *mixer.Mixer {
	return e.mixer
}
