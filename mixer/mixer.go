// Package mixer implements the mixing engine: the per-tick drain, decode,
// and sum loop that turns each radio's queued compressed frames into one
// final headset buffer and one final speaker buffer.
//
// It drains the queued frames, decodes and mixes them, clamps the result,
// and hands back a ready buffer — reusing each radio slot's scratch buffers
// and per-callsign decoder cache across ticks; Tick still allocates its
// output pair and some per-tick bookkeeping. The decoder cache is pruned
// against the registry every tick: entries for callsigns no longer active
// are dropped, entries for callsigns still active are reused.
package mixer

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/xpilot-project/afv-native/afverr"
	"github.com/xpilot-project/afv-native/codec"
	"github.com/xpilot-project/afv-native/logging"
	"github.com/xpilot-project/afv-native/protocol"
	"github.com/xpilot-project/afv-native/radio"
	"github.com/xpilot-project/afv-native/registry"
)

// decoderCacheSize bounds the number of per-callsign decoders a slot keeps
// alive between the registry-driven prune passes in tickSlot, so a radio
// that churns through many short-lived callsigns in one session can't grow
// its decoder cache without bound.
const decoderCacheSize = 64

// DecoderFactory constructs a fresh per-stream Opus decoder. Exposed so
// tests can substitute a cheap fake decoder instead of linking libopus.
type DecoderFactory func() (codec.Decoder, error)

// slot bundles one radio with its own incoming stream registry, per-
// callsign decoder cache, and reusable per-tick scratch buffer.
type slot struct {
	id       string
	r        *radio.Radio
	reg      *registry.Registry
	decoders *lru.Cache[string, codec.Decoder]
	scratch  []float32
	pcmBuf   []float32

	// lastActive is the set of callsigns this slot's radio observed as
	// active in its most recent tickSlot pass; written only by that
	// slot's own goroutine, read back by Tick after the wait barrier to
	// compute IncomingAudioStreams.
	lastActive map[string]struct{}
}

// Mixer owns every configured radio and drives the per-tick mix.
type Mixer struct {
	mu    sync.Mutex
	slots map[string]*slot

	// txRadioID is the slot id of the radio the operator is currently
	// transmitting on, for self-transmit muting; guarded by mu since it
	// changes far less often than it's read.
	txRadioID string
	txActive  atomic.Bool

	incomingStreams atomic.Int32

	frameSize      int
	newDecoder     DecoderFactory
	logger         *logging.Logger
	cacheMissCount atomic.Uint64
}

// New returns an empty Mixer. newDecoder is called once per new callsign
// per radio to build that stream's Opus decoder.
func New(frameSize int, newDecoder DecoderFactory, logger *logging.Logger) *Mixer {
	return &Mixer{
		slots:      make(map[string]*slot),
		frameSize:  frameSize,
		newDecoder: newDecoder,
		logger:     logger,
	}
}

// AddRadio registers a radio under id, ready to receive voice packets and
// participate in the next Tick.
func (m *Mixer) AddRadio(id string, r *radio.Radio) {
	m.mu.Lock()
	defer m.mu.Unlock()
	decoders, _ := lru.New[string, codec.Decoder](decoderCacheSize) // size > 0 constant, err is always nil
	m.slots[id] = &slot{
		id:       id,
		r:        r,
		reg:      registry.New(),
		decoders: decoders,
		scratch:  make([]float32, m.frameSize),
		pcmBuf:   make([]float32, m.frameSize),
	}
}

// RemoveRadio drops a previously-added radio and all of its stream state.
func (m *Mixer) RemoveRadio(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, id)
}

// RadioCount returns the number of registered radios.
func (m *Mixer) RadioCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// SetTxRadio designates which radio slot id is the operator's currently
// selected transmit radio. Pass an empty string if no radio is selected
// for transmit. Combined with SetPTTActive, this drives self-transmit
// muting: the named radio's own mixing tick contributes silence while
// the operator is keyed up on it, since a radio can't usefully receive
// itself.
func (m *Mixer) SetTxRadio(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txRadioID = id
}

// SetPTTActive marks whether the operator is currently keying the radio
// named by the last SetTxRadio call.
func (m *Mixer) SetPTTActive(active bool) {
	m.txActive.Store(active)
}

// RxVoicePacket dispatches one received compressed frame to every radio
// slot whose tuned frequency matches one of the message's transceivers —
// the frequency match the voice server itself doesn't perform, so a
// client radio only mixes in sources it's actually tuned to receive. On a
// match, the matching radio's distance ratio is updated from that
// transceiver entry before the frame reaches its registry. Returns the
// number of radios the frame was dispatched to (0 if none matched).
func (m *Mixer) RxVoicePacket(callsign string, transceivers []protocol.Transceiver, frame []byte) int {
	m.mu.Lock()
	slots := make([]*slot, 0, len(m.slots))
	for _, s := range m.slots {
		slots = append(slots, s)
	}
	m.mu.Unlock()

	matched := 0
	for _, s := range slots {
		freq := s.r.Frequency()
		for _, tx := range transceivers {
			if tx.Frequency != freq {
				continue
			}
			s.r.SetDistanceRatio(tx.DistanceRatio)
			s.reg.RxVoicePacket(callsign, frame)
			matched++
			break
		}
	}
	return matched
}

// CacheMisses returns the running count of decode failures encountered
// during Tick, logged and skipped rather than propagated.
func (m *Mixer) CacheMisses() uint64 {
	return m.cacheMissCount.Load()
}

// IncomingAudioStreams returns the number of distinct callsigns that
// matched at least one radio's active reception in the most recent Tick —
// an observer-facing count of sources presently audible, deduplicated
// across radios since the same transmission can match more than one tuned
// frequency.
func (m *Mixer) IncomingAudioStreams() int {
	return int(m.incomingStreams.Load())
}

// Tick runs one 20 ms mixing pass over every registered radio and returns
// the final headset and speaker output buffers. Buffers are owned by the
// caller; a fresh pair is allocated each call since downstream consumers
// (an audio device callback, a test assertion) need to retain them past
// the next Tick.
func (m *Mixer) Tick() (headset []float32, speaker []float32) {
	headset = make([]float32, m.frameSize)
	speaker = make([]float32, m.frameSize)

	m.mu.Lock()
	slots := make([]*slot, 0, len(m.slots))
	for _, s := range m.slots {
		slots = append(slots, s)
	}
	txRadioID := m.txRadioID
	m.mu.Unlock()
	txActive := m.txActive.Load()

	// Each slot owns its own registry, decoder cache, and scratch buffer, so
	// decode-and-mix work across radios has no shared state to race on; run
	// it concurrently and only serialize the final sum into the shared
	// headset/speaker buffers, in a fixed slot order so the sum is
	// deterministic regardless of which slot's goroutine finishes first.
	var g errgroup.Group
	for _, s := range slots {
		s := s
		g.Go(func() error {
			if txActive && s.id == txRadioID {
				// Self-transmit mute: this radio is the one the operator
				// is currently keyed up on, so it contributes nothing to
				// the mix regardless of what it's receiving.
				for i := range s.scratch {
					s.scratch[i] = 0
				}
				s.lastActive = nil
				s.r.ResetToSilent()
				return nil
			}
			m.tickSlot(s)
			return nil
		})
	}
	_ = g.Wait() // tickSlot never returns an error; errors are logged and skipped internally

	activeCallsigns := make(map[string]struct{})
	for _, s := range slots {
		out := headset
		if !s.r.OnHeadset() {
			out = speaker
		}
		for i, v := range s.scratch {
			out[i] += v
		}
		for cs := range s.lastActive {
			activeCallsigns[cs] = struct{}{}
		}
	}
	m.incomingStreams.Store(int32(len(activeCallsigns)))

	clamp(headset)
	clamp(speaker)
	return headset, speaker
}

// tickSlot drains, decodes, and mixes one radio's active streams into its
// scratch buffer, then runs the radio's effects chain over the result.
func (m *Mixer) tickSlot(s *slot) {
	for i := range s.scratch {
		s.scratch[i] = 0
	}

	callsigns := s.reg.Callsigns()
	live := make(map[string]struct{}, len(callsigns))
	activeCount := 0

	for _, cs := range callsigns {
		src, ok := s.reg.Get(cs)
		if !ok {
			continue
		}
		active := src.IsActive()
		if active {
			activeCount++
			live[cs] = struct{}{}
		}

		frame, haveFrame := src.GetAudioFrame()
		if !haveFrame && !active {
			continue
		}

		dec, err := m.decoderFor(s, cs)
		if err != nil {
			m.cacheMissCount.Add(1)
			if m.logger != nil {
				m.logger.Printf("decoder init failed for %s: %v", cs, err)
			}
			continue
		}

		var pcm []int16
		if haveFrame {
			pcm, err = dec.Decode(frame)
		} else {
			// Registered as active (recent transmission) but nothing
			// queued this tick: conceal the gap with Opus PLC instead of
			// dropping to silence.
			pcm, err = dec.DecodePLC()
		}
		if err != nil {
			m.cacheMissCount.Add(1)
			if m.logger != nil {
				m.logger.Printf("%v: %s", afverr.ErrCacheMiss, cs)
			}
			continue
		}

		codec.PCM16ToFloat(pcm, s.pcmBuf[:len(pcm)])
		for i := 0; i < len(pcm) && i < len(s.scratch); i++ {
			s.scratch[i] += s.pcmBuf[i]
		}
	}

	for _, cs := range s.decoders.Keys() {
		if _, ok := live[cs]; !ok {
			s.decoders.Remove(cs)
		}
	}

	s.lastActive = live
	s.r.ProcessInPlace(activeCount, s.scratch)
}

func (m *Mixer) decoderFor(s *slot, callsign string) (codec.Decoder, error) {
	if dec, ok := s.decoders.Get(callsign); ok {
		return dec, nil
	}
	dec, err := m.newDecoder()
	if err != nil {
		return nil, err
	}
	s.decoders.Add(callsign, dec)
	return dec, nil
}

func clamp(buf []float32) {
	for i, v := range buf {
		if v > 1 {
			buf[i] = 1
		} else if v < -1 {
			buf[i] = -1
		}
	}
}

// StartMaintenance begins a self-rearming sweep of every radio's stream
// registry, pruning drained-and-idle streams every interval, using a
// registry.Sweeper over a snapshot of the registries present when Start is
// called. Returns a stop function.
func (m *Mixer) StartMaintenance(interval, timeout time.Duration) (stop func()) {
	m.mu.Lock()
	regs := make([]*registry.Registry, 0, len(m.slots))
	for _, s := range m.slots {
		regs = append(regs, s.reg)
	}
	m.mu.Unlock()

	sweeper := registry.NewSweeper(interval, timeout, regs...)
	if m.logger != nil {
		sweeper.SetOnRemoved(func(registryIndex int, callsigns []string) {
			m.logger.Printf("maintenance: pruned %d idle stream(s) from slot %d", len(callsigns), registryIndex)
		})
	}
	sweeper.Start()
	return sweeper.Stop
}
