package mixer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpilot-project/afv-native/codec"
	"github.com/xpilot-project/afv-native/protocol"
	"github.com/xpilot-project/afv-native/radio"
)

// fakeDecoder returns a fixed-amplitude constant PCM frame regardless of
// input, so tests can exercise the mixing path without linking libopus.
type fakeDecoder struct {
	frameSize int
	level     int16
}

func (f *fakeDecoder) Decode(data []byte) ([]int16, error) {
	out := make([]int16, f.frameSize)
	for i := range out {
		out[i] = f.level
	}
	return out, nil
}

func (f *fakeDecoder) DecodePLC() ([]int16, error) {
	out := make([]int16, f.frameSize)
	return out, nil // silence during concealment
}

func newFakeDecoderFactory(frameSize int, level int16) DecoderFactory {
	return func() (codec.Decoder, error) {
		return &fakeDecoder{frameSize: frameSize, level: level}, nil
	}
}

func TestTickWithNoRadiosProducesSilence(t *testing.T) {
	m := New(960, newFakeDecoderFactory(960, 1000), nil)
	headset, speaker := m.Tick()
	assert.Len(t, headset, 960)
	assert.Len(t, speaker, 960)
	for _, v := range headset {
		require.Equal(t, float32(0), v)
	}
}

func TestRxVoicePacketNoFrequencyMatchDispatchesToNothing(t *testing.T) {
	m := New(960, newFakeDecoderFactory(960, 1000), nil)
	r := radio.New(118300000)
	m.AddRadio("COM1", r)

	matched := m.RxVoicePacket("DAL123", []protocol.Transceiver{{Frequency: 121500000}}, []byte{1, 2, 3})
	assert.Equal(t, 0, matched)
}

func TestRxVoicePacketMatchesOnTransceiverFrequency(t *testing.T) {
	m := New(960, newFakeDecoderFactory(960, 1000), nil)
	r := radio.New(118300000)
	m.AddRadio("COM1", r)

	matched := m.RxVoicePacket("DAL123", []protocol.Transceiver{
		{Frequency: 121500000},
		{Frequency: 118300000, DistanceRatio: 0.4},
	}, []byte{1, 2, 3})
	assert.Equal(t, 1, matched, "should dispatch to the one radio whose frequency matches a transceiver entry")
}

func TestTickMixesHeadsetRadio(t *testing.T) {
	m := New(960, newFakeDecoderFactory(960, 16000), nil)
	r := radio.New(118300000)
	r.SetOnHeadset(true)
	r.SetBypassEffects(true)
	m.AddRadio("COM1", r)

	matched := m.RxVoicePacket("DAL123", []protocol.Transceiver{{Frequency: 118300000}}, []byte{0, 1, 2, 3})
	require.Equal(t, 1, matched)

	headset, speaker := m.Tick()

	nonZero := false
	for _, v := range headset {
		if v != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero, "expected decoded voice in the headset mix")
	for _, v := range speaker {
		require.Equal(t, float32(0), v)
	}
}

func TestTickRoutesToSpeakerWhenNotOnHeadset(t *testing.T) {
	m := New(960, newFakeDecoderFactory(960, 16000), nil)
	r := radio.New(118300000)
	r.SetOnHeadset(false)
	r.SetBypassEffects(true)
	m.AddRadio("COM2", r)

	matched := m.RxVoicePacket("BAW456", []protocol.Transceiver{{Frequency: 118300000}}, []byte{0, 1, 2, 3})
	require.Equal(t, 1, matched)

	headset, speaker := m.Tick()
	for _, v := range headset {
		require.Equal(t, float32(0), v)
	}
	nonZero := false
	for _, v := range speaker {
		if v != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero, "expected decoded voice in the speaker mix")
}

func TestRemoveRadioDropsItFromTick(t *testing.T) {
	m := New(960, newFakeDecoderFactory(960, 16000), nil)
	r := radio.New(118300000)
	m.AddRadio("COM1", r)
	assert.Equal(t, 1, m.RadioCount())

	m.RemoveRadio("COM1")
	assert.Equal(t, 0, m.RadioCount())

	matched := m.RxVoicePacket("DAL123", []protocol.Transceiver{{Frequency: 118300000}}, []byte{1})
	assert.Equal(t, 0, matched, "no radios left to match against")
}

func TestDecoderCacheKeptWhileStreamRecentlyActive(t *testing.T) {
	m := New(960, newFakeDecoderFactory(960, 16000), nil)
	r := radio.New(118300000)
	r.SetBypassEffects(true)
	m.AddRadio("COM1", r)

	matched := m.RxVoicePacket("DAL123", []protocol.Transceiver{{Frequency: 118300000}}, []byte{1})
	require.Equal(t, 1, matched)
	m.Tick() // decodes and drains the one queued frame; stream still "active" briefly

	s := m.slots["COM1"]
	hasDecoder := s.decoders.Contains("DAL123")
	assert.True(t, hasDecoder, "decoder should still be cached while the stream is recently active")
}

func TestStartMaintenanceStopsCleanly(t *testing.T) {
	m := New(960, newFakeDecoderFactory(960, 16000), nil)
	r := radio.New(118300000)
	m.AddRadio("COM1", r)

	stop := m.StartMaintenance(10*time.Millisecond, 0)
	time.Sleep(30 * time.Millisecond)
	stop()
}

func TestPTTOnTxRadioMutesItsOwnChannelButNotOthers(t *testing.T) {
	m := New(960, newFakeDecoderFactory(960, 16000), nil)

	txRadio := radio.New(118300000)
	txRadio.SetOnHeadset(true)
	txRadio.SetBypassEffects(true)
	m.AddRadio("COM1", txRadio)

	otherRadio := radio.New(121500000)
	otherRadio.SetOnHeadset(false)
	otherRadio.SetBypassEffects(true)
	m.AddRadio("COM2", otherRadio)

	require.Equal(t, 1, m.RxVoicePacket("DAL123", []protocol.Transceiver{{Frequency: 118300000}}, []byte{1}))
	require.Equal(t, 1, m.RxVoicePacket("BAW456", []protocol.Transceiver{{Frequency: 121500000}}, []byte{1}))

	m.SetTxRadio("COM1")
	m.SetPTTActive(true)

	headset, speaker := m.Tick()
	for _, v := range headset {
		require.Equal(t, float32(0), v, "the radio being transmitted on must contribute exactly zero")
	}
	nonZero := false
	for _, v := range speaker {
		if v != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero, "a radio not being transmitted on should still mix normally")
}

func TestIncomingAudioStreamsCountsDistinctActiveCallsigns(t *testing.T) {
	m := New(960, newFakeDecoderFactory(960, 16000), nil)
	r := radio.New(118300000)
	r.SetBypassEffects(true)
	m.AddRadio("COM1", r)

	assert.Equal(t, 0, m.IncomingAudioStreams())

	require.Equal(t, 1, m.RxVoicePacket("DAL123", []protocol.Transceiver{{Frequency: 118300000}}, []byte{1}))
	require.Equal(t, 1, m.RxVoicePacket("BAW456", []protocol.Transceiver{{Frequency: 118300000}}, []byte{1}))

	m.Tick()
	assert.Equal(t, 2, m.IncomingAudioStreams())
}
