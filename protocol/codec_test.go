package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestARRoundTrip(t *testing.T) {
	c := NewMsgpackCodec()
	msg := AudioRxOnTransceivers{
		Callsign:    "DAL123",
		SequenceNum: 42,
		Transceivers: []Transceiver{
			{ID: 1, Frequency: 118300000, LatDeg: 51.5, LonDeg: -0.12, AltitudeMslM: 1000},
		},
		Audio: []byte{1, 2, 3, 4},
	}

	data, err := c.EncodeAR(msg)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	out, err := c.DecodeAR(data)
	require.NoError(t, err)
	assert.Equal(t, msg, out)
}

func TestATRoundTrip(t *testing.T) {
	c := NewMsgpackCodec()
	msg := AudioTxOnTransceivers{
		Callsign:    "BAW456",
		SequenceNum: 7,
		Transceivers: []Transceiver{
			{ID: 0, Frequency: 121500000},
		},
		Audio:      []byte{9, 9, 9},
		LastPacket: true,
	}

	data, err := c.EncodeAT(msg)
	require.NoError(t, err)

	out, err := c.DecodeAT(data)
	require.NoError(t, err)
	assert.Equal(t, msg, out)
}

func TestDecodeARMalformedReturnsDecodeError(t *testing.T) {
	c := NewMsgpackCodec()
	_, err := c.DecodeAR([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestDecodeATMalformedReturnsDecodeError(t *testing.T) {
	c := NewMsgpackCodec()
	_, err := c.DecodeAT([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
