package netchannel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpilot-project/afv-native/protocol"
)

// fakeSession is an in-memory Session for testing, backed by a channel of
// pre-encoded datagrams.
type fakeSession struct {
	sent chan []byte
	recv chan []byte
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		sent: make(chan []byte, 16),
		recv: make(chan []byte, 16),
	}
}

func (f *fakeSession) SendDatagram(data []byte) error {
	f.sent <- data
	return nil
}

func (f *fakeSession) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	select {
	case d := <-f.recv:
		return d, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSendATEncodesAndSends(t *testing.T) {
	sess := newFakeSession()
	ch := New(sess, protocol.NewMsgpackCodec(), 1)

	err := ch.SendAT(protocol.AudioTxOnTransceivers{Callsign: "DAL123", SequenceNum: 1})
	require.NoError(t, err)

	select {
	case data := <-sess.sent:
		assert.NotEmpty(t, data)
	default:
		t.Fatal("expected a datagram to be sent")
	}
}

func TestReadOncePushesIntoJitterBufferByCallsign(t *testing.T) {
	sess := newFakeSession()
	codec := protocol.NewMsgpackCodec()
	ch := New(sess, codec, 1)

	data, err := codec.EncodeAR(protocol.AudioRxOnTransceivers{
		Callsign:    "DAL123",
		SequenceNum: 0,
		Transceivers: []protocol.Transceiver{
			{Frequency: 118300000, DistanceRatio: 0.5},
		},
		Audio: []byte{1, 2, 3},
	})
	require.NoError(t, err)
	sess.recv <- data

	require.NoError(t, ch.ReadOnce(context.Background()))

	frames := ch.Pop()
	require.Len(t, frames, 1)
	assert.Equal(t, "DAL123", frames[0].Callsign)
	assert.Equal(t, []byte{1, 2, 3}, frames[0].OpusData)
	require.Len(t, frames[0].Transceivers, 1)
	assert.Equal(t, uint32(118300000), frames[0].Transceivers[0].Frequency)
}

func TestReadOnceMalformedDatagramReturnsError(t *testing.T) {
	sess := newFakeSession()
	ch := New(sess, protocol.NewMsgpackCodec(), 1)
	sess.recv <- []byte{0xff, 0xff, 0xff}

	err := ch.ReadOnce(context.Background())
	assert.Error(t, err)
}
