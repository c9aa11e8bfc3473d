// Package netchannel is a reference datagram-channel adapter: it carries
// AR/AT voice messages over a WebTransport/QUIC session, reordering
// incoming packets through a per-sender jitter buffer before they reach the
// radio mixing core.
//
// Nothing in the mixing core (package mixer, radio, registry,
// voicesource) imports this package — those packages operate purely on
// decoded or still-compressed frames handed to them in receipt order. This
// package exists to show how a real client would bridge a live voice
// server connection into that core.
package netchannel

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/webtransport-go"

	"github.com/xpilot-project/afv-native/afverr"
	"github.com/xpilot-project/afv-native/internal/jitter"
	"github.com/xpilot-project/afv-native/protocol"
)

// Session abstracts the underlying datagram transport (a
// *webtransport.Session in production) so Channel can be exercised without
// a live QUIC connection.
type Session interface {
	SendDatagram(data []byte) error
	ReceiveDatagram(ctx context.Context) ([]byte, error)
}

// wtSession adapts *webtransport.Session to Session.
type wtSession struct {
	sess *webtransport.Session
}

func (w *wtSession) SendDatagram(data []byte) error {
	return w.sess.SendDatagram(data)
}

func (w *wtSession) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	return w.sess.ReceiveDatagram(ctx)
}

// DialTimeout bounds the WebTransport handshake; once connected the
// caller's own context governs the session's lifetime.
const DialTimeout = 10 * time.Second

// Dial opens a WebTransport session carrying datagrams to addr (an
// "https://host:port/path" URL) and wraps it as a Session.
func Dial(ctx context.Context, addr string) (Session, error) {
	dialCtx, cancel := context.WithTimeout(ctx, DialTimeout)
	defer cancel()

	d := webtransport.Dialer{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec — reference dialer, production callers supply a real cert pool
		QUICConfig: &quic.Config{
			EnableDatagrams: true,
		},
	}
	_, sess, err := d.Dial(dialCtx, addr, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("netchannel: dial %s: %w", addr, err)
	}
	return &wtSession{sess: sess}, nil
}

// Channel pumps AT messages out as datagrams and AR messages in, running
// incoming packets through a jitter buffer keyed by sender ID before
// handing decoded frames to Pop.
type Channel struct {
	id    uuid.UUID
	sess  Session
	codec protocol.Codec

	mu           sync.Mutex
	buf          *jitter.Buffer
	senders      map[string]uint16 // callsign -> synthetic sender ID for the jitter buffer
	nextID       uint16
	transceivers map[string][]protocol.Transceiver // callsign -> most recently received transceiver list
}

// New returns a Channel over an already-established Session, buffering
// depth frames (in 20 ms units) before releasing each sender's stream. Each
// Channel is tagged with a random ID for correlating log lines across a
// session's lifetime.
func New(sess Session, codec protocol.Codec, depth int) *Channel {
	return &Channel{
		id:           uuid.New(),
		sess:         sess,
		codec:        codec,
		buf:          jitter.New(depth),
		senders:      make(map[string]uint16),
		transceivers: make(map[string][]protocol.Transceiver),
	}
}

// ID returns this channel's correlation ID.
func (c *Channel) ID() uuid.UUID {
	return c.id
}

// SendAT encodes and sends one transmit-side voice message as an
// unreliable datagram.
func (c *Channel) SendAT(msg protocol.AudioTxOnTransceivers) error {
	data, err := c.codec.EncodeAT(msg)
	if err != nil {
		return fmt.Errorf("netchannel: encode AT: %w", err)
	}
	if err := c.sess.SendDatagram(data); err != nil {
		return fmt.Errorf("%w: %v", afverr.ErrChannelClosed, err)
	}
	return nil
}

// ReadOnce receives and decodes one datagram, pushing it into the jitter
// buffer keyed by the message's callsign and recording its transceiver
// list as that callsign's latest (last packet wins, matching the voice
// server's own bookkeeping). It does not block for a full playback tick's
// worth of reordering — call Pop separately on a 20 ms cadence to drain
// what's ready.
func (c *Channel) ReadOnce(ctx context.Context) error {
	data, err := c.sess.ReceiveDatagram(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", afverr.ErrChannelClosed, err)
	}
	msg, err := c.codec.DecodeAR(data)
	if err != nil {
		return err // already wrapped with afverr.ErrDecodeError
	}

	c.mu.Lock()
	id, ok := c.senders[msg.Callsign]
	if !ok {
		id = c.nextID
		c.nextID++
		c.senders[msg.Callsign] = id
	}
	c.transceivers[msg.Callsign] = msg.Transceivers
	c.buf.Push(id, uint16(msg.SequenceNum), msg.Audio)
	c.mu.Unlock()
	return nil
}

// Pop drains one 20 ms tick's worth of reordered frames per active
// sender, translating jitter-buffer sender IDs back to callsigns and
// attaching each sender's most recently received transceiver list so the
// mixing core can frequency-match it against every radio.
func (c *Channel) Pop() []Frame {
	c.mu.Lock()
	byID := make(map[uint16]string, len(c.senders))
	for cs, id := range c.senders {
		byID[id] = cs
	}
	transceivers := make(map[string][]protocol.Transceiver, len(c.transceivers))
	for cs, tx := range c.transceivers {
		transceivers[cs] = tx
	}
	raw := c.buf.Pop()
	c.mu.Unlock()

	out := make([]Frame, 0, len(raw))
	for _, f := range raw {
		cs := byID[f.SenderID]
		out = append(out, Frame{
			Callsign:     cs,
			OpusData:     f.OpusData,
			Transceivers: transceivers[cs],
		})
	}
	return out
}

// Frame is one reordered, jitter-corrected frame ready for the mixing
// core's frequency-matching dispatch.
type Frame struct {
	Callsign     string
	OpusData     []byte // nil signals a gap the decoder should conceal with PLC
	Transceivers []protocol.Transceiver
}

// TickInterval is the cadence ReadOnce/Pop should be driven at in
// production, matching the core's 20 ms frame period.
const TickInterval = 20 * time.Millisecond
