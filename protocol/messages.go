// Package protocol defines the wire messages exchanged with a voice
// server: the per-transceiver tuning record, and the two audio-on-
// transceivers message kinds (receive and transmit). It also defines the
// Codec interface used to serialize and deserialize them, with a msgpack
// implementation since the self-describing typed-map wire format these
// messages are specified against can't be faithfully round-tripped
// through JSON (it loses the distinction between float and int, and
// between present-but-empty and absent fields).
package protocol

// Transceiver describes one radio's frequency and position as understood
// by the voice server, carried inside both AR and AT messages. DistanceRatio
// is populated by the server on AR messages (the input to the receiving
// client's crackle model); it is left zero on outgoing AT messages, which
// don't yet know the listener's distance.
type Transceiver struct {
	ID            uint16  `msgpack:"ID"`
	Frequency     uint32  `msgpack:"Frequency"`
	LatDeg        float64 `msgpack:"LatDeg"`
	LonDeg        float64 `msgpack:"LonDeg"`
	AltitudeMslM  float64 `msgpack:"AltitudeMslM"`
	AltitudeAglM  float64 `msgpack:"AltitudeAglM,omitempty"`
	DistanceRatio float64 `msgpack:"DistanceRatio,omitempty"`
}

// AudioRxOnTransceivers ("AR") is a compressed voice frame the server
// delivers to a client, carrying the set of transceivers it was received
// on.
type AudioRxOnTransceivers struct {
	Callsign     string        `msgpack:"Callsign"`
	SequenceNum  uint32        `msgpack:"SequenceNumber"`
	Transceivers []Transceiver `msgpack:"Transceivers"`
	Audio        []byte        `msgpack:"Audio"`
	LastPacket   bool          `msgpack:"LastPacket,omitempty"`
}

// AudioTxOnTransceivers ("AT") is a compressed voice frame a client sends
// to the server, naming which of its own transceivers it was transmitted
// on.
type AudioTxOnTransceivers struct {
	Callsign     string        `msgpack:"Callsign"`
	SequenceNum  uint32        `msgpack:"SequenceNumber"`
	Transceivers []Transceiver `msgpack:"Transceivers"`
	Audio        []byte        `msgpack:"Audio"`
	LastPacket   bool          `msgpack:"LastPacket,omitempty"`
}
