package protocol

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/xpilot-project/afv-native/afverr"
)

// Codec encodes and decodes wire messages. Implementations must be safe
// for concurrent use.
type Codec interface {
	EncodeAR(msg AudioRxOnTransceivers) ([]byte, error)
	DecodeAR(data []byte) (AudioRxOnTransceivers, error)
	EncodeAT(msg AudioTxOnTransceivers) ([]byte, error)
	DecodeAT(data []byte) (AudioTxOnTransceivers, error)
}

// msgpackCodec is the Codec implementation used against real voice
// servers, which speak a self-describing msgpack map per message.
type msgpackCodec struct{}

// NewMsgpackCodec returns the standard wire Codec.
func NewMsgpackCodec() Codec {
	return msgpackCodec{}
}

func (msgpackCodec) EncodeAR(msg AudioRxOnTransceivers) ([]byte, error) {
	data, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("afv-native/protocol: encode AR: %w", err)
	}
	return data, nil
}

func (msgpackCodec) DecodeAR(data []byte) (AudioRxOnTransceivers, error) {
	var msg AudioRxOnTransceivers
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return AudioRxOnTransceivers{}, fmt.Errorf("%w: %v", afverr.ErrDecodeError, err)
	}
	return msg, nil
}

func (msgpackCodec) EncodeAT(msg AudioTxOnTransceivers) ([]byte, error) {
	data, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("afv-native/protocol: encode AT: %w", err)
	}
	return data, nil
}

func (msgpackCodec) DecodeAT(data []byte) (AudioTxOnTransceivers, error) {
	var msg AudioTxOnTransceivers
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return AudioTxOnTransceivers{}, fmt.Errorf("%w: %v", afverr.ErrDecodeError, err)
	}
	return msg, nil
}
