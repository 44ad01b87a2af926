package wire

// Fixed-size request/reply codecs. Both directions are big-endian.

import (
	"encoding/binary"
	"fmt"
)

const (
	RequestSize = 4
	ReplySize   = 8
)

// EncodeRequest serializes v as a 4-byte request.
func EncodeRequest(v uint32) []byte {
	b := make([]byte, RequestSize)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// DecodeRequest is the server-side inverse of EncodeRequest.
func DecodeRequest(b []byte) (uint32, error) {
	if len(b) < RequestSize {
		return 0, fmt.Errorf("short request: %d bytes", len(b))
	}
	return binary.BigEndian.Uint32(b[:RequestSize]), nil
}

// EncodeReply serializes v as an 8-byte reply.
func EncodeReply(v uint64) []byte {
	b := make([]byte, ReplySize)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// DecodeReply reads the first 8 bytes of b. Short datagrams return an error
// together with the value of the bytes that are present.
func DecodeReply(b []byte) (uint64, error) {
	if len(b) >= ReplySize {
		return binary.BigEndian.Uint64(b[:ReplySize]), nil
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, fmt.Errorf("short reply: %d bytes", len(b))
}
