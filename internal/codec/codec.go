// Package codec frames application payloads for the wire.
//
// Layout, big endian:
//
//	kind u16 | seq u32 | len u32 | body[len]
//
// A frame is exactly HeaderSize+len bytes; anything else is rejected.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dkeye/lobbyrelay/internal/core"
)

const (
	HeaderSize  = 10
	MaxBodySize = 64 << 10
)

var ErrBodyTooLarge = errors.New("payload body too large")

type Payload struct {
	Kind uint16
	Seq  uint32
	Body []byte
}

func (p Payload) Equal(o Payload) bool {
	return p.Kind == o.Kind && p.Seq == o.Seq && bytes.Equal(p.Body, o.Body)
}

type header struct {
	Kind uint16
	Seq  uint32
	Len  uint32
}

// Encode fails only when the body exceeds MaxBodySize.
func Encode(p Payload) ([]byte, error) {
	if len(p.Body) > MaxBodySize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrBodyTooLarge, len(p.Body), MaxBodySize)
	}
	out := make([]byte, HeaderSize+len(p.Body))
	binary.BigEndian.PutUint16(out[0:2], p.Kind)
	binary.BigEndian.PutUint32(out[2:6], p.Seq)
	binary.BigEndian.PutUint32(out[6:10], uint32(len(p.Body)))
	copy(out[HeaderSize:], p.Body)
	return out, nil
}

func Decode(b []byte) (Payload, error) {
	if len(b) < HeaderSize {
		return Payload{}, fmt.Errorf("%w: frame of %d bytes shorter than header", core.ErrDecode, len(b))
	}
	var h header
	if _, err := binary.Decode(b[:HeaderSize], binary.BigEndian, &h); err != nil {
		return Payload{}, fmt.Errorf("%w: header: %w", core.ErrDecode, err)
	}
	if h.Len > MaxBodySize {
		return Payload{}, fmt.Errorf("%w: body length %d exceeds %d", core.ErrDecode, h.Len, MaxBodySize)
	}
	if rest := len(b) - HeaderSize; rest != int(h.Len) {
		return Payload{}, fmt.Errorf("%w: body length %d, have %d bytes", core.ErrDecode, h.Len, rest)
	}
	p := Payload{Kind: h.Kind, Seq: h.Seq}
	if h.Len > 0 {
		p.Body = bytes.Clone(b[HeaderSize:])
	}
	return p, nil
}
