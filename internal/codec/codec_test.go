package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dkeye/lobbyrelay/internal/core"
)

func TestRoundTrip(t *testing.T) {
	cases := []Payload{
		{},
		{Kind: 1, Seq: 7, Body: []byte{0, 1, 2, 3, 4, 5}},
		{Kind: 0xffff, Seq: 0xffffffff, Body: bytes.Repeat([]byte{0xab}, MaxBodySize)},
	}
	for _, p := range cases {
		b, err := Encode(p)
		if err != nil {
			t.Fatalf("Encode(kind=%d): %v", p.Kind, err)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode(kind=%d): %v", p.Kind, err)
		}
		if !got.Equal(p) {
			t.Fatalf("round trip mismatch: got kind=%d seq=%d len=%d", got.Kind, got.Seq, len(got.Body))
		}
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	p := Payload{Kind: 3, Seq: 9, Body: []byte("hello")}
	a, _ := Encode(p)
	b, _ := Encode(p)
	if !bytes.Equal(a, b) {
		t.Fatal("two encodings differ")
	}
	want := []byte{0, 3, 0, 0, 0, 9, 0, 0, 0, 5, 'h', 'e', 'l', 'l', 'o'}
	if !bytes.Equal(a, want) {
		t.Fatalf("Encode = %v, want %v", a, want)
	}
}

func TestEncodeRejectsOversizedBody(t *testing.T) {
	if _, err := Encode(Payload{Body: make([]byte, MaxBodySize+1)}); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("err = %v, want ErrBodyTooLarge", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	good, _ := Encode(Payload{Kind: 2, Seq: 1, Body: []byte("abcdef")})
	huge := append([]byte(nil), good[:HeaderSize]...)
	huge[6], huge[7], huge[8], huge[9] = 0xff, 0xff, 0xff, 0xff

	cases := map[string][]byte{
		"nil":            nil,
		"short header":   good[:4],
		"truncated body": good[:len(good)-2],
		"trailing bytes": append(append([]byte(nil), good...), 0x00),
		"huge length":    huge,
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(b)
			if !errors.Is(err, core.ErrDecode) {
				t.Fatalf("Decode err = %v, want ErrDecode", err)
			}
		})
	}
}

func TestDecodeDoesNotAliasInput(t *testing.T) {
	b, _ := Encode(Payload{Body: []byte("xyz")})
	p, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	b[HeaderSize] = 'q'
	if string(p.Body) != "xyz" {
		t.Fatalf("body changed with input: %q", p.Body)
	}
}
