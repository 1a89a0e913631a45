package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxFramePayload limits a single protocol frame payload.
	MaxFramePayload = 1 << 20 // 1 MiB
	// CompressThreshold is the smallest payload WriteFrame tries to compress.
	CompressThreshold = 512

	headerSize = 6
)

// Frame flags.
const (
	FlagCompressed uint8 = 1 << 0
)

var (
	ErrFrameTooLarge = errors.New("protocol frame payload too large")
	ErrInvalidType   = errors.New("protocol invalid message type")
	ErrUnknownFlags  = errors.New("protocol unknown frame flags")
)

// Frame is the basic wire container.
// Format:
//
//	1 byte: type
//	1 byte: flags
//	4 bytes: payload length (big endian)
//	N bytes: payload (LZ4 block stream when FlagCompressed is set)
//
// Payload in a decoded Frame is always uncompressed.
type Frame struct {
	Type    MessageType
	Payload []byte
}

// WriteFrame writes f in a single Write call so concurrent writers serialized by a
// mutex never interleave partial frames.
func WriteFrame(w io.Writer, f Frame) error {
	if f.Type == 0 {
		return ErrInvalidType
	}
	if len(f.Payload) > MaxFramePayload {
		return ErrFrameTooLarge
	}

	payload := f.Payload
	var flags uint8
	if len(payload) >= CompressThreshold {
		if c, err := Compress(payload); err == nil && len(c) < len(payload) {
			payload = c
			flags |= FlagCompressed
		}
	}

	buf := make([]byte, headerSize+len(payload))
	buf[0] = byte(f.Type)
	buf[1] = flags
	binary.BigEndian.PutUint32(buf[2:headerSize], uint32(len(payload)))
	copy(buf[headerSize:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads exactly one frame and nothing past it, so it can be called in a
// loop on the same stream.
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	mt := MessageType(hdr[0])
	if mt == 0 {
		return Frame{}, ErrInvalidType
	}
	flags := hdr[1]
	if flags&^FlagCompressed != 0 {
		return Frame{}, ErrUnknownFlags
	}
	payloadLen := binary.BigEndian.Uint32(hdr[2:])
	if payloadLen > MaxFramePayload {
		return Frame{}, fmt.Errorf("%w: %d", ErrFrameTooLarge, payloadLen)
	}
	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, err
		}
	}
	if flags&FlagCompressed != 0 {
		d, err := Decompress(payload, MaxFramePayload)
		if err != nil {
			return Frame{}, err
		}
		payload = d
	}
	return Frame{Type: mt, Payload: payload}, nil
}
