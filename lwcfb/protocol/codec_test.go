package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := Frame{Type: MessageTypeAck, Payload: []byte("ok")}
	if err := WriteFrame(&buf, in); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	out, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if out.Type != in.Type {
		t.Fatalf("type mismatch")
	}
	if !bytes.Equal(out.Payload, in.Payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestReadFrameSequence(t *testing.T) {
	var buf bytes.Buffer
	frames := []Frame{
		{Type: MessageTypeConnect, Payload: []byte(`{"client_id":"a"}`)},
		{Type: MessageTypePublish, Payload: []byte(strings.Repeat("MjMuNQ==", 200))},
		{Type: MessageTypeClose},
	}
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	for i, want := range frames {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame %d: %v", i, err)
		}
		if got.Type != want.Type || !bytes.Equal(got.Payload, want.Payload) {
			t.Fatalf("frame %d mismatch", i)
		}
	}
	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestLargePayloadIsCompressed(t *testing.T) {
	payload := []byte(strings.Repeat("23.5,", 1000))
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Frame{Type: MessageTypeDeliver, Payload: payload}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	raw := buf.Bytes()
	if raw[1]&FlagCompressed == 0 {
		t.Fatalf("expected compressed flag")
	}
	if buf.Len() >= len(payload) {
		t.Fatalf("compressed frame not smaller: %d >= %d", buf.Len(), len(payload))
	}
	out, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(out.Payload, payload) {
		t.Fatalf("payload mismatch after decompression")
	}
}

func TestSmallPayloadIsNotCompressed(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Frame{Type: MessageTypePublish, Payload: []byte("PwrIYw==")}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if buf.Bytes()[1] != 0 {
		t.Fatalf("small payload should not be compressed")
	}
}

func TestFrameErrors(t *testing.T) {
	if err := WriteFrame(io.Discard, Frame{}); err != ErrInvalidType {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if err := WriteFrame(io.Discard, Frame{Type: MessageTypeAck, Payload: make([]byte, MaxFramePayload+1)}); err != ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}

	tooLarge := []byte{byte(MessageTypeAck), 0, 0xff, 0xff, 0xff, 0xff}
	if _, err := ReadFrame(bytes.NewReader(tooLarge)); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	badFlags := []byte{byte(MessageTypeAck), 0x80, 0, 0, 0, 0}
	if _, err := ReadFrame(bytes.NewReader(badFlags)); err != ErrUnknownFlags {
		t.Fatalf("expected ErrUnknownFlags, got %v", err)
	}
	zeroType := []byte{0, 0, 0, 0, 0, 0}
	if _, err := ReadFrame(bytes.NewReader(zeroType)); err != ErrInvalidType {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	corrupt := []byte{byte(MessageTypeAck), FlagCompressed, 0, 0, 0, 3, 1, 2, 3}
	if _, err := ReadFrame(bytes.NewReader(corrupt)); err != ErrDecompressionFailed {
		t.Fatalf("expected ErrDecompressionFailed, got %v", err)
	}
}

func TestMessagesEncodeDecode(t *testing.T) {
	pub := Publish{ID: "m1", Topic: "suhu/secure", Payload: "PwrIYw=="}
	f, err := Encode(MessageTypePublish, pub)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode[Publish](f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != pub {
		t.Fatalf("publish mismatch: %+v", got)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if err := (Publish{ID: "x"}).Validate(); err != ErrMissingTopic {
		t.Fatalf("expected ErrMissingTopic, got %v", err)
	}
	if err := (Subscribe{ID: "x", Topic: "suhu/#"}).Validate(); err != ErrInvalidTopic {
		t.Fatalf("expected ErrInvalidTopic, got %v", err)
	}
	if err := (Publish{ID: "x", Topic: "+/secure"}).Validate(); err != ErrInvalidTopic {
		t.Fatalf("expected ErrInvalidTopic, got %v", err)
	}
	if err := (Subscribe{Topic: "t"}).Validate(); err != ErrMissingID {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	if err := (Connect{}).Validate(); err != ErrMissingClientID {
		t.Fatalf("expected ErrMissingClientID, got %v", err)
	}
	if _, err := Decode[Ack](Frame{Type: MessageTypeAck, Payload: []byte("{")}); err == nil {
		t.Fatalf("expected JSON error")
	}
}
