package session

import (
	"errors"
)

var (
	ErrInvalidIV = errors.New("session: IV must be exactly one block")
	ErrDecode    = errors.New("session: decode failed")
)

// DecodeError is returned by Decode when the input is not valid base64 or the
// recovered bytes are not valid UTF-8 text. It matches ErrDecode under errors.Is.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return "session: decode failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "session: decode failed: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
