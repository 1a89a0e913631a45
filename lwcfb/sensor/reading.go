package sensor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidInput = errors.New("sensor: invalid input")

// InvalidInputError describes a reading that was rejected before reaching the cipher.
type InvalidInputError struct {
	Input  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Input == "" {
		return "sensor: invalid reading: " + e.Reason
	}
	return fmt.Sprintf("sensor: invalid reading %q: %s", e.Input, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// ParseReading validates a decimal reading and returns its canonical text: the shortest
// form that parses back to the same float64, always with a fractional part, switching
// to exponent notation below 1e-4 and from 1e16 up ("23" -> "23.0", "1e16" -> "1e+16").
func ParseReading(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &InvalidInputError{Reason: "empty"}
	}
	if strings.ContainsAny(s, "xX_") {
		return "", &InvalidInputError{Input: raw, Reason: "not a decimal number"}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return "", &InvalidInputError{Input: raw, Reason: "out of range"}
		}
		return "", &InvalidInputError{Input: raw, Reason: "not a decimal number"}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", &InvalidInputError{Input: raw, Reason: "not finite"}
	}
	return formatReading(f), nil
}

func formatReading(f float64) string {
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	abs := math.Abs(f)
	if abs < 1e-4 || abs >= 1e16 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
