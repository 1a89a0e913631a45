package bench

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat = errors.New("bench: unknown report format")
)

// Format names accepted by WriteReport.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// WriteTable prints one row per cell with latencies in milliseconds.
func WriteTable(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Key Size\tPlaintext Size\tEnc Delay (ms)\tDec Delay (ms)")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%.3f\t%.3f\n", r.KeyBits, r.PlaintextLen, r.EncodeMillis(), r.DecodeMillis())
	}
	return tw.Flush()
}

func WriteJSON(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func WriteYAML(w io.Writer, results []Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return err
	}
	return enc.Close()
}

// WriteReport dispatches on format; the empty string selects the table.
func WriteReport(w io.Writer, format string, results []Result) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return WriteTable(w, results)
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatYAML, "yml":
		return WriteYAML(w, results)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
