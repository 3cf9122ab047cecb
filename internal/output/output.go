// Package output serializes command results to stdout. Every boundary
// operation reports success-with-data or a structured {code, message}
// failure envelope; errors never escape as panics or bare text.
package output

import (
	"fmt"

	"github.com/louis030195/bigbrother/internal/uierr"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's
// --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// Envelope is the failure wire shape shared by the CLI and MCP surfaces.
type Envelope struct {
	OK    bool         `yaml:"ok"              json:"ok"`
	Error *uierr.Error `yaml:"error,omitempty" json:"error,omitempty"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		return PrintJSON(v, PrettyOutput)
	case FormatYAML:
		return PrintYAML(v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// Fail prints the structured failure envelope for err.
func Fail(err error) error {
	return Print(Envelope{OK: false, Error: uierr.AsError(err)})
}
