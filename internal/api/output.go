package api

import (
	"encoding/json"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputFormat selects how CLI commands render API payloads.
type OutputFormat string

const (
	FormatYAML OutputFormat = "yaml"
	FormatJSON OutputFormat = "json"
)

// outputFormat is set once by the root command's --output flag before
// any subcommand runs.
var outputFormat = FormatYAML

// SetOutputFormat selects the encoding used by Output. Unrecognized
// values keep the YAML default.
func SetOutputFormat(format string) {
	if OutputFormat(format) == FormatJSON {
		outputFormat = FormatJSON
	} else {
		outputFormat = FormatYAML
	}
}

// Output renders a payload (an exercise, a document record) to stdout
// in the selected format.
func Output(data any) error {
	return writeFormatted(os.Stdout, outputFormat, data)
}

func writeFormatted(w io.Writer, format OutputFormat, data any) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(data)
}
