package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// outputFormat selects how command results are printed.
type outputFormat string

const (
	outputYAML outputFormat = "yaml"
	outputJSON outputFormat = "json"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch outputFormat(s) {
	case outputYAML, outputJSON:
		return outputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want yaml or json)", s)
}

// writeOutput encodes data to w in the given format.
func writeOutput(w io.Writer, format outputFormat, data any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
