// Package render encodes compiled plans for files, HTTP responses and the
// terminal.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/initializ/envpipe/plan"
)

// Format names an encoding accepted by Encode.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// JSON encodes a plan as indented JSON.
func JSON(p *plan.Pipeline) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling plan: %w", err)
	}
	return append(data, '\n'), nil
}

// YAML encodes a plan as YAML with two-space indentation.
func YAML(p *plan.Pipeline) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("marshalling plan: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshalling plan: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode dispatches to JSON, YAML or Summary.
func Encode(p *plan.Pipeline, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return JSON(p)
	case FormatYAML:
		return YAML(p)
	case FormatText, "":
		return []byte(Summary(p)), nil
	default:
		return nil, fmt.Errorf("unknown format %q (known: text, json, yaml)", f)
	}
}
