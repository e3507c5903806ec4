//go:build gojson

package decode

import (
	"bytes"
	"errors"
	"io"

	j "github.com/goccy/go-json"
)

// DriverName identifies the active codec.
func DriverName() string { return "go-json" }

// Unmarshal decodes one JSON document. Numbers stay json.Number so numeric
// kinds can canonicalize without float64 round-tripping.
func Unmarshal(data []byte) (any, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON document")
	}
	return v, nil
}

// Marshal serializes a value tree.
func Marshal(v any) ([]byte, error) { return j.Marshal(v) }
