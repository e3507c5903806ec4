// Package decode turns raw JSON documents into the any-tree the validator
// consumes (objects as map[string]any, arrays as []any, numbers as
// json.Number) and serializes validated trees back out. The codec is
// selected at build time: encoding/json by default, goccy/go-json with the
// gojson build tag.
package decode
