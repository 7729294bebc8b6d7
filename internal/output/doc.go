// Package output encodes reports as deterministic JSON: object keys are
// sorted, floats are rounded to six decimal places, and nil or empty values
// are omitted. Two runs over the same inputs therefore produce byte-identical
// reports apart from their run ID and timestamp.
//
// Values implementing json.Marshaler or encoding.TextMarshaler are encoded
// through their own marshaler, so enum-like types such as severity levels keep
// their textual form.
package output
