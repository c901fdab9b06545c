// Copyright (c) 2026 ExamGate. All rights reserved.

/*
Package sanitize normalizes untrusted request input before it reaches handlers.

Instead of walking an untyped object graph with runtime type switches, the
package models a decoded JSON document as a closed sum type ([Value] with
String/Number/Bool/Null/Array/Object variants). The "strings only" cleaning
rule is then explicit: [String] is the single variant whose Clean method does
any work, every other variant passes through untouched, and document structure
(array order, nesting) is preserved exactly.

Cleaning a string means: drop NUL bytes, trim surrounding whitespace, and
normalize to Unicode NFC. All three steps are idempotent, so sanitizing an
already-clean document returns a deep-equal document.
*/
package sanitize

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Value is one node of a decoded JSON document.
//
// The implementations form a closed set: [String], [Number], [Bool], [Null],
// [Array], and [Object].
type Value interface {
	// Clean returns the sanitized equivalent of the node.
	Clean() Value

	// Interface converts the node back to the natural encoding/json shape
	// (string, json.Number, bool, nil, []any, map[string]any).
	Interface() any

	json.Marshaler
}

// # Variants

// String is a JSON string node. The only variant that cleaning alters.
type String string

// Clean strips NUL bytes, trims surrounding whitespace, and NFC-normalizes.
func (s String) Clean() Value { return String(CleanString(string(s))) }

// Interface implements [Value].
func (s String) Interface() any { return string(s) }

// MarshalJSON implements [json.Marshaler].
func (s String) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

// Number is a JSON number node, kept in its original textual form so
// re-encoding never mangles precision.
type Number json.Number

// Clean implements [Value]. Numbers pass through untouched.
func (n Number) Clean() Value { return n }

// Interface implements [Value].
func (n Number) Interface() any { return json.Number(n) }

// MarshalJSON implements [json.Marshaler].
func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("0"), nil
	}
	return []byte(n), nil
}

// Bool is a JSON boolean node.
type Bool bool

// Clean implements [Value]. Booleans pass through untouched.
func (b Bool) Clean() Value { return b }

// Interface implements [Value].
func (b Bool) Interface() any { return bool(b) }

// MarshalJSON implements [json.Marshaler].
func (b Bool) MarshalJSON() ([]byte, error) { return json.Marshal(bool(b)) }

// Null is a JSON null node.
type Null struct{}

// Clean implements [Value].
func (Null) Clean() Value { return Null{} }

// Interface implements [Value].
func (Null) Interface() any { return nil }

// MarshalJSON implements [json.Marshaler].
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Array is a JSON array node. Element order is preserved.
type Array []Value

// Clean implements [Value].
func (a Array) Clean() Value {
	cleaned := make(Array, len(a))
	for i, element := range a {
		cleaned[i] = element.Clean()
	}
	return cleaned
}

// Interface implements [Value].
func (a Array) Interface() any {
	out := make([]any, len(a))
	for i, element := range a {
		out[i] = element.Interface()
	}
	return out
}

// MarshalJSON implements [json.Marshaler].
func (a Array) MarshalJSON() ([]byte, error) { return json.Marshal([]Value(a)) }

// Object is a JSON object node.
type Object map[string]Value

// Clean implements [Value]. Keys are left as-is; only values are cleaned.
func (o Object) Clean() Value {
	cleaned := make(Object, len(o))
	for key, value := range o {
		cleaned[key] = value.Clean()
	}
	return cleaned
}

// Interface implements [Value].
func (o Object) Interface() any {
	out := make(map[string]any, len(o))
	for key, value := range o {
		out[key] = value.Interface()
	}
	return out
}

// MarshalJSON implements [json.Marshaler].
func (o Object) MarshalJSON() ([]byte, error) { return json.Marshal(map[string]Value(o)) }

// # Construction

// Decode reads a JSON document into the typed representation.
//
// Numbers are kept as [json.Number] so a later re-encode emits the exact
// original digits.
func Decode(reader io.Reader) (Value, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}

	return FromInterface(raw)
}

// FromInterface lifts an encoding/json generic value into the typed tree.
func FromInterface(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Null{}, nil
	case string:
		return String(typed), nil
	case json.Number:
		return Number(typed), nil
	case float64:
		// Decoders without UseNumber produce float64.
		return Number(json.Number(strconv.FormatFloat(typed, 'g', -1, 64))), nil
	case bool:
		return Bool(typed), nil
	case []any:
		array := make(Array, len(typed))
		for i, element := range typed {
			value, err := FromInterface(element)
			if err != nil {
				return nil, err
			}
			array[i] = value
		}
		return array, nil
	case map[string]any:
		object := make(Object, len(typed))
		for key, element := range typed {
			value, err := FromInterface(element)
			if err != nil {
				return nil, err
			}
			object[key] = value
		}
		return object, nil
	default:
		return nil, fmt.Errorf("sanitize: unsupported value type %T", raw)
	}
}

// # String Cleaning

// CleanString applies the scalar cleaning rule to a single string:
// NUL bytes removed, surrounding whitespace trimmed, Unicode NFC form.
func CleanString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)
	return norm.NFC.String(s)
}
