// Copyright (c) 2026 ExamGate. All rights reserved.

package sanitize_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examgate/examgate/internal/platform/sanitize"
)

/*
TestCleanString covers the scalar cleaning rule.
*/
func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"surrounding_whitespace", "  hello world \t\n", "hello world"},
		{"nul_bytes", "he\x00llo\x00", "hello"},
		{"inner_whitespace_kept", "a  b", "a  b"},
		{"nfc_normalization", "é", "é"},
		{"empty", "", ""},
		{"only_nul_and_space", " \x00 ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitize.CleanString(tt.input))
		})
	}
}

/*
TestClean_WalksStructure verifies strings are cleaned at any depth while
structure and non-string values survive untouched.
*/
func TestClean_WalksStructure(t *testing.T) {
	document := `{
		"title": "  Midterm\u0000 ",
		"attempts": 3,
		"passing": 59.5,
		"published": true,
		"notes": null,
		"tags": [" math ", "algebra", 7],
		"meta": {"owner": {"name": "\u0000admin "}}
	}`

	value, err := sanitize.Decode(strings.NewReader(document))
	require.NoError(t, err)

	cleaned := value.Clean().Interface().(map[string]any)

	assert.Equal(t, "Midterm", cleaned["title"])
	assert.Equal(t, json.Number("3"), cleaned["attempts"])
	assert.Equal(t, json.Number("59.5"), cleaned["passing"])
	assert.Equal(t, true, cleaned["published"])
	assert.Nil(t, cleaned["notes"])

	tags := cleaned["tags"].([]any)
	require.Len(t, tags, 3)
	assert.Equal(t, "math", tags[0])
	assert.Equal(t, "algebra", tags[1])

	meta := cleaned["meta"].(map[string]any)
	owner := meta["owner"].(map[string]any)
	assert.Equal(t, "admin", owner["name"])
}

/*
TestClean_Idempotent verifies that sanitizing an already-clean document
returns a deep-equal document: no mutation of non-string fields, no
reordering of array elements.
*/
func TestClean_Idempotent(t *testing.T) {
	document := `{"name":"clean","count":42,"ratio":0.25,"flags":[true,false],"items":["a","b","c"],"nested":{"x":null}}`

	value, err := sanitize.Decode(strings.NewReader(document))
	require.NoError(t, err)

	once := value.Clean()
	twice := once.Clean()

	assert.Equal(t, value.Interface(), once.Interface())
	assert.Equal(t, once.Interface(), twice.Interface())
}

/*
TestMarshal_RoundTrip verifies the typed tree re-encodes to equivalent JSON,
preserving number text and array order.
*/
func TestMarshal_RoundTrip(t *testing.T) {
	document := `{"big":10000000001,"list":[3,1,2],"s":"x"}`

	value, err := sanitize.Decode(strings.NewReader(document))
	require.NoError(t, err)

	encoded, err := value.MarshalJSON()
	require.NoError(t, err)

	reparsed, err := sanitize.Decode(strings.NewReader(string(encoded)))
	require.NoError(t, err)
	assert.Equal(t, value.Interface(), reparsed.Interface())
}

/*
TestDecode_RejectsInvalidJSON verifies malformed input errors out.
*/
func TestDecode_RejectsInvalidJSON(t *testing.T) {
	_, err := sanitize.Decode(strings.NewReader(`{"broken":`))
	assert.Error(t, err)
}
