package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{
			name:   "clean object",
			raw:    `{"a":1}`,
			want:   `{"a":1}`,
			wantOK: true,
		},
		{
			name:   "clean array",
			raw:    `[1,2,3]`,
			want:   `[1,2,3]`,
			wantOK: true,
		},
		{
			name:   "json-tagged fence",
			raw:    "```json\n{\"a\":1}\n```",
			want:   `{"a":1}`,
			wantOK: true,
		},
		{
			name:   "bare fence",
			raw:    "```\n{\"a\":1}\n```",
			want:   `{"a":1}`,
			wantOK: true,
		},
		{
			name:   "prefix and suffix prose",
			raw:    "Here is the result:\n{\"a\":1}\nHope that helps!",
			want:   `{"a":1}`,
			wantOK: true,
		},
		{
			name:   "nested braces inside string value",
			raw:    `{"note":"uses {x} style"}`,
			want:   `{"note":"uses {x} style"}`,
			wantOK: true,
		},
		{
			name:   "escaped quotes inside string value",
			raw:    `{"note":"she said \"hi\""}`,
			want:   `{"note":"she said \"hi\""}`,
			wantOK: true,
		},
		{
			name:   "double backslash before closing quote",
			raw:    `{"path":"C:\\dir\\"}`,
			want:   `{"path":"C:\\dir\\"}`,
			wantOK: true,
		},
		{
			name:   "nested objects",
			raw:    `prose {"a":{"b":{"c":1}}} more prose`,
			want:   `{"a":{"b":{"c":1}}}`,
			wantOK: true,
		},
		{
			name:   "array value inside object",
			raw:    `{"tips":[{"type":"good"},{"type":"improve"}]}`,
			want:   `{"tips":[{"type":"good"},{"type":"improve"}]}`,
			wantOK: true,
		},
		{
			name:   "trailing second value ignored",
			raw:    `{"a":1} {"b":2}`,
			want:   `{"a":1}`,
			wantOK: true,
		},
		{
			name:   "array picked when it comes first",
			raw:    `[{"a":1}] trailing`,
			want:   `[{"a":1}]`,
			wantOK: true,
		},
		{
			name:   "truncated output returns not ok",
			raw:    `{"a": [1,2,`,
			wantOK: false,
		},
		{
			name:   "truncated inside string returns not ok",
			raw:    `{"note":"unterminated`,
			wantOK: false,
		},
		{
			name:   "no structured content",
			raw:    "no structured content here",
			wantOK: false,
		},
		{
			name:   "empty input",
			raw:    "",
			wantOK: false,
		},
		{
			name:   "fenced real-world feedback",
			raw:    "```json\n{\"overallScore\":72,\"ATS\":{\"score\":80,\"tips\":[]}}\n```",
			want:   `{"overallScore":72,"ATS":{"score":80,"tips":[]}}`,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.raw)
			if !tt.wantOK {
				assert.False(t, ok)
				assert.Nil(t, got)
				return
			}
			require.True(t, ok)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

// Re-extracting a reserialized extraction must return the same structural value.
func TestExtractJSONIdempotent(t *testing.T) {
	raw := "Sure! Here you go:\n```json\n{\"overallScore\":61,\"skills\":{\"score\":55,\"tips\":[{\"type\":\"improve\",\"tip\":\"add keywords\"}]}}\n```\nLet me know if you need more."

	first, ok := ExtractJSON(raw)
	require.True(t, ok)

	var v any
	require.NoError(t, json.Unmarshal(first, &v))
	reserialized, err := json.Marshal(v)
	require.NoError(t, err)

	second, ok := ExtractJSON(string(reserialized))
	require.True(t, ok)
	assert.JSONEq(t, string(first), string(second))
}

func TestExtractJSONNeverPanics(t *testing.T) {
	inputs := []string{
		"```json\n",
		"```json\n```",
		"{",
		"[",
		`"just a string"`,
		strings.Repeat("{", 10000),
		"{\"a\":\"" + strings.Repeat("\\", 9999) + "\"}",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { ExtractJSON(in) }, "input %q", in)
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", TruncateRunes("abc", 10))
	assert.Equal(t, "ab", TruncateRunes("abc", 2))
	assert.Equal(t, "abc", TruncateRunes("abc", 0)) // zero disables the budget
	// never splits a multi-byte rune
	assert.Equal(t, "hél", TruncateRunes("héllo", 3))
}

func TestValidateAnalysisSchema(t *testing.T) {
	schema := BuildAnalysisJSONSchema()

	valid := []byte(`{"overallScore":72,"ATS":{"score":80,"tips":[]}}`)
	require.NoError(t, ValidateJSONAgainstSchema(schema, valid))

	missingScore := []byte(`{"ATS":{"score":80}}`)
	assert.Error(t, ValidateJSONAgainstSchema(schema, missingScore))

	scoreOutOfRange := []byte(`{"overallScore":140}`)
	assert.Error(t, ValidateJSONAgainstSchema(schema, scoreOutOfRange))

	sectionWithoutScore := []byte(`{"overallScore":50,"skills":{"tips":[]}}`)
	assert.Error(t, ValidateJSONAgainstSchema(schema, sectionWithoutScore))
}
