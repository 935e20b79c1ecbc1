package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"prose around", `Here you go: {"a":{"b":2}} hope that helps {"c":3}`, `{"a":{"b":2}}`, true},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"braces in strings", `{"text":"use } and { freely","n":"\"}"}`, `{"text":"use } and { freely","n":"\"}"}`, true},
		{"escaped backslash before quote", `{"p":"C:\\"} trailing }`, `{"p":"C:\\"}`, true},
		{"no object", `sorry, I cannot do that`, ``, false},
		{"unbalanced", `{"a":{"b":1}`, ``, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseObjectNamesProvider(t *testing.T) {
	_, err := ParseObject("openai", "no json here")
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "openai", parseErr.Provider)
	assert.Contains(t, err.Error(), "openai")

	_, err = ParseObject("claude", `{"a": tru}`)
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, err.Error(), "claude")

	raw, err := ParseObject("claude", "```json\n{\"categories\":[]}\n```")
	require.NoError(t, err)
	assert.Contains(t, raw, "categories")
}
