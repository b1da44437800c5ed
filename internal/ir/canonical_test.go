package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{"b": 1, "a": 2, "c": []any{true, "x"}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":[true,"x"]}`, string(data))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(data))
}

func TestMarshalCanonical_LineSeparatorsLiteral(t *testing.T) {
	data, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(data))

	data, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(data))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	data, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(data))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(struct{}{})
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as a surrogate pair starting 0xD83D, which sorts
	// before 0xFB01 even though its UTF-8 form sorts after.
	data, err := MarshalCanonical(map[string]any{"\U0001F600": 1, "\uFB01": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"\uFB01\":2}", string(data))
}
