package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeysAndNormalizes(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"b": 2.0, "a": "<x>", "c": [true, null]}`))
	require.NoError(t, err)

	out, err := MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<x>","b":2,"c":[true,null]}`, string(out))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" followed by a combining acute accent normalizes to U+00E9.
	out, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(out))
}

func TestMarshalCanonical_LineSeparators(t *testing.T) {
	out, err := MarshalCanonical(String("a\u2028b"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(out))

	out, err = MarshalCanonical(String(`a\u2028b`))
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(out), "escaped backslash text stays escaped")
}

func TestResultHash_IgnoresFormatting(t *testing.T) {
	a, err := ResultHash([]byte(`{"type": "count", "count": 1, "rank": 2.0}`))
	require.NoError(t, err)
	b, err := ResultHash([]byte(`{"rank":2,"count":1,"type":"count"}`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestContentHash_DomainSeparation(t *testing.T) {
	doc := []byte(`[]`)
	r, err := ResultHash(doc)
	require.NoError(t, err)
	tr, err := TranscriptHash(doc)
	require.NoError(t, err)
	assert.NotEqual(t, r, tr)
}

func TestContentHash_InvalidJSON(t *testing.T) {
	_, err := ResultHash([]byte(`{`))
	assert.Error(t, err)
}
