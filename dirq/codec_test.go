package dirq

import (
	"errors"
	"testing"

	"github.com/cern-mig/dirq-go/dirq/dirqerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSortsKeys(t *testing.T) {
	r := Record{
		"zeta":  StringValue("1"),
		"alpha": StringValue("2"),
	}
	got := string(Encode(r))
	assert.Equal(t, "alpha=2\nzeta=1\n", got)
}

func TestRoundTripStringRecord(t *testing.T) {
	r := Record{
		"body":   StringValue("hello world"),
		"header": StringValue("a=b\n%c"),
	}
	out, err := Decode(Encode(r))
	require.NoError(t, err)
	assert.Equal(t, r, out)
}

func TestEncodeEscapesReservedBytes(t *testing.T) {
	r := Record{"k": StringValue("a=b\n%c")}
	encoded := Encode(r)
	s := string(encoded)
	// Only one '=' should appear outside of an escape: the key/value separator.
	assert.Equal(t, 1, countUnescaped(s, '='))
	assert.Equal(t, 1, countUnescaped(s, '\n')) // the trailing line terminator
	assert.NotContains(t, s, "%c")              // raw '%' must always be escaped
}

func countUnescaped(s string, target byte) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			i += 2
			continue
		}
		if s[i] == target {
			n++
		}
	}
	return n
}

func TestEncodeBinaryContentSurvivesAsBytes(t *testing.T) {
	r := Record{"blob": BinaryValue([]byte{0x00, 0x25, 0x3d, 0x0a, 0xff})}
	out, err := Decode(Encode(r))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x25, 0x3d, 0x0a, 0xff}, []byte(out["blob"].Str))
}

func TestDecodeRejectsMissingEquals(t *testing.T) {
	_, err := Decode([]byte("noequalshere\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dirqerrors.ErrMalformedEncoding))
}

func TestDecodeRejectsBadEscape(t *testing.T) {
	_, err := Decode([]byte("k=%zz\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dirqerrors.ErrMalformedEncoding))
}

func TestDecodeRejectsTruncatedEscape(t *testing.T) {
	_, err := Decode([]byte("k=%2\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dirqerrors.ErrMalformedEncoding))
}

func TestDecodeRejectsUnterminatedInput(t *testing.T) {
	_, err := Decode([]byte("k=v"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dirqerrors.ErrMalformedEncoding))
}

func TestDecodeEmpty(t *testing.T) {
	r, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, r)
}

func TestValidUnicode(t *testing.T) {
	assert.True(t, validUnicode("héllo"))
	assert.False(t, validUnicode(string([]byte{0xff, 0xfe})))
}
