package uri

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zgjsxx/st-http-proxy/http/status"
)

func TestQueryEscape(t *testing.T) {
	require.Equal(t, "hello%2C+world", QueryEscape("hello, world"))
	require.Equal(t, "a%26b%3Dc", QueryEscape("a&b=c"))
	// unreserved characters pass through untouched
	require.Equal(t, "AZaz09-_.~", QueryEscape("AZaz09-_.~"))
}

func TestPathEscape(t *testing.T) {
	// path delimiters survive, spaces do not
	require.Equal(t, "/live/a.flv", PathEscape("/live/a.flv"))
	require.Equal(t, "/with%20space", PathEscape("/with space"))
	require.Equal(t, "a+b", PathEscape("a+b"))
}

func TestQueryUnescape(t *testing.T) {
	decoded, err := QueryUnescape("hello%2C+world")
	require.NoError(t, err)
	require.Equal(t, "hello, world", decoded)

	for _, bad := range []string{"%", "%2", "%zz", "trailing%"} {
		_, err = QueryUnescape(bad)
		require.ErrorIs(t, err, status.ErrURLDecoding, bad)
	}
}

func TestPathUnescape(t *testing.T) {
	decoded, err := PathUnescape("/hello%2C%20world")
	require.NoError(t, err)
	require.Equal(t, "/hello, world", decoded)

	// plus is not a space inside a path
	decoded, err = PathUnescape("a+b")
	require.NoError(t, err)
	require.Equal(t, "a+b", decoded)
}

func TestEscape_RoundTrip(t *testing.T) {
	samples := []string{
		"",
		"plain",
		"hello, world",
		"a&b=c?d#e",
		"1+1=2",
		"кириллица",
		string([]byte{0x00, 0xFF, 0x80, '%'}),
	}

	for _, sample := range samples {
		decoded, err := QueryUnescape(QueryEscape(sample))
		require.NoError(t, err)
		require.Equal(t, sample, decoded)

		decoded, err = PathUnescape(PathEscape(sample))
		require.NoError(t, err)
		require.Equal(t, sample, decoded)
	}
}
