package settings

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFill(t *testing.T) {
	t.Run("empty settings become defaults", func(t *testing.T) {
		filled := Fill(Settings{})
		defaults := Default()

		require.Equal(t, defaults.Headers, filled.Headers)
		require.Equal(t, defaults.URL, filled.URL)
		require.Equal(t, defaults.TCP, filled.TCP)
		require.Equal(t, defaults.Body.Length.Maximal, filled.Body.Length.Maximal)
		require.Equal(t, defaults.Body.ChunkSize.Maximal, filled.Body.ChunkSize.Maximal)
		require.Equal(t, defaults.HTTP.ResponseBuffSize, filled.HTTP.ResponseBuffSize)
		// the zero value of Lenient is the strict default
		require.False(t, filled.HTTP.Lenient)
	})

	t.Run("custom values survive", func(t *testing.T) {
		custom := Settings{}
		custom.Headers.Number.Maximal = 5
		custom.URL.Length.Maximal = 512
		custom.HTTP.Lenient = true

		filled := Fill(custom)
		require.Equal(t, uint8(5), filled.Headers.Number.Maximal)
		require.Equal(t, uint16(512), filled.URL.Length.Maximal)
		require.True(t, filled.HTTP.Lenient)

		// untouched fields still get their defaults
		require.Equal(t, Default().Headers.ValueLength.Maximal, filled.Headers.ValueLength.Maximal)
		require.Equal(t, Default().TCP.Read.Default, filled.TCP.Read.Default)
	})
}
