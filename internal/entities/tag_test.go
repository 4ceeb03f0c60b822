package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagIDRoundTrip(t *testing.T) {
	for _, id := range []int{0, 26, 4095, 4096, 8191} {
		hex := FormatTagID(id)
		assert.Len(t, hex, 4)
		got, err := ParseTagID(hex)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	assert.Equal(t, "001A", FormatTagID(26))
	assert.Equal(t, "1FFF", FormatTagID(8191))
}

func TestParseTagID(t *testing.T) {
	got, err := ParseTagID(" 0a1f ")
	require.NoError(t, err)
	assert.Equal(t, 0x0A1F, got)

	for _, bad := range []string{"", "1A", "12345", "XYZ1", "-001"} {
		_, err := ParseTagID(bad)
		assert.Error(t, err, "%q", bad)
	}
}
