package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	d, err := parseDuration([]byte("12.345000\n"))
	require.NoError(t, err)
	assert.InDelta(t, 12.345, d, 1e-9)

	_, err = parseDuration([]byte("N/A\n"))
	assert.Error(t, err)
}
