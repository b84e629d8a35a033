package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "video.cuts", cfg.RabbitMQProcessingQueue)
	assert.Equal(t, "ffmpeg", cfg.DecoderBin)
	assert.Equal(t, "gray", cfg.FrameColor)
	assert.Equal(t, 10, cfg.FrameWidth)
	assert.Equal(t, 10, cfg.FrameHeight)
	assert.InDelta(t, 24000.0/1001.0, cfg.FrameRate, 1e-6)
	assert.Equal(t, 0.5, cfg.CutConfidence)
	assert.Equal(t, 1000, cfg.DiffThreshold)
	assert.Equal(t, 10*time.Minute, cfg.DecodeTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FRAME_COLOR", "rgb24")
	t.Setenv("FRAME_WIDTH", "32")
	t.Setenv("SIMILARITY_METRIC", "mean_abs")
	t.Setenv("DECODE_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "rgb24", cfg.FrameColor)
	assert.Equal(t, 32, cfg.FrameWidth)
	assert.Equal(t, "mean_abs", cfg.SimilarityMetric)
	assert.Equal(t, 30*time.Second, cfg.DecodeTimeout)
}

func TestLoadRejectsBadNumber(t *testing.T) {
	t.Setenv("FRAME_HEIGHT", "tall")
	_, err := Load()
	assert.Error(t, err)
}
