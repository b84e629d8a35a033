package ffmpeg

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/erebos42/shortcut/internal/domain/entity"
)

// KeyframeWriter saves the first frame after each cut as a PNG.
type KeyframeWriter struct{}

func NewKeyframeWriter() *KeyframeWriter {
	return &KeyframeWriter{}
}

func (w *KeyframeWriter) WriteKeyframe(dir string, cut entity.Cut) (string, error) {
	if cut.Frame == nil {
		return "", fmt.Errorf("cut at frame %d has no frame data", cut.FrameIndex)
	}
	path := filepath.Join(dir, fmt.Sprintf("cut_%06d.png", cut.FrameIndex))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create keyframe: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, cut.Frame.Image()); err != nil {
		return "", fmt.Errorf("encode keyframe %d: %w", cut.FrameIndex, err)
	}
	return path, nil
}
