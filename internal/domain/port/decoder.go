package port

import (
	"context"
	"io"

	"github.com/erebos42/shortcut/internal/domain/entity"
)

// DecoderProcess is a running external decoder. Output yields concatenated
// raw frames in decode order.
type DecoderProcess interface {
	Output() io.Reader
	// Wait reaps the process once Output is drained and reports an abnormal exit.
	Wait() error
	// Terminate asks the process to stop. Safe to call after it has exited.
	Terminate() error
}

type FrameDecoder interface {
	Start(ctx context.Context, videoPath string, cfg entity.FrameConfig) (DecoderProcess, error)
}

type VideoProber interface {
	Duration(ctx context.Context, videoPath string) (float64, error)
}
