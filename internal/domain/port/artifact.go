package port

import (
	"context"

	"github.com/erebos42/shortcut/internal/domain/entity"
)

type Zipper interface {
	CreateZip(ctx context.Context, filePaths []string, outputPath string) error
}

// KeyframeWriter stores the image of a cut frame and returns its path.
type KeyframeWriter interface {
	WriteKeyframe(dir string, cut entity.Cut) (string, error)
}

type ReportEncoder interface {
	Encode(report entity.CutReport) (data []byte, contentType string, ext string, err error)
}
