// Command shortcut prints the scene cuts of test.avi, one timestamp per line.
package main

import (
	"context"
	"fmt"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/erebos42/shortcut/internal/domain/similarity"
	"github.com/erebos42/shortcut/internal/infra/ffmpeg"
	"github.com/erebos42/shortcut/internal/shortcut"
	"github.com/erebos42/shortcut/pkg/logger"
	"go.uber.org/zap"
)

const (
	inputFile  = "test.avi"
	decoderBin = "ffmpeg"
)

func main() {
	log, err := logger.New("info")
	if err != nil {
		log = zap.NewNop()
	}
	defer log.Sync()

	cfg, err := entity.NewFrameConfig(entity.PixelFormatGray, 10, 10)
	if err != nil {
		log.Error("frame config", zap.Error(err))
		fmt.Println("Done...")
		return
	}

	sc := shortcut.New(
		ffmpeg.NewDecoder(decoderBin, log),
		cfg,
		similarity.Simple{Threshold: similarity.DefaultDiffThreshold},
	)

	for ts, err := range sc.Analyze(context.Background(), inputFile) {
		if err != nil {
			log.Error("scan stopped", zap.String("file", inputFile), zap.Error(err))
			break
		}
		fmt.Println(ts)
	}
	fmt.Println("Done...")
}
