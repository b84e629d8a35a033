package entity

import (
	"fmt"
	"image"
	"sync"
)

// Frame is one decoded chunk of raw pixels. It is never mutated after
// construction; only the byte-sum hash is filled in lazily.
type Frame struct {
	Data   []byte
	Index  int
	Config FrameConfig

	hashOnce sync.Once
	hash     uint64
}

func NewFrame(data []byte, index int, cfg FrameConfig) (*Frame, error) {
	if len(data) != cfg.FrameSize() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrConfigMismatch, len(data), cfg.FrameSize())
	}
	return &Frame{Data: data, Index: index, Config: cfg}, nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame #%d", f.Index)
}

// Hash returns the sum of all byte values, computed on first use.
func (f *Frame) Hash() uint64 {
	f.hashOnce.Do(func() {
		var sum uint64
		for _, b := range f.Data {
			sum += uint64(b)
		}
		f.hash = sum
	})
	return f.hash
}

// Image renders the frame for inspection.
func (f *Frame) Image() image.Image {
	rect := image.Rect(0, 0, f.Config.Width, f.Config.Height)
	switch f.Config.Color {
	case PixelFormatGray:
		return &image.Gray{Pix: f.Data, Stride: f.Config.Width, Rect: rect}
	case PixelFormatGray16BE:
		return &image.Gray16{Pix: f.Data, Stride: 2 * f.Config.Width, Rect: rect}
	case PixelFormatRGBA:
		return &image.NRGBA{Pix: f.Data, Stride: 4 * f.Config.Width, Rect: rect}
	case PixelFormatRGB24:
		img := image.NewRGBA(rect)
		for i, j := 0, 0; i+2 < len(f.Data); i, j = i+3, j+4 {
			img.Pix[j] = f.Data[i]
			img.Pix[j+1] = f.Data[i+1]
			img.Pix[j+2] = f.Data[i+2]
			img.Pix[j+3] = 0xff
		}
		return img
	default:
		return image.NewGray(rect)
	}
}
