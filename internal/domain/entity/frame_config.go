package entity

import "fmt"

// PixelFormat is an ffmpeg -pix_fmt name.
type PixelFormat string

const (
	PixelFormatGray     PixelFormat = "gray"
	PixelFormatGray16BE PixelFormat = "gray16be"
	PixelFormatRGB24    PixelFormat = "rgb24"
	PixelFormatRGBA     PixelFormat = "rgba"
)

var bytesPerPixel = map[PixelFormat]int{
	PixelFormatGray:     1,
	PixelFormatGray16BE: 2,
	PixelFormatRGB24:    3,
	PixelFormatRGBA:     4,
}

// BytesPerPixel returns the packed size of one pixel, or 0 for unknown formats.
func (p PixelFormat) BytesPerPixel() int {
	return bytesPerPixel[p]
}

// FrameConfig describes the raw format the decoder is asked to produce.
type FrameConfig struct {
	Color  PixelFormat
	Width  int
	Height int
}

func NewFrameConfig(color PixelFormat, width, height int) (FrameConfig, error) {
	if color.BytesPerPixel() == 0 {
		return FrameConfig{}, fmt.Errorf("%w: unsupported pixel format %q", ErrInvalidConfig, color)
	}
	if width <= 0 || height <= 0 {
		return FrameConfig{}, fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, width, height)
	}
	return FrameConfig{Color: color, Width: width, Height: height}, nil
}

// FrameSize is the exact byte length of one decoded frame.
func (c FrameConfig) FrameSize() int {
	return c.Width * c.Height * c.Color.BytesPerPixel()
}

// Size formats the dimensions the way ffmpeg's -s flag expects.
func (c FrameConfig) Size() string {
	return fmt.Sprintf("%dx%d", c.Width, c.Height)
}
