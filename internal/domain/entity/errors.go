package entity

import "errors"

var (
	// ErrInvalidConfig is returned for non-positive dimensions or an unknown pixel format.
	ErrInvalidConfig = errors.New("invalid frame config")

	// ErrConfigMismatch is returned when two frames of different configs are compared.
	ErrConfigMismatch = errors.New("frame config mismatch")

	// ErrDecoderLaunch is returned when the decoder process cannot be started.
	ErrDecoderLaunch = errors.New("decoder launch failed")

	// ErrDecoderRuntime is returned when the decoder process dies mid-stream.
	ErrDecoderRuntime = errors.New("decoder exited abnormally")
)
