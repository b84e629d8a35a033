// Package shortcut scans a video for scene cuts by comparing consecutive
// decoded frames.
package shortcut

import (
	"context"
	"iter"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/erebos42/shortcut/internal/domain/port"
	"github.com/erebos42/shortcut/internal/domain/similarity"
)

const (
	// Confidence is the similarity below which a cut is reported.
	Confidence = 0.5

	// DefaultFrameRate is assumed for every file; the real rate is never probed.
	DefaultFrameRate = 24000.0 / 1001.0
)

type Shortcut struct {
	decoder    port.FrameDecoder
	cfg        entity.FrameConfig
	comparator similarity.Comparator
	frameRate  float64
	confidence float64
	observe    func(*entity.Frame)
}

type Option func(*Shortcut)

func WithFrameRate(fps float64) Option {
	return func(s *Shortcut) {
		if fps > 0 {
			s.frameRate = fps
		}
	}
}

func WithConfidence(c float64) Option {
	return func(s *Shortcut) { s.confidence = c }
}

// WithFrameObserver registers fn to be called for every decoded frame.
func WithFrameObserver(fn func(*entity.Frame)) Option {
	return func(s *Shortcut) { s.observe = fn }
}

func New(decoder port.FrameDecoder, cfg entity.FrameConfig, comparator similarity.Comparator, opts ...Option) *Shortcut {
	s := &Shortcut{
		decoder:    decoder,
		cfg:        cfg,
		comparator: comparator,
		frameRate:  DefaultFrameRate,
		confidence: Confidence,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// With returns a copy of s with opts applied; s itself is unchanged.
func (s *Shortcut) With(opts ...Option) *Shortcut {
	c := *s
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (s *Shortcut) Config() entity.FrameConfig { return s.cfg }
func (s *Shortcut) FrameRate() float64         { return s.frameRate }
func (s *Shortcut) ConfidenceLevel() float64   { return s.confidence }

// Analyze yields the timestamp in seconds of every cut in videoPath.
func (s *Shortcut) Analyze(ctx context.Context, videoPath string) iter.Seq2[float64, error] {
	return func(yield func(float64, error) bool) {
		for cut, err := range s.Cuts(ctx, videoPath) {
			if err != nil {
				yield(0, err)
				return
			}
			if !yield(cut.Timestamp, nil) {
				return
			}
		}
	}
}

// Cuts yields every detected cut as soon as it is found, before the next
// frame is decoded. An error ends the sequence. Stopping early terminates
// the decoder.
func (s *Shortcut) Cuts(ctx context.Context, videoPath string) iter.Seq2[entity.Cut, error] {
	return func(yield func(entity.Cut, error) bool) {
		stream, err := OpenStream(ctx, s.decoder, videoPath, s.cfg)
		if err != nil {
			yield(entity.Cut{}, err)
			return
		}
		defer stream.Close()

		var prev *entity.Frame
		for frame, err := range stream.Frames() {
			if err != nil {
				yield(entity.Cut{}, err)
				return
			}
			if s.observe != nil {
				s.observe(frame)
			}
			if prev == nil {
				prev = frame
				continue
			}

			score, err := s.comparator.Compare(prev, frame)
			if err != nil {
				yield(entity.Cut{}, err)
				return
			}
			prev = frame
			if score >= s.confidence {
				continue
			}

			cut := entity.Cut{
				FrameIndex: frame.Index,
				Timestamp:  float64(frame.Index) / s.frameRate,
				Similarity: score,
				Frame:      frame,
			}
			if !yield(cut, nil) {
				return
			}
		}
	}
}
