package shortcut

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/erebos42/shortcut/internal/domain/port"
)

// FrameStream turns a decoder's raw byte output into Frames. It is one-pass
// and owns the decoder process until Close.
type FrameStream struct {
	proc port.DecoderProcess
	cfg  entity.FrameConfig
	size int

	next    int
	dropped int
	done    bool
	err     error

	closeOnce sync.Once
	closeErr  error
}

// OpenStream starts the decoder for videoPath. The caller must Close the
// returned stream.
func OpenStream(ctx context.Context, decoder port.FrameDecoder, videoPath string, cfg entity.FrameConfig) (*FrameStream, error) {
	if cfg.FrameSize() <= 0 {
		return nil, fmt.Errorf("%w: frame size %d", entity.ErrInvalidConfig, cfg.FrameSize())
	}
	proc, err := decoder.Start(ctx, videoPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrDecoderLaunch, err)
	}
	return &FrameStream{proc: proc, cfg: cfg, size: cfg.FrameSize()}, nil
}

// Next returns the next full frame. It returns io.EOF once the output is
// exhausted; a truncated trailing chunk is dropped.
func (s *FrameStream) Next() (*entity.Frame, error) {
	if s.done {
		return nil, s.terminal()
	}

	buf := make([]byte, s.size)
	n, err := io.ReadFull(s.proc.Output(), buf)
	switch {
	case err == nil:
		frame, ferr := entity.NewFrame(buf, s.next, s.cfg)
		if ferr != nil {
			return nil, ferr
		}
		s.next++
		return frame, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.dropped = n
		s.finish(nil)
	default:
		s.finish(err)
	}
	return nil, s.terminal()
}

func (s *FrameStream) finish(readErr error) {
	s.done = true
	waitErr := s.proc.Wait()
	switch {
	case readErr != nil:
		s.err = fmt.Errorf("%w: read frame %d: %w", entity.ErrDecoderRuntime, s.next, readErr)
	case waitErr != nil:
		s.err = fmt.Errorf("%w: after %d frames: %w", entity.ErrDecoderRuntime, s.next, waitErr)
	}
}

func (s *FrameStream) terminal() error {
	if s.err != nil {
		return s.err
	}
	return io.EOF
}

// Frames adapts Next to a range-over-func sequence. The sequence ends
// silently at io.EOF; other errors are yielded once. Breaking out of the
// loop closes the stream.
func (s *FrameStream) Frames() iter.Seq2[*entity.Frame, error] {
	return func(yield func(*entity.Frame, error) bool) {
		for {
			frame, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(frame, nil) {
				s.Close()
				return
			}
		}
	}
}

// Count is the number of frames produced so far.
func (s *FrameStream) Count() int { return s.next }

// Dropped is the byte length of a truncated trailing chunk, if any.
func (s *FrameStream) Dropped() int { return s.dropped }

// Close terminates the decoder and reaps it. It is safe to call more than once.
func (s *FrameStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.proc.Terminate()
		if !s.done {
			s.done = true
			_ = s.proc.Wait()
		}
	})
	return s.closeErr
}
