// Package similarity holds the frame comparison strategies. Every strategy
// scores a pair of frames in [0, 1]; lower means more different.
package similarity

import (
	"fmt"

	"github.com/erebos42/shortcut/internal/domain/entity"
)

const (
	MetricSimple  = "simple"
	MetricMeanAbs = "mean_abs"

	DefaultDiffThreshold = 1000
)

type Comparator interface {
	Compare(a, b *entity.Frame) (float64, error)
}

// New builds the comparator registered under name.
func New(name string, diffThreshold int) (Comparator, error) {
	switch name {
	case MetricSimple:
		return Simple{Threshold: diffThreshold}, nil
	case MetricMeanAbs:
		return MeanAbs{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity metric %q", name)
	}
}

// Simple reports 0 when the summed absolute byte difference exceeds
// Threshold and 1 otherwise.
type Simple struct {
	Threshold int
}

func (s Simple) Compare(a, b *entity.Frame) (float64, error) {
	diff, err := absDiff(a, b)
	if err != nil {
		return 0, err
	}
	if diff > uint64(s.Threshold) {
		return 0.0, nil
	}
	return 1.0, nil
}

// MeanAbs scores 1 minus the mean absolute byte difference normalized to 255.
type MeanAbs struct{}

func (MeanAbs) Compare(a, b *entity.Frame) (float64, error) {
	diff, err := absDiff(a, b)
	if err != nil {
		return 0, err
	}
	if len(a.Data) == 0 {
		return 1.0, nil
	}
	return 1.0 - float64(diff)/float64(len(a.Data)*255), nil
}

func absDiff(a, b *entity.Frame) (uint64, error) {
	if a.Config != b.Config || len(a.Data) != len(b.Data) {
		return 0, fmt.Errorf("%w: frame %d (%s %s, %d bytes) vs frame %d (%s %s, %d bytes)",
			entity.ErrConfigMismatch,
			a.Index, a.Config.Color, a.Config.Size(), len(a.Data),
			b.Index, b.Config.Color, b.Config.Size(), len(b.Data))
	}
	var sum uint64
	for i := range a.Data {
		if a.Data[i] > b.Data[i] {
			sum += uint64(a.Data[i] - b.Data[i])
		} else {
			sum += uint64(b.Data[i] - a.Data[i])
		}
	}
	return sum, nil
}
