// Package shortcuttest provides an in-memory decoder for exercising the
// scan pipeline without an ffmpeg binary.
package shortcuttest

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/erebos42/shortcut/internal/domain/port"
)

// Decoder hands out a Process replaying Output for every Start call.
type Decoder struct {
	Output   []byte
	ExitErr  error
	StartErr error

	mu        sync.Mutex
	processes []*Process
	paths     []string
}

func (d *Decoder) Start(_ context.Context, videoPath string, _ entity.FrameConfig) (port.DecoderProcess, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paths = append(d.paths, videoPath)
	if d.StartErr != nil {
		return nil, d.StartErr
	}
	p := &Process{out: bytes.NewReader(d.Output), exitErr: d.ExitErr}
	d.processes = append(d.processes, p)
	return p, nil
}

// Processes returns every process started so far.
func (d *Decoder) Processes() []*Process {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Process(nil), d.processes...)
}

func (d *Decoder) Paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.paths...)
}

// Process records lifecycle calls the way a real decoder would see them.
type Process struct {
	out     *bytes.Reader
	exitErr error

	mu         sync.Mutex
	terminates int
	waits      int
}

func (p *Process) Output() io.Reader { return p.out }

func (p *Process) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	if p.terminates > 0 {
		return nil
	}
	return p.exitErr
}

func (p *Process) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terminates++
	return nil
}

func (p *Process) Terminates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminates
}

func (p *Process) Waits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}

// Remaining is the number of output bytes never read.
func (p *Process) Remaining() int {
	return p.out.Len()
}

// Frames concatenates frames into one decoder output stream.
func Frames(frames ...[]byte) []byte {
	var out []byte
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}

// Solid returns a frame of size bytes all set to v.
func Solid(size int, v byte) []byte {
	return bytes.Repeat([]byte{v}, size)
}
