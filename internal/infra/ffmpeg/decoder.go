package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/erebos42/shortcut/internal/domain/port"
	"go.uber.org/zap"
)

const (
	stderrTailSize = 4096
	killGrace      = 5 * time.Second
)

// Decoder runs ffmpeg (or a compatible binary such as avconv) to turn a
// video file into a raw frame pipe.
type Decoder struct {
	bin    string
	logger *zap.Logger
}

func NewDecoder(bin string, logger *zap.Logger) *Decoder {
	return &Decoder{bin: bin, logger: logger}
}

func decodeArgs(videoPath string, cfg entity.FrameConfig) []string {
	return []string{
		"-nostdin",
		"-i", videoPath,
		"-f", "rawvideo",
		"-pix_fmt", string(cfg.Color),
		"-s", cfg.Size(),
		"-",
	}
}

func (d *Decoder) Start(ctx context.Context, videoPath string, cfg entity.FrameConfig) (port.DecoderProcess, error) {
	cmd := exec.CommandContext(ctx, d.bin, decodeArgs(videoPath, cfg)...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace

	stderr := &tailBuffer{max: stderrTailSize}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", d.bin, err)
	}

	d.logger.Debug("decoder started",
		zap.String("bin", d.bin),
		zap.Int("pid", cmd.Process.Pid),
		zap.String("video", videoPath),
		zap.String("pix_fmt", string(cfg.Color)),
		zap.String("size", cfg.Size()),
	)

	return &process{cmd: cmd, stdout: stdout, stderr: stderr, logger: d.logger}, nil
}

type process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer
	logger *zap.Logger

	mu         sync.Mutex
	terminated bool
	waited     bool
	waitErr    error
}

func (p *process) Output() io.Reader { return p.stdout }

func (p *process) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.waited {
		return p.waitErr
	}
	p.waited = true

	err := p.cmd.Wait()
	if err != nil && !p.terminated {
		if tail := p.stderr.String(); tail != "" {
			err = fmt.Errorf("%w: %s", err, tail)
		}
		p.waitErr = err
	}
	p.logger.Debug("decoder exited",
		zap.Int("pid", p.cmd.Process.Pid),
		zap.Bool("terminated", p.terminated),
		zap.Error(err),
	)
	return p.waitErr
}

// Terminate sends SIGTERM and closes the read end of the pipe so a decoder
// blocked on a full pipe sees EPIPE.
func (p *process) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.waited {
		return nil
	}
	p.terminated = true
	_ = p.stdout.Close()
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("terminate decoder: %w", err)
	}
	return nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, b...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(b), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
