package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"

	"steadyudp/internal/config"
)

// Kind identifies the resource behind a Source.
type Kind int

const (
	KindFIFO Kind = iota
	KindStdin
)

func (k Kind) String() string {
	if k == KindStdin {
		return "stdin"
	}
	return "fifo"
}

// ReadStatus is the outcome of one non-blocking read.
type ReadStatus int

const (
	Data ReadStatus = iota
	// NoData means nothing is buffered right now. It is not an error.
	NoData
	// Closed means the writer side is gone (end of file).
	Closed
	ReadFailed
)

// ReadResult is returned by Source.Read.
type ReadResult struct {
	Status ReadStatus
	N      int
	Err    error
}

// Source is a non-blocking, file-like command input.
type Source interface {
	Read(p []byte) ReadResult
	Close() error
	Kind() Kind
	Path() string
}

type fdSource struct {
	fd     int
	kind   Kind
	path   string
	closed bool
}

// OpenFIFO creates the named pipe at path and opens it for non-blocking
// reads. An existing named pipe is reused. The pipe is opened read-write so
// that the absence of a writer reads as NoData instead of end of file.
func OpenFIFO(path string) (Source, bool, error) {
	reused := false
	if err := unix.Mkfifo(path, 0o666); err != nil {
		if !errors.Is(err, unix.EEXIST) {
			return nil, false, fmt.Errorf("mkfifo %s: %w", path, err)
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, false, fmt.Errorf("stat %s: %w", path, statErr)
		}
		if info.Mode()&os.ModeNamedPipe == 0 {
			return nil, false, fmt.Errorf("mkfifo %s: file exists and is not a named pipe", path)
		}
		reused = true
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, reused, fmt.Errorf("open %s: %w", path, err)
	}
	return &fdSource{fd: fd, kind: KindFIFO, path: path}, reused, nil
}

// OpenStdin switches standard input to non-blocking mode.
func OpenStdin() (Source, error) {
	fd := int(os.Stdin.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("stdin nonblock: %w", err)
	}
	return &fdSource{fd: fd, kind: KindStdin, path: config.StdinPath}, nil
}

// Open selects the command source for cfg. The choice is made once: a FIFO
// when a path is configured, standard input when the path is /dev/stdin or
// when FIFO creation fails and the stdin fallback is enabled.
func Open(cfg *config.Config, logger *log.Logger) (Source, error) {
	if cfg.UsesStdin() {
		logger.Info("command channel", "file", config.StdinPath)
		return OpenStdin()
	}

	src, reused, err := OpenFIFO(cfg.FIFOPath)
	if err == nil {
		if reused {
			logger.Warn("reusing existing named pipe", "file", cfg.FIFOPath)
		}
		logger.Info("command channel", "file", cfg.FIFOPath)
		return src, nil
	}
	if !cfg.StdinFallback {
		return nil, err
	}

	logger.Warn("failed to create FIFO, falling back to stdin", "err", err)
	cfg.FIFOPath = config.StdinPath
	logger.Info("command channel", "file", config.StdinPath)
	return OpenStdin()
}

func (s *fdSource) Kind() Kind   { return s.kind }
func (s *fdSource) Path() string { return s.path }

func (s *fdSource) Read(p []byte) ReadResult {
	if s.closed {
		return ReadResult{Status: Closed}
	}
	for {
		n, err := unix.Read(s.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case errors.Is(err, unix.EAGAIN):
			return ReadResult{Status: NoData}
		case err != nil:
			return ReadResult{Status: ReadFailed, Err: err}
		case n == 0:
			return ReadResult{Status: Closed}
		default:
			return ReadResult{Status: Data, N: n}
		}
	}
}

// Close releases the source. Standard input is put back into blocking mode
// but its descriptor is left open.
func (s *fdSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.kind == KindStdin {
		return unix.SetNonblock(s.fd, false)
	}
	return unix.Close(s.fd)
}
