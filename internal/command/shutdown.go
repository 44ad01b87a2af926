package command

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"

	"steadyudp/internal/logging"
)

// Shutdown releases the command channel on interrupt. It is built once at
// startup and handed to the interrupt path.
type Shutdown struct {
	Source Source
	Logger *log.Logger

	remove      func(path string) error
	forceRemove func(path string) error
}

// NewShutdown captures src for cleanup.
func NewShutdown(src Source, logger *log.Logger) *Shutdown {
	return &Shutdown{
		Source:      src,
		Logger:      logger,
		remove:      os.Remove,
		forceRemove: rmForce,
	}
}

func rmForce(path string) error {
	out, err := exec.Command("rm", "-f", path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("rm -f: %w: %s", err, out)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Run closes the source and, for a named pipe, removes its file. A file that
// survives os.Remove is removed with rm -f; if that fails too the failure is
// logged and returned, and the caller still exits.
func (s *Shutdown) Run() error {
	if s == nil || s.Source == nil {
		return nil
	}
	if err := s.Source.Close(); err != nil {
		s.Logger.Warn("closing command source", "err", err)
	}
	if s.Source.Kind() != KindFIFO {
		return nil
	}

	path := s.Source.Path()
	if err := s.remove(path); err != nil && !os.IsNotExist(err) {
		s.Logger.Warn("remove FIFO", "file", path, "err", err)
	}
	if exists(path) {
		logging.Critical(s.Logger, "FIFO file was not deleted, retrying with rm -f", "file", path)
		if err := s.forceRemove(path); err != nil || exists(path) {
			if err == nil {
				err = fmt.Errorf("%s still present", path)
			}
			s.Logger.Error("could not delete FIFO", "file", path, "err", err)
			return err
		}
	}
	s.Logger.Debug("deleted FIFO", "file", path)
	return nil
}
