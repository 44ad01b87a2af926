package command

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/log"

	"steadyudp/internal/config"
)

const (
	readChunk = 4096
	// maxPending caps a line that never receives its newline.
	maxPending = 64 * 1024
)

// Channel polls a Source and applies every complete command line to the
// configuration. It is the only writer of cfg.
type Channel struct {
	src    Source
	cfg    *config.Config
	logger *log.Logger

	pending []byte
	chunk   []byte
	eof     bool
}

// NewChannel returns a channel applying commands read from src to cfg.
func NewChannel(src Source, cfg *config.Config, logger *log.Logger) *Channel {
	return &Channel{
		src:    src,
		cfg:    cfg,
		logger: logger,
		chunk:  make([]byte, readChunk),
	}
}

// Source returns the underlying command source.
func (c *Channel) Source() Source { return c.src }

// Poll drains everything currently readable without blocking and applies
// each complete line. It returns the number of commands applied.
func (c *Channel) Poll() int {
	if c.src == nil {
		return 0
	}

readLoop:
	for {
		res := c.src.Read(c.chunk)
		switch res.Status {
		case Data:
			c.pending = append(c.pending, c.chunk[:res.N]...)
		case NoData:
			break readLoop
		case Closed:
			if !c.eof {
				c.eof = true
				c.logger.Info("command source reached end of input", "source", c.src.Kind())
				// A final line without newline still counts.
				if len(bytes.TrimSpace(c.pending)) > 0 {
					c.pending = append(c.pending, '\n')
				}
			}
			break readLoop
		default:
			c.logger.Error("command source read failed", "err", res.Err)
			break readLoop
		}
	}

	applied := 0
	for {
		i := bytes.IndexByte(c.pending, '\n')
		if i < 0 {
			break
		}
		line := string(c.pending[:i])
		c.pending = c.pending[i+1:]
		if c.handle(line) {
			applied++
		}
	}

	if len(c.pending) > maxPending {
		c.logger.Warn("discarding oversized command line", "bytes", len(c.pending))
		c.pending = nil
	}
	if len(c.pending) == 0 {
		c.pending = nil
	}
	return applied
}

func (c *Channel) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}

	cmd, err := Parse(trimmed)
	if err != nil {
		c.logger.Warn("ignoring command", "line", trimmed, "err", err)
		return false
	}
	if err := cmd.Apply(c.cfg, c.logger); err != nil {
		c.logger.Warn("command not applied", "line", cmd.Line, "err", err)
		return false
	}
	c.logger.Info("command applied", "line", cmd.Line)
	return true
}
