package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"steadyudp/internal/config"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMalformed      = errors.New("malformed command")
)

// Command is one parsed line of the command channel.
type Command struct {
	Name  string
	Line  string
	apply func(cfg *config.Config, logger *log.Logger) error
}

// Apply runs the command against cfg.
func (c Command) Apply(cfg *config.Config, logger *log.Logger) error {
	return c.apply(cfg, logger)
}

// Usage lists the accepted command forms.
const Usage = `load <low|mid|high|custom>
period <tier> <seconds>
range <low> <high>
server add <host> <port>
server remove <host> <port>
server set <host> <port>
server clear
status
save <path>`

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// Parse parses one command line. Keywords are case-insensitive.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, malformed("empty line")
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]
	cmd := Command{Name: name, Line: strings.TrimSpace(line)}

	switch name {
	case "load", "tier":
		if len(args) != 1 {
			return cmd, malformed("usage: load <low|mid|high|custom>")
		}
		tier, ok := config.ParseTier(args[0])
		if !ok {
			return cmd, malformed("unknown tier %q", args[0])
		}
		cmd.apply = func(cfg *config.Config, _ *log.Logger) error {
			cfg.Tier = tier
			return nil
		}

	case "period":
		if len(args) != 2 {
			return cmd, malformed("usage: period <tier> <seconds>")
		}
		tier, ok := config.ParseTier(args[0])
		if !ok {
			return cmd, malformed("unknown tier %q", args[0])
		}
		secs, err := strconv.ParseFloat(args[1], 64)
		if err != nil || config.CheckPeriod(secs) != nil {
			return cmd, malformed("invalid period %q", args[1])
		}
		cmd.apply = func(cfg *config.Config, _ *log.Logger) error {
			return cfg.SetPeriod(tier, secs)
		}

	case "range":
		if len(args) != 2 {
			return cmd, malformed("usage: range <low> <high>")
		}
		low, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return cmd, malformed("invalid low %q", args[0])
		}
		high, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return cmd, malformed("invalid high %q", args[1])
		}
		if low > high {
			return cmd, malformed("low %d > high %d", low, high)
		}
		cmd.apply = func(cfg *config.Config, _ *log.Logger) error {
			return cfg.SetBounds(uint32(low), uint32(high))
		}

	case "server":
		return parseServer(cmd, args)

	case "status":
		if len(args) != 0 {
			return cmd, malformed("usage: status")
		}
		cmd.apply = func(cfg *config.Config, logger *log.Logger) error {
			period, _ := cfg.Period()
			logger.Info("status",
				"tier", cfg.Tier,
				"period", period,
				"low", cfg.Low,
				"high", cfg.High,
				"servers", targetList(cfg.Targets),
			)
			return nil
		}

	case "save":
		if len(args) != 1 {
			return cmd, malformed("usage: save <path>")
		}
		path := args[0]
		cmd.apply = func(cfg *config.Config, logger *log.Logger) error {
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			logger.Info("configuration saved", "file", path)
			return nil
		}

	default:
		return cmd, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
	return cmd, nil
}

func parseServer(cmd Command, args []string) (Command, error) {
	if len(args) == 0 {
		return cmd, malformed("usage: server <add|remove|set|clear> ...")
	}
	op := strings.ToLower(args[0])
	cmd.Name = "server " + op

	if op == "clear" {
		if len(args) != 1 {
			return cmd, malformed("usage: server clear")
		}
		cmd.apply = func(cfg *config.Config, _ *log.Logger) error {
			cfg.SetTargets()
			return nil
		}
		return cmd, nil
	}

	var (
		target config.Target
		err    error
	)
	switch len(args) {
	case 2:
		target, err = config.ParseTarget(args[1])
	case 3:
		target, err = config.NewTarget(args[1], args[2])
	default:
		return cmd, malformed("usage: server %s <host> <port>", op)
	}
	if err != nil {
		return cmd, malformed("%v", err)
	}

	switch op {
	case "add":
		cmd.apply = func(cfg *config.Config, _ *log.Logger) error {
			cfg.AddTarget(target)
			return nil
		}
	case "remove", "rm", "del":
		cmd.apply = func(cfg *config.Config, _ *log.Logger) error {
			if !cfg.RemoveTarget(target) {
				return malformed("server %s not in list", target)
			}
			return nil
		}
	case "set":
		cmd.apply = func(cfg *config.Config, _ *log.Logger) error {
			cfg.SetTargets(target)
			return nil
		}
	default:
		return cmd, fmt.Errorf("%w: server %q", ErrUnknownCommand, args[0])
	}
	return cmd, nil
}

func targetList(ts []config.Target) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
