package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"steadyudp/internal/banner"
	"steadyudp/internal/command"
	"steadyudp/internal/config"
	"steadyudp/internal/dgram"
	"steadyudp/internal/logging"
	"steadyudp/internal/runner"
	"steadyudp/internal/storage"
	"steadyudp/internal/tui/app"
	"steadyudp/internal/tui/history"
	"steadyudp/internal/tui/prompt"
)

// Options are the startup settings collected by the root command. Empty
// override fields leave the loaded configuration untouched.
type Options struct {
	ConfigPath     string
	ConfigRequired bool
	MessagePath    string

	FIFO     string
	LogLevel string
	LogFile  string
	Tier     string
	Servers  []string

	TUI         bool
	History     bool
	HistoryPath string

	// Bind is the local UDP address; ":0" picks an ephemeral port.
	Bind string

	Stdout io.Writer
}

// LoadConfig reads the configuration documents and applies the overrides.
func LoadConfig(opts Options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if _, statErr := os.Stat(opts.ConfigPath); statErr != nil && !opts.ConfigRequired {
		cfg, err = config.FromEnv(opts.MessagePath)
	} else {
		cfg, err = config.Load(opts.ConfigPath, opts.MessagePath)
	}
	if err != nil {
		return nil, err
	}

	if opts.FIFO != "" {
		cfg.FIFOPath = opts.FIFO
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogFile != "" {
		cfg.LogFile = opts.LogFile
	}
	if opts.Tier != "" {
		cfg.Tier = config.Tier(strings.ToLower(opts.Tier))
	}
	if len(opts.Servers) > 0 {
		targets := make([]config.Target, 0, len(opts.Servers))
		for _, s := range opts.Servers {
			t, err := config.ParseTarget(s)
			if err != nil {
				return nil, fmt.Errorf("--server %q: %w", s, err)
			}
			targets = append(targets, t)
		}
		cfg.SetTargets(targets...)
	}
	if opts.HistoryPath != "" {
		cfg.HistoryPath = opts.HistoryPath
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Start runs the generator until ctx is cancelled, SIGINT or SIGTERM
// arrives, or the dashboard is closed. Startup failures are returned;
// a run that started always ends with a nil error.
func Start(ctx context.Context, opts Options) error {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Bind == "" {
		opts.Bind = ":0"
	}

	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	if opts.TUI {
		if cfg.UsesStdin() || cfg.StdinFallback {
			return errors.New("the dashboard needs a FIFO command channel without stdin fallback")
		}
		if cfg.LogFile == config.DefaultLogFile || cfg.LogFile == "/dev/stderr" {
			return errors.New("the dashboard needs logging_file pointing at a file")
		}
	}

	logOut, err := logging.Open(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logOut.Close()
	logger, err := logging.New(logOut, cfg.LogLevel)
	if err != nil {
		return err
	}

	src, err := command.Open(cfg, logger)
	if err != nil {
		logging.Critical(logger, "cannot open command channel", "file", cfg.FIFOPath, "err", err)
		return fmt.Errorf("command channel: %w", err)
	}
	shutdown := command.NewShutdown(src, logger)

	sock, err := dgram.Listen(opts.Bind)
	if err != nil {
		_ = shutdown.Run()
		return fmt.Errorf("udp socket: %w", err)
	}
	defer sock.Close()
	logger.Info("socket bound", "addr", sock.LocalAddr())

	var store *storage.Store
	if opts.History {
		store, err = openStore(cfg)
		if err != nil {
			logger.Warn("history disabled", "err", err)
		} else {
			defer store.Close()
		}
	}

	if !opts.TUI {
		printHeader(opts.Stdout, cfg, sock.LocalAddr())
	}

	updates := make(runner.StatsUpdateChan, 100)
	channel := command.NewChannel(src, cfg, logger)
	r := runner.NewRunner(cfg, sock, channel, updates, logger)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.TUI {
		runWithDashboard(runCtx, stop, r, cfg, store, logger)
	} else {
		r.Run(runCtx)
	}
	ended := time.Now()
	logger.Info("stopping", "sent", r.Stats.Sent, "received", r.Stats.Received)

	if err := shutdown.Run(); err != nil {
		logger.Error("shutdown incomplete", "err", err)
	}

	if store != nil {
		rec := storage.NewRecord(r, ended)
		if err := store.Save(rec); err != nil {
			logger.Error("cannot save run", "err", err)
		} else {
			logger.Info("run saved", "id", rec.ID, "file", store.Path())
		}
	}

	if !opts.TUI {
		printSummary(opts.Stdout, r, ended.Sub(r.Start))
	}
	return nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	path := cfg.HistoryPath
	if path == "" {
		p, err := storage.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return storage.Open(path)
}

func runWithDashboard(ctx context.Context, stop func(), r *runner.Runner, cfg *config.Config, store *storage.Store, logger *log.Logger) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	out, err := prompt.OpenFIFO(cfg.FIFOPath)
	if err != nil {
		logger.Error("dashboard prompt unavailable", "err", err)
		out = nopWriteCloser{io.Discard}
	}
	defer out.Close()

	var lister history.Lister
	if store != nil {
		lister = store
	}

	m := app.NewModel(r.Updates, stop, done, out, lister)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("dashboard failed", "err", err)
	}
	stop()
	<-done
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func printHeader(w io.Writer, cfg *config.Config, local string) {
	period, _ := cfg.Period()
	targets := make([]string, len(cfg.Targets))
	for i, t := range cfg.Targets {
		targets[i] = t.String()
	}
	if len(targets) == 0 {
		targets = append(targets, "none")
	}

	fmt.Fprint(w, banner.GetString())
	fmt.Fprintf(w, "======================================================================\n")
	fmt.Fprintf(w, "Servers    : %s\n", strings.Join(targets, ", "))
	fmt.Fprintf(w, "Load tier  : %s (%gs period)\n", cfg.Tier, period)
	fmt.Fprintf(w, "Payload    : [%d, %d]\n", cfg.Low, cfg.High)
	fmt.Fprintf(w, "Commands   : %s\n", cfg.FIFOPath)
	fmt.Fprintf(w, "Local addr : %s\n", local)
	fmt.Fprintf(w, "======================================================================\n\n")
}

func printSummary(w io.Writer, r *runner.Runner, total time.Duration) {
	st := r.Stats
	fmt.Fprintf(w, "\nRUN SUMMARY\n")
	fmt.Fprintf(w, "======================================================================\n")
	fmt.Fprintf(w, "Duration        : %s\n", total.Round(time.Millisecond))
	fmt.Fprintf(w, "Requests sent   : %d\n", st.Sent)
	fmt.Fprintf(w, "Replies received: %d\n", st.Received)
	fmt.Fprintf(w, "Pending         : %d\n", st.Pending())
	fmt.Fprintf(w, "Send would-block: %d\n", st.SendBlocks)
	fmt.Fprintf(w, "Errors          : send %d / recv %d / malformed %d\n", st.SendErrors, st.RecvErrors, st.Malformed)
	fmt.Fprintf(w, "Windows         : %d\n", r.Windows())
	fmt.Fprintf(w, "Cycle work (ms) : mean %.3f  P50 %.3f  P99 %.3f  max %.3f\n",
		st.CycleWorkMeanMs(), st.CycleWorkP50Ms(), st.CycleWorkP99Ms(), st.CycleWorkMaxMs())
	fmt.Fprintf(w, "======================================================================\n")
}
