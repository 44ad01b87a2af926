package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"steadyudp/internal/banner"
	"steadyudp/internal/cli"
	"steadyudp/internal/config"
	"steadyudp/internal/dummy"
)

var (
	cfgFile string
	msgFile string

	// CLI Flags
	fifoPath    string
	logLevel    string
	logFile     string
	tier        string
	servers     []string
	bindAddr    string
	useTUI      bool
	useHistory  bool
	historyFile string
)

var rootCmd = &cobra.Command{
	Use:   "steadyudp",
	Short: "steadyudp - steady-rate UDP load generator",
	Long: `
steadyudp sends one small UDP request per cycle to a rotating list of
servers, counts the replies and logs the reply throughput every 50 replies.

The load tier, payload range and server list can be changed at runtime by
writing commands to the command FIFO (see "steadyudp send").`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Start(cmd.Context(), cli.Options{
			ConfigPath:     viper.GetString("config"),
			ConfigRequired: cmd.Flags().Changed("config"),
			MessagePath:    viper.GetString("message-config"),
			FIFO:           fifoPath,
			LogLevel:       logLevel,
			LogFile:        logFile,
			Tier:           tier,
			Servers:        servers,
			Bind:           bindAddr,
			TUI:            useTUI,
			History:        useHistory,
			HistoryPath:    historyFile,
		})
	},
}

func Execute() {
	// Custom Help with Banner
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(dummyCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(historyCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "client.conf", "client configuration document (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&msgFile, "message-config", "message.conf", "optional message document overriding req_num_low/high")
	rootCmd.PersistentFlags().StringVar(&fifoPath, "fifo", "", "command FIFO path (overrides fifo_communication_file)")
	rootCmd.PersistentFlags().StringVar(&historyFile, "history-file", "", "run history database (default ~/.steadyudp/history.db)")

	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARNING, ERROR or CRITICAL")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "log destination, /dev/stdout or a file")
	rootCmd.Flags().StringVarP(&tier, "tier", "t", "", "initial load tier: low, mid, high or custom")
	rootCmd.Flags().StringArrayVarP(&servers, "server", "s", nil, "server host:port (repeatable, replaces the configured list)")
	rootCmd.Flags().StringVar(&bindAddr, "bind", ":0", "local UDP address")
	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "show the live dashboard (needs a FIFO and file logging)")
	rootCmd.Flags().BoolVar(&useHistory, "history", false, "record the run in the history database")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("message-config", rootCmd.PersistentFlags().Lookup("message-config"))
}

func initConfig() {
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
}

// --- Dummy Subcommand ---
var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run a UDP test server answering every request",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		mode, _ := cmd.Flags().GetString("mode")
		delay, _ := cmd.Flags().GetDuration("delay")
		jitter, _ := cmd.Flags().GetDuration("jitter")
		drop, _ := cmd.Flags().GetFloat64("drop")

		srv, err := dummy.Start(dummy.ServerConfig{
			Addr:     addr,
			Mode:     mode,
			Delay:    delay,
			Jitter:   jitter,
			DropRate: drop,
		})
		if err != nil {
			return err
		}
		defer srv.Close()
		fmt.Printf("dummy server (%s) listening on %s\n", mode, srv.LocalAddr())

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		fmt.Printf("served %d, dropped %d\n", srv.Served(), srv.Dropped())
		return nil
	},
}

func init() {
	dummyCmd.Flags().StringP("addr", "a", "127.0.0.1:9000", "UDP address to listen on")
	dummyCmd.Flags().StringP("mode", "m", dummy.ModeEcho, "reply mode: echo, square or counter")
	dummyCmd.Flags().Duration("delay", 0, "delay before each reply")
	dummyCmd.Flags().Duration("jitter", 0, "random extra delay, up to this value")
	dummyCmd.Flags().Float64("drop", 0, "probability of leaving a request unanswered")
}
