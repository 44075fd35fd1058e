// Package cli implements the sunshift CLI commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelepuginivan/sunshift/internal/config"
	"github.com/shelepuginivan/sunshift/internal/gammarelay"
	"github.com/shelepuginivan/sunshift/internal/logging"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// dialClient opens the long-lived connection used by one-shot commands.
var dialClient = gammarelay.Dial

// options are the global flags and the state loaded from them.
type options struct {
	configPath string
	logLevel   string

	cfg       *config.Config
	logCloser io.Closer
}

// NewRootCmd returns the sunshift command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "sunshift",
		Short: "Control screen color temperature from the system tray",
		Long: `Sunshift controls the color temperature and brightness exposed by
wl-gammarelay-rs over the D-Bus session bus, and shows the current
temperature as a tray icon.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/sunshift/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(newGetCmd(opts))
	rootCmd.AddCommand(newIconCmd(opts))
	rootCmd.AddCommand(newPresetCmd(opts))
	rootCmd.AddCommand(newSetCmd(opts))
	rootCmd.AddCommand(newTrayCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// Exit codes of the sunshift binary.
const (
	ExitOK    = 0
	ExitError = 1
)

// Main runs the CLI and returns the process exit code.
func Main() int {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return ExitError
	}
	return ExitOK
}

// load reads the config file and sets up logging.
func (o *options) load() error {
	if o.configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		o.configPath = path
	}

	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.logCloser = closer

	return nil
}
