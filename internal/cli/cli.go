package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vk/statgraph/internal/app"
	"github.com/vk/statgraph/internal/ctxlog"
	"github.com/vk/statgraph/internal/hcl_adapter"
	"github.com/vk/statgraph/internal/watch"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// Streams are the standard streams a command reads and writes.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// flags holds every flag value. Only flags the user set override the
// settings file and environment.
type flags struct {
	configPath string
	logLevel   string
	logFormat  string

	sheet             string
	serverAddr        string
	healthcheckPort   int
	tickInterval      time.Duration
	broadcastInterval time.Duration

	url       string
	namespace string
}

// Execute runs the statgraph command line with args.
func Execute(ctx context.Context, args []string, s Streams) error {
	root := NewRootCommand(s)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the statgraph command tree.
func NewRootCommand(s Streams) *cobra.Command {
	f := &flags{}
	defaults := app.DefaultConfig()

	root := &cobra.Command{
		Use:   "statgraph",
		Short: "Incremental stat computation engine",
		Long: `statgraph evaluates a character stat sheet as a dependency graph.

Stats, derived formulas, modifiers, items and auras are declared in HCL.
Changes propagate lazily: only stats that depend on a change are recomputed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(s.In)
	root.SetOut(s.Out)
	root.SetErr(s.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "Path to a YAML settings file.")
	pf.StringVar(&f.logLevel, "log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&f.logFormat, "log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")

	root.AddCommand(
		newServeCommand(f, s),
		newConsoleCommand(f, s),
		newCheckCommand(f, s),
		newWatchCommand(f, s),
	)
	return root
}

func addSheetFlags(fs *pflag.FlagSet, f *flags) {
	defaults := app.DefaultConfig()
	fs.StringVarP(&f.sheet, "sheet", "s", "", "Path to the stat sheet file or directory.")
	fs.DurationVar(&f.tickInterval, "tick-interval", defaults.TickInterval, "How often time-based state is advanced.")
}

func newServeCommand(f *flags, s Streams) *cobra.Command {
	defaults := app.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "serve [SHEET_PATH]",
		Short: "Run the engine behind a socket.io server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, args)
			if err != nil {
				return err
			}
			a, err := app.NewApp(s.Out, cfg, hcl_adapter.NewLoader())
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	addSheetFlags(cmd.Flags(), f)
	cmd.Flags().StringVar(&f.serverAddr, "addr", defaults.ServerAddr, "Listen address for the socket.io server.")
	cmd.Flags().IntVar(&f.healthcheckPort, "healthcheck-port", defaults.HealthcheckPort, "Port for the HTTP health check and metrics server. 0 is disabled.")
	cmd.Flags().DurationVar(&f.broadcastInterval, "broadcast-interval", defaults.BroadcastInterval, "How often pending changes are pushed to clients.")
	return cmd
}

func newConsoleCommand(f *flags, s Streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console [SHEET_PATH]",
		Short: "Drive the engine from an interactive console",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, args)
			if err != nil {
				return err
			}
			// Logs go to stderr so they do not interleave with the prompt.
			a, err := app.NewApp(s.Err, cfg, hcl_adapter.NewLoader())
			if err != nil {
				return err
			}
			return a.RunConsole(cmd.Context(), s.In, s.Out)
		},
	}
	addSheetFlags(cmd.Flags(), f)
	return cmd
}

func newCheckCommand(f *flags, s Streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check SHEET_PATH",
		Short: "Load and validate a stat sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := app.NewLogger(f.logLevel, f.logFormat, s.Err)
			ctx := ctxlog.WithLogger(cmd.Context(), logger)
			if err := app.Check(ctx, hcl_adapter.NewLoader(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(s.Out, "%s: OK\n", args[0])
			return nil
		},
	}
	return cmd
}

func newWatchCommand(f *flags, s Streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print a summary of every snapshot a server broadcasts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := app.NewLogger(f.logLevel, f.logFormat, s.Err)
			return watch.Run(cmd.Context(), f.url, s.Out,
				watch.WithNamespace(f.namespace),
				watch.WithLogger(logger.With("component", "watch")),
			)
		},
	}
	cmd.Flags().StringVar(&f.url, "url", "http://localhost:8080", "Server URL.")
	cmd.Flags().StringVar(&f.namespace, "namespace", "/", "Socket.io namespace.")
	return cmd
}

// resolveConfig layers the settings file, the environment and the flags
// the user set, then validates the result.
func resolveConfig(cmd *cobra.Command, f *flags, args []string) (*app.Config, error) {
	cfg, err := app.LoadConfig(f.configPath)
	if err != nil {
		return nil, &ExitError{Code: 1, Message: err.Error()}
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if changed("sheet") {
		cfg.SheetPath = f.sheet
	}
	if changed("addr") {
		cfg.ServerAddr = f.serverAddr
	}
	if changed("healthcheck-port") {
		cfg.HealthcheckPort = f.healthcheckPort
	}
	if changed("tick-interval") {
		cfg.TickInterval = f.tickInterval
	}
	if changed("broadcast-interval") {
		cfg.BroadcastInterval = f.broadcastInterval
	}
	if len(args) > 0 {
		if changed("sheet") {
			return nil, usageError(errors.New("give the sheet path either as an argument or with --sheet, not both"))
		}
		cfg.SheetPath = args[0]
	}

	valid, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	return valid, nil
}
