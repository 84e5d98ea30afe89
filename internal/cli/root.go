package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/medallia/speech-api-reference-implementation/internal/config"
	"github.com/medallia/speech-api-reference-implementation/internal/executor"
	"github.com/medallia/speech-api-reference-implementation/internal/httpretry"
	"github.com/medallia/speech-api-reference-implementation/internal/output"
)

// configKeyAnnotation marks a flag with the config key it overrides
const configKeyAnnotation = "speech/config-key"

// app carries the state shared by the subcommands of one invocation
type app struct {
	cfgFile string
	manager *config.Manager
	cfg     *config.SpeechConfig
	timeout time.Duration
	logger  *slog.Logger
}

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd(&app{}).ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "speech",
		Short: "Speech - publish call metadata and transfer media for the Speech API",
		Long: `Speech is a CLI tool for loading data into the Medallia Speech API.
It publishes call metadata records in parallel batches and transfers media
files from a local folder or an SFTP server into the media file transfer bucket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	// Define persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.speech.yaml)")
	flags.StringP("output", "o", config.DefaultOutput, "report format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output with debug logging")
	flags.Bool("no-color", false, "disable colored output")
	flags.Bool("no-headers", false, "omit the header row of table reports")
	flags.StringP("timeout", "t", config.DefaultTimeout, "max allowed time for the whole run in _d_h_m_s format, e.g. 5h30m")
	flags.IntP("parallel", "p", config.DefaultParallel, fmt.Sprintf("number of parallel workers (1-%d)", config.MaxParallel))

	bindKey(flags, "output", "output")
	bindKey(flags, "verbose", "verbose")
	bindKey(flags, "no-color", "no-color")
	bindKey(flags, "no-headers", "no-headers")
	bindKey(flags, "timeout", "timeout")
	bindKey(flags, "parallel", "parallel")

	// Add subcommands
	rootCmd.AddCommand(newVersionCmd(a))
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newPublishCmd(a))
	rootCmd.AddCommand(newTransferCmd(a))
	registerFlagCompletions(rootCmd)

	return rootCmd
}

// bindKey records the config key a flag overrides; the binding itself happens
// once the config file location is known
func bindKey(fs *pflag.FlagSet, name, key string) {
	fs.SetAnnotation(name, configKeyAnnotation, []string{key})
}

// initConfig initializes configuration and logging
func (a *app) initConfig(cmd *cobra.Command) error {
	a.manager = config.NewManager(a.cfgFile)

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys, ok := f.Annotations[configKeyAnnotation]
		if !ok || len(keys) == 0 || bindErr != nil {
			return
		}
		bindErr = a.manager.BindFlag(keys[0], f)
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := a.manager.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	// Setup structured logging
	a.logger = setupLogging(cmd.ErrOrStderr(), cfg)
	if used := a.manager.ConfigFileUsed(); used != "" {
		a.logger.Debug("loaded configuration", "file", used)
	}

	if err := config.ValidateParallel(cfg.Parallel); err != nil {
		return err
	}
	if err := config.ValidateOutput(cfg.Output); err != nil {
		return err
	}
	a.timeout, err = config.ParseTimeout(cfg.Timeout)
	return err
}

// setupLogging configures structured logging with slog
func setupLogging(w io.Writer, cfg *config.SpeechConfig) *slog.Logger {
	// Set log level based on verbose flag
	logLevel := slog.LevelWarn
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if cfg.NoColor {
		// Use JSON handler for no-color mode
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	if cfg.Verbose {
		logger.Debug("verbose logging enabled")
	}
	return logger
}

// executorConfig turns the shared settings into run parameters
func (a *app) executorConfig(batchSize int) executor.Config {
	return executor.Config{
		Workers:   a.cfg.Parallel,
		Deadline:  a.timeout,
		BatchSize: batchSize,
	}
}

// retryConfig returns the retry policy for remote calls
func (a *app) retryConfig() httpretry.Config {
	return httpretry.Config{
		MaxAttempts:  a.cfg.Retry.MaxAttempts,
		InitialDelay: a.cfg.Retry.InitialDelay,
		MaxDelay:     a.cfg.Retry.MaxDelay,
	}
}

// progressBar draws on stderr only when it is a terminal
func (a *app) progressBar(cmd *cobra.Command, title string) *output.ProgressBar {
	w := cmd.ErrOrStderr()
	return output.NewProgressBar(w, title, !a.cfg.Verbose && output.IsTTY(w))
}

// printReport writes the run report in the configured format and returns
// the run failure, if any. Rejected items alone do not fail the command.
func (a *app) printReport(cmd *cobra.Command, report executor.Report) error {
	formatter := output.NewFormatter(output.Format(a.cfg.Output),
		output.WithNoColor(a.cfg.NoColor),
		output.WithNoHeaders(a.cfg.NoHeaders),
		output.WithWide(a.cfg.Verbose))

	fmt.Fprintln(cmd.OutOrStdout())
	if err := formatter.FormatReport(cmd.OutOrStdout(), report); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}

	return report.Failure
}
