package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func Execute() error {
	return newRootCmd().Execute()
}

type rootOptions struct {
	verbose bool
	logFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	app := &app{}

	rootCmd := &cobra.Command{
		Use:   "mirror",
		Short: "MirrorDNA launcher: local reflective sessions with vault continuity",
		Long: "mirror runs a local language model against a MirrorDNA vault. Every exchange is " +
			"written to the vault as a numbered session transcript and the state pointer " +
			"carries continuity into the next session.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(opts)
			if err != nil {
				return err
			}
			return app.wire(logger)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			app.sync()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newVaultCmd(app),
		newSettingsCmd(app),
		newAskCmd(app),
		newChatCmd(app),
		newModelCmd(app),
		newInternetCmd(app),
		newValidateCmd(app),
	)

	return rootCmd
}

// newLogger logs warnings to stderr by default; a log file gets info and
// --verbose gets debug.
func newLogger(opts *rootOptions) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if opts.logFile != "" {
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		config.OutputPaths = []string{opts.logFile}
		config.ErrorOutputPaths = []string{opts.logFile}
	}
	if opts.verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	return logger.With(zap.String("run_id", uuid.NewString())), nil
}
