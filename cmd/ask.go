package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(app *app) *cobra.Command {
	var (
		modelPath   string
		placeholder bool
	)

	cmd := &cobra.Command{
		Use:   "ask TEXT...",
		Short: "Run one reflective exchange and record it in the vault",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer closeLauncher(app)

			if err := startModel(cmd, app, modelPath, placeholder); err != nil {
				return err
			}

			return runExchange(cmd, app, strings.Join(args, " "), placeholder)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "GGUF model path (default: settings model)")
	cmd.Flags().BoolVar(&placeholder, "placeholder", false, "Answer with a placeholder reflection when no model can be loaded")

	return cmd
}
