package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect the local model binding",
	}

	cmd.AddCommand(newModelInfoCmd(app))
	return cmd
}

func newModelInfoCmd(app *app) *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Load the model against the active vault and print what was bound",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer closeLauncher(app)

			if err := startModel(cmd, app, modelPath, false); err != nil {
				return err
			}

			info := app.launcher.ModelInfo()
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "model: %s\n", info.ModelPath)
			_, _ = fmt.Fprintf(out, "context size: %d\n", info.ContextSize)
			_, _ = fmt.Fprintf(out, "vault: %s\n", info.VaultName)
			_, err := fmt.Fprintf(out, "handle: %s\n", info.HandleID)
			return err
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "GGUF model path (default: settings model)")
	return cmd
}
