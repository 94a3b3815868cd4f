package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	statusadapter "github.com/bnema/mirror-launcher/internal/adapters/render/status"
	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/spf13/cobra"
)

func newVaultCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Create and inspect the active vault",
	}

	cmd.AddCommand(newVaultInitCmd(app), newVaultStateCmd(app))
	return cmd
}

func newVaultInitCmd(app *app) *cobra.Command {
	var (
		name     string
		parent   string
		template string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a vault from the template and make it active",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if template == "" {
				template = app.templatesPath
			}

			path, err := app.launcher.InitVault(cmd.Context(), template, parent, name)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Vault %s initialized at %s\n", name, path)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Vault name (directory name under --parent)")
	cmd.Flags().StringVar(&parent, "parent", "", "Directory that will contain the vault")
	cmd.Flags().StringVar(&template, "template", "", "Vault template directory (default: templates.path)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("parent")

	return cmd
}

type stateOutput struct {
	VaultName   string             `json:"vault_name"`
	Context     map[string]any     `json:"context"`
	LastSession *lastSessionOutput `json:"last_session,omitempty"`
}

type lastSessionOutput struct {
	Number    int    `json:"number"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

func newVaultStateCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the vault state pointer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pointer, err := app.launcher.ReadVaultState(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				out := stateOutput{VaultName: pointer.VaultName, Context: pointer.Context}
				if last := pointer.LastSession; last != nil {
					out.LastSession = &lastSessionOutput{Number: last.Number, Path: last.Path, Timestamp: last.Timestamp}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			return writeStatusOutput(cmd, app, &pointer)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	return cmd
}

// writeStatusOutput renders settings, vault and model together. A nil pointer
// is read from the vault when one is configured.
func writeStatusOutput(cmd *cobra.Command, app *app, pointer *domain.StatePointer) error {
	settings, err := app.launcher.Settings(cmd.Context())
	if err != nil {
		return err
	}

	if pointer == nil {
		state, err := app.launcher.ReadVaultState(cmd.Context())
		switch {
		case err == nil:
			pointer = &state
		case errors.Is(err, domain.ErrNoVaultConfigured):
		default:
			return err
		}
	}

	rendered, err := app.statusRenderer(statusadapter.View{
		Settings: settings,
		Vault:    pointer,
		Model:    app.launcher.ModelInfo(),
	}, statusadapter.RenderOptions{Now: app.now()})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
