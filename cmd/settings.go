package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/mirror-launcher/internal/application"
	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/spf13/cobra"
)

func newSettingsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change launcher settings",
	}

	cmd.AddCommand(newSettingsShowCmd(app), newSettingsSetCmd(app))
	return cmd
}

type settingsOutput struct {
	ModelPath           string `json:"model_path"`
	VaultPath           string `json:"vault_path"`
	InternetMode        string `json:"internet_mode"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
	SettingsFile        string `json:"settings_file"`
}

func newSettingsShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !asJSON {
				return writeStatusOutput(cmd, app, nil)
			}

			settings, err := app.launcher.Settings(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(settingsOutput{
				ModelPath:           settings.ModelPath,
				VaultPath:           settings.VaultPath,
				InternetMode:        string(settings.InternetMode),
				OnboardingCompleted: settings.OnboardingCompleted,
				SettingsFile:        app.settingsPath,
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	return cmd
}

func newSettingsSetCmd(app *app) *cobra.Command {
	var (
		model    string
		vault    string
		internet string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			patch := application.SettingsPatch{}
			if cmd.Flags().Changed("model") {
				patch.ModelPath = &model
			}
			if cmd.Flags().Changed("vault") {
				patch.VaultPath = &vault
			}
			if cmd.Flags().Changed("internet") {
				mode, err := domain.ParseInternetMode(internet)
				if err != nil {
					return err
				}
				patch.InternetMode = &mode
			}
			if patch.ModelPath == nil && patch.VaultPath == nil && patch.InternetMode == nil {
				return errors.New("nothing to set: pass --model, --vault or --internet")
			}

			settings, err := app.launcher.UpdateSettings(cmd.Context(), patch)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Settings saved (model: %s, vault: %s, internet: %s)\n",
				valueOrNone(settings.ModelPath), valueOrNone(settings.VaultPath), settings.InternetMode)
			return err
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Path to the GGUF model file")
	cmd.Flags().StringVar(&vault, "vault", "", "Path to the active vault")
	cmd.Flags().StringVar(&internet, "internet", "", "Internet mode: offline_only, hybrid_ask or online")

	return cmd
}

func valueOrNone(value string) string {
	if value == "" {
		return "none"
	}
	return value
}
