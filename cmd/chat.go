package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/spf13/cobra"
)

const chatHelp = "Commands: /context key=value stages a context update, /status shows the vault, /quit exits."

func newChatCmd(app *app) *cobra.Command {
	var (
		modelPath   string
		placeholder bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive reflective session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer closeLauncher(app)

			if err := startModel(cmd, app, modelPath, placeholder); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, domain.DialogueSentinel)
			_, _ = fmt.Fprintln(out, chatHelp)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				_, _ = fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "/quit" || line == "/exit":
					return nil
				case line == "/status":
					if err := writeStatusOutput(cmd, app, nil); err != nil {
						return err
					}
					continue
				case strings.HasPrefix(line, "/context"):
					key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "/context")), "=")
					if !ok || strings.TrimSpace(key) == "" {
						_, _ = fmt.Fprintln(out, "usage: /context key=value")
						continue
					}
					app.launcher.UpdateContext(map[string]any{strings.TrimSpace(key): strings.TrimSpace(value)})
					_, _ = fmt.Fprintf(out, "context %s staged for the next recorded exchange\n", strings.TrimSpace(key))
					continue
				}

				if err := runExchange(cmd, app, line, placeholder); err != nil {
					if errors.Is(err, domain.ErrGeneration) || errors.Is(err, domain.ErrRecording) {
						_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
						continue
					}
					return err
				}
			}

			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "GGUF model path (default: settings model)")
	cmd.Flags().BoolVar(&placeholder, "placeholder", true, "Answer with a placeholder reflection when no model can be loaded")

	return cmd
}
