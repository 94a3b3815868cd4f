package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/mirror-launcher/internal/application"
	"github.com/spf13/cobra"
)

func newInternetCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "internet",
		Short: "Apply the internet access policy",
	}

	cmd.AddCommand(newInternetRequestCmd(app))
	return cmd
}

func newInternetRequestCmd(app *app) *cobra.Command {
	var (
		action  string
		details string
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Ask whether an action may use the network",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var ask application.ConsentFunc
			if !yes {
				ask = promptConsent(cmd.InOrStdin(), cmd.OutOrStdout())
			}

			decision, err := app.launcher.RequestInternet(cmd.Context(), action, details, ask)
			if err != nil {
				return err
			}

			verdict := "denied"
			if decision.Granted {
				verdict = "granted"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", action, verdict, decision.Reason)
			return err
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "What wants network access")
	cmd.Flags().StringVar(&details, "details", "", "Details shown when asking for consent")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Grant without asking in hybrid_ask mode")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func promptConsent(in io.Reader, out io.Writer) application.ConsentFunc {
	reader := bufio.NewReader(in)
	return func(_ context.Context, action, details string) (bool, error) {
		prompt := fmt.Sprintf("Allow %s", action)
		if details != "" {
			prompt += fmt.Sprintf(" (%s)", details)
		}
		_, _ = fmt.Fprintf(out, "%s? [y/N] ", prompt)

		answer, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read consent answer: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
