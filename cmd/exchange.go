package cmd

import (
	"context"
	"fmt"
	"strings"

	statusadapter "github.com/bnema/mirror-launcher/internal/adapters/render/status"
	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startModel loads the model behind a spinner. With allowPlaceholder a missing
// or failing model is reported and the command carries on without one.
func startModel(cmd *cobra.Command, app *app, modelPath string, allowPlaceholder bool) error {
	resolved := modelPath
	if strings.TrimSpace(resolved) == "" {
		settings, err := app.launcher.Settings(cmd.Context())
		if err != nil {
			return err
		}
		resolved = settings.ModelPath
		if allowPlaceholder && strings.TrimSpace(resolved) == "" {
			app.logger.Info("no model configured, using placeholder responses")
			return nil
		}
	}

	name := modelDisplayName(resolved)
	elapsed, err := runModelLoadSpinner(cmd.Context(), cmd.ErrOrStderr(), name, func(ctx context.Context, progress func(domain.LoadPhase)) error {
		return app.launcher.StartModelWithProgress(ctx, modelPath, progress)
	})
	if err == nil {
		app.logger.Info("model ready", zap.String("model", name), zap.Duration("elapsed", elapsed))
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "⟡ %s ready in %s\n", name, formatLoadDuration(elapsed))
		return nil
	}
	if !allowPlaceholder {
		return err
	}

	app.logger.Warn("model unavailable, using placeholder responses", zap.Error(err))
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "model unavailable (%v), continuing in placeholder mode\n", err)
	return nil
}

func runExchange(cmd *cobra.Command, app *app, text string, allowPlaceholder bool) error {
	out := cmd.OutOrStdout()
	placeholder := allowPlaceholder && !app.launcher.Session().State().Live()

	_, _ = fmt.Fprintf(out, "%s\n%s\n\n%s\n", statusadapter.UserHeader(), text, statusadapter.ReflectionHeader(placeholder))

	result, err := app.launcher.Exchange(cmd.Context(), text, func(token string) {
		_, _ = fmt.Fprint(out, token)
	}, allowPlaceholder)
	if err != nil {
		_, _ = fmt.Fprintln(out)
		return err
	}

	_, err = fmt.Fprintf(out, "\n\n⟡ Recorded %s\n", result.TranscriptPath)
	return err
}

func closeLauncher(app *app) {
	if err := app.launcher.Close(); err != nil {
		app.logger.Warn("close inference session", zap.Error(err))
	}
}
