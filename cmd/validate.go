package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/spf13/cobra"
)

var errValidationFailed = errors.New("validation failed")

func newValidateCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check artifacts, sidecar checksums and citation front matter",
	}

	cmd.AddCommand(
		newValidateArtifactCmd(app),
		newValidateChecksumCmd(app),
		newValidateFrontMatterCmd(app),
	)
	return cmd
}

func newValidateArtifactCmd(app *app) *cobra.Command {
	var tier string

	cmd := &cobra.Command{
		Use:   "artifact PATH",
		Short: "Validate an artifact, or every artifact in a directory, against its sidecar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := domain.ParseComplianceTier(tier)
			if err != nil {
				return err
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("stat %s: %w", args[0], err)
			}

			var reports []domain.ArtifactReport
			if info.IsDir() {
				reports, err = app.validator.ValidateDirectory(cmd.Context(), args[0], target)
			} else {
				var report domain.ArtifactReport
				report, err = app.validator.ValidateArtifact(cmd.Context(), args[0], target)
				reports = []domain.ArtifactReport{report}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			passed := 0
			for _, report := range reports {
				if report.Valid() {
					passed++
				}
				if err := writeArtifactReport(out, report); err != nil {
					return err
				}
			}

			if _, err := fmt.Fprintf(out, "%d/%d artifacts verified at %s\n", passed, len(reports), target); err != nil {
				return err
			}
			if passed != len(reports) {
				return fmt.Errorf("%w: %d of %d artifacts", errValidationFailed, len(reports)-passed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tier, "tier", string(domain.TierL1), "Target compliance tier (L1-L4)")
	return cmd
}

func writeArtifactReport(w io.Writer, report domain.ArtifactReport) error {
	mark := "✓"
	if !report.Valid() {
		mark = "✗"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", mark, report.Path)
	for _, msg := range report.Errors {
		fmt.Fprintf(&b, "  error: %s\n", msg)
	}
	for _, msg := range report.Warnings {
		fmt.Fprintf(&b, "  warning: %s\n", msg)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func newValidateChecksumCmd(app *app) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "checksum SIDECAR...",
		Short: "Seal sidecar JSON files with their own checksum, or verify existing seals",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var failed []error

			for _, path := range args {
				var (
					seal domain.SidecarSeal
					err  error
				)
				if verify {
					seal, err = app.validator.VerifySidecar(cmd.Context(), path)
				} else {
					seal, err = app.validator.SealSidecar(cmd.Context(), path)
				}
				if err != nil {
					failed = append(failed, err)
					if _, werr := fmt.Fprintf(out, "✗ %s: %v\n", path, err); werr != nil {
						return werr
					}
					continue
				}

				line := fmt.Sprintf("✓ %s sealed %s\n", path, seal.Computed)
				if verify {
					line = fmt.Sprintf("✓ %s verified\n", path)
					if !seal.Matches() {
						line = fmt.Sprintf("✗ %s checksum mismatch\n  declared: %s\n  computed: %s\n", path, seal.Declared, seal.Computed)
						failed = append(failed, fmt.Errorf("%s: checksum mismatch", path))
					}
				}
				if _, err := io.WriteString(out, line); err != nil {
					return err
				}
			}

			if len(failed) > 0 {
				return fmt.Errorf("%w: %w", errValidationFailed, errors.Join(failed...))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Verify checksums instead of writing them")
	return cmd
}

func newValidateFrontMatterCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frontmatter [PATH]",
		Short: "Check citation front matter (default: the active vault's master citation)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				settings, err := app.launcher.Settings(cmd.Context())
				if err != nil {
					return err
				}
				if strings.TrimSpace(settings.VaultPath) == "" {
					return domain.ErrNoVaultConfigured
				}
				path = filepath.Join(settings.VaultPath, domain.MasterCitationFile)
			}

			report, err := app.validator.ValidateFrontMatter(cmd.Context(), path)
			if err != nil {
				return err
			}

			var b strings.Builder
			if report.Valid() {
				fmt.Fprintf(&b, "✓ %s\n", path)
			} else {
				fmt.Fprintf(&b, "✗ %s\n", path)
			}
			if report.Title != "" {
				fmt.Fprintf(&b, "  title: %s\n", report.Title)
			}
			if report.Version != "" {
				fmt.Fprintf(&b, "  version: %s\n", report.Version)
			}
			for _, msg := range report.Errors {
				fmt.Fprintf(&b, "  error: %s\n", msg)
			}
			for _, msg := range report.Notes {
				fmt.Fprintf(&b, "  note: %s\n", msg)
			}
			if _, err := io.WriteString(cmd.OutOrStdout(), b.String()); err != nil {
				return err
			}

			if !report.Valid() {
				return fmt.Errorf("%w: %d front matter errors", errValidationFailed, len(report.Errors))
			}
			return nil
		},
	}

	return cmd
}
