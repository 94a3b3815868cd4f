package application

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/bnema/mirror-launcher/internal/ports"
	"go.uber.org/zap"
)

// ArtifactValidator checks MirrorDNA artifacts, their sidecars and citation
// front matter.
type ArtifactValidator struct {
	store  ports.ArtifactStore
	logger *zap.Logger
}

func NewArtifactValidator(store ports.ArtifactStore, logger *zap.Logger) *ArtifactValidator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ArtifactValidator{
		store:  store,
		logger: logger.Named("validator"),
	}
}

// ValidateArtifact runs the syntax, lineage and sidecar checks on one
// artifact, then the tier check if those passed. The returned error is only
// set when the artifact could not be read.
func (v *ArtifactValidator) ValidateArtifact(ctx context.Context, path string, tier domain.ComplianceTier) (domain.ArtifactReport, error) {
	if _, err := domain.ParseComplianceTier(string(tier)); err != nil {
		return domain.ArtifactReport{}, err
	}

	artifact, err := v.store.ReadArtifact(ctx, path)
	if err != nil {
		return domain.ArtifactReport{}, err
	}

	report := domain.ArtifactReport{Path: path, Tier: tier}
	f := &findings{}

	if !utf8.Valid(artifact.Content) {
		f.fail("artifact must be UTF-8 encoded text")
		return v.logged(report, f), nil
	}
	if !artifact.HasSidecar() {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		f.fail("no sidecar found (expected %s.json or %s.sidecar.json)", filepath.Base(path), stem)
		return v.logged(report, f), nil
	}

	content := string(artifact.Content)
	syntaxOK := checkGlyphsigSyntax(content, f)
	lineageOK := checkLineage(content, f)
	sidecar, sidecarOK := checkSidecar(artifact.Sidecar, artifact.Content, f)
	if syntaxOK && lineageOK && sidecarOK {
		checkTier(sidecar, tier, f)
	}

	return v.logged(report, f), nil
}

// ValidateDirectory validates every .md and .txt artifact directly under dir.
func (v *ArtifactValidator) ValidateDirectory(ctx context.Context, dir string, tier domain.ComplianceTier) ([]domain.ArtifactReport, error) {
	paths, err := v.store.ListArtifacts(ctx, dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", domain.ErrNoArtifacts, dir)
	}

	reports := make([]domain.ArtifactReport, 0, len(paths))
	for _, path := range paths {
		report, err := v.ValidateArtifact(ctx, path, tier)
		if err != nil {
			return nil, fmt.Errorf("validate %s: %w", path, err)
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// SealSidecar writes the sidecar's own checksum into checksum_sha256.
func (v *ArtifactValidator) SealSidecar(ctx context.Context, path string) (domain.SidecarSeal, error) {
	sidecar, seal, err := v.readSeal(ctx, path)
	if err != nil {
		return domain.SidecarSeal{}, err
	}

	sidecar[checksumKey] = seal.Computed
	data, err := encodeSidecar(sidecar)
	if err != nil {
		return domain.SidecarSeal{}, err
	}
	if err := v.store.ReplaceFile(ctx, path, data); err != nil {
		return domain.SidecarSeal{}, fmt.Errorf("write sidecar: %w", err)
	}

	v.logger.Info("sidecar sealed", zap.String("path", path), zap.String("checksum", seal.Computed))
	seal.Declared = seal.Computed
	return seal, nil
}

// VerifySidecar recomputes the checksum without writing. A mismatch is
// reported through the seal, not as an error.
func (v *ArtifactValidator) VerifySidecar(ctx context.Context, path string) (domain.SidecarSeal, error) {
	_, seal, err := v.readSeal(ctx, path)
	if err != nil {
		return domain.SidecarSeal{}, err
	}

	if !seal.Matches() {
		v.logger.Warn("sidecar checksum mismatch",
			zap.String("path", path),
			zap.String("declared", seal.Declared),
			zap.String("computed", seal.Computed))
	}
	return seal, nil
}

func (v *ArtifactValidator) readSeal(ctx context.Context, path string) (map[string]any, domain.SidecarSeal, error) {
	data, err := v.store.ReadFile(ctx, path)
	if err != nil {
		return nil, domain.SidecarSeal{}, err
	}

	sidecar, err := decodeSidecar(data)
	if err != nil {
		return nil, domain.SidecarSeal{}, fmt.Errorf("%s: %w", path, err)
	}
	if missing := missingKeys(sidecar, requiredSealKeys); len(missing) > 0 {
		return nil, domain.SidecarSeal{}, fmt.Errorf("%s: %w: %s", path, domain.ErrSidecarIncomplete, strings.Join(missing, ", "))
	}

	computed, err := SidecarChecksum(sidecar)
	if err != nil {
		return nil, domain.SidecarSeal{}, err
	}

	return sidecar, domain.SidecarSeal{
		Path:     path,
		Declared: stringValue(sidecar[checksumKey]),
		Computed: computed,
	}, nil
}

// ValidateFrontMatter checks the citation-style front matter at the top of a
// Markdown file.
func (v *ArtifactValidator) ValidateFrontMatter(ctx context.Context, path string) (domain.FrontMatterReport, error) {
	data, err := v.store.ReadFile(ctx, path)
	if err != nil {
		return domain.FrontMatterReport{}, err
	}

	report := domain.FrontMatterReport{Path: path}
	fields, err := parseFrontMatter(string(data))
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report, nil
	}

	for _, key := range requiredFrontMatterKeys {
		if isBlank(fields[key]) {
			report.Errors = append(report.Errors, fmt.Sprintf("missing required key %q", key))
		}
	}

	report.Title = stringValue(fields["title"])
	report.Version = strings.TrimSpace(stringValue(fields["version"]))
	if report.Version == "" {
		if m := titleVersionPattern.FindStringSubmatch(report.Title); m != nil {
			report.Version = m[1]
			report.Notes = append(report.Notes, "version inferred from title: "+report.Version)
		} else {
			report.Notes = append(report.Notes, "version missing and could not be inferred from title")
		}
	}

	if !hexChecksumPattern.MatchString(stringValue(fields[checksumKey])) {
		report.Errors = append(report.Errors, "invalid checksum_sha256 (must be 64 hex chars)")
	}

	v.logger.Debug("front matter checked",
		zap.String("path", path),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

func (v *ArtifactValidator) logged(report domain.ArtifactReport, f *findings) domain.ArtifactReport {
	report.Errors = f.errors
	report.Warnings = f.warnings
	v.logger.Debug("artifact checked",
		zap.String("path", report.Path),
		zap.String("tier", string(report.Tier)),
		zap.Bool("valid", report.Valid()),
		zap.Int("warnings", len(report.Warnings)))
	return report
}
