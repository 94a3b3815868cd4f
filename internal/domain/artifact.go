package domain

import (
	"fmt"
	"strings"
)

// ComplianceTier is a MirrorDNA Standard level, L1 lowest.
type ComplianceTier string

const (
	TierL1 ComplianceTier = "L1"
	TierL2 ComplianceTier = "L2"
	TierL3 ComplianceTier = "L3"
	TierL4 ComplianceTier = "L4"
)

func ParseComplianceTier(raw string) (ComplianceTier, error) {
	tier := ComplianceTier(strings.ToUpper(strings.TrimSpace(raw)))
	switch tier {
	case TierL1, TierL2, TierL3, TierL4:
		return tier, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownTier, raw)
	}
}

// Artifact is a text file plus its JSON sidecar when one was found next to it.
type Artifact struct {
	Path        string
	Content     []byte
	SidecarPath string
	Sidecar     []byte
}

func (a Artifact) HasSidecar() bool {
	return a.SidecarPath != ""
}

// ArtifactReport collects what a validation run found. Errors fail the
// artifact; warnings do not.
type ArtifactReport struct {
	Path     string
	Tier     ComplianceTier
	Errors   []string
	Warnings []string
}

func (r ArtifactReport) Valid() bool {
	return len(r.Errors) == 0
}

// SidecarSeal compares the checksum a sidecar declares with the one its
// content hashes to.
type SidecarSeal struct {
	Path     string
	Declared string
	Computed string
}

func (s SidecarSeal) Matches() bool {
	return s.Declared == s.Computed
}

type FrontMatterReport struct {
	Path    string
	Title   string
	Version string
	Errors  []string
	Notes   []string
}

func (r FrontMatterReport) Valid() bool {
	return len(r.Errors) == 0
}
