package application

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/bnema/mirror-launcher/internal/domain"
)

const (
	reflectionSeal = "⟡"
	frameOpen      = "⟦"
	frameClose     = "⟧"
	originMarker   = "ORIGIN:"
	checksumKey    = "checksum_sha256"
	checksumPrefix = "sha256:"
)

type consentGate struct {
	marker string
	closed *regexp.Regexp
}

var (
	consentGates = []consentGate{
		{marker: "PRIV:", closed: regexp.MustCompile(`PRIV:[^⟧]*⟧`)},
		{marker: "LOCK:", closed: regexp.MustCompile(`LOCK:[^⟧]*⟧`)},
		{marker: "OPEN:", closed: regexp.MustCompile(`OPEN:[^⟧]*⟧`)},
	}

	originPattern = regexp.MustCompile(`ORIGIN:\s*([^|]+)\s*\|\s*([^|]+)\s*\|\s*(\S+)`)

	requiredSidecarFields = []string{"glyphsig_version", "artifact_checksum", "lineage", "consent_gates"}
	requiredOriginFields  = []string{"timestamp", "author", "checksum"}

	// requiredSealKeys must be present before a sidecar is sealed or verified.
	requiredSealKeys = []string{"vault_id", "glyphsig", "version", checksumKey}
)

type findings struct {
	errors   []string
	warnings []string
}

func (f *findings) fail(format string, args ...any) bool {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
	return false
}

func (f *findings) warn(format string, args ...any) {
	f.warnings = append(f.warnings, fmt.Sprintf(format, args...))
}

// checkGlyphsigSyntax stops at the first error; warnings are advisory.
func checkGlyphsigSyntax(content string, f *findings) bool {
	if !strings.Contains(content, reflectionSeal) {
		f.warn("no reflection seal (%s) found", reflectionSeal)
	}

	opened := strings.Count(content, frameOpen)
	closed := strings.Count(content, frameClose)
	if opened != closed {
		return f.fail("mismatched enclosure frames: %d open, %d close", opened, closed)
	}

	gated := false
	for _, gate := range consentGates {
		if !strings.Contains(content, gate.marker) {
			continue
		}
		gated = true
		if !gate.closed.MatchString(content) {
			return f.fail("malformed consent gate: %s is not closed by %s", gate.marker, frameClose)
		}
	}
	if !gated {
		f.warn("no consent gates found (PRIV:, LOCK: or OPEN:)")
	}

	return true
}

func checkLineage(content string, f *findings) bool {
	if !strings.Contains(content, originMarker) {
		f.warn("no ORIGIN marker found, lineage is untracked")
		return true
	}
	if !originPattern.MatchString(content) {
		return f.fail("ORIGIN marker malformed, expected: timestamp | author | checksum")
	}
	return true
}

// checkSidecar validates the artifact sidecar against content and returns the
// decoded object for the tier check.
func checkSidecar(raw, content []byte, f *findings) (map[string]any, bool) {
	var sidecar map[string]any
	if err := json.Unmarshal(raw, &sidecar); err != nil {
		return nil, f.fail("sidecar JSON error: %v", err)
	}
	if sidecar == nil {
		return nil, f.fail("sidecar JSON error: not an object")
	}

	for _, field := range requiredSidecarFields {
		if _, ok := sidecar[field]; !ok {
			return nil, f.fail("missing required sidecar field: %s", field)
		}
	}

	declared := strings.TrimPrefix(stringValue(sidecar["artifact_checksum"]), checksumPrefix)
	actual := ContentChecksum(content)
	if declared != actual {
		return nil, f.fail("checksum mismatch: declared %s..., actual %s...", abbreviate(declared), abbreviate(actual))
	}

	lineage, _ := sidecar["lineage"].(map[string]any)
	origin, ok := lineage["origin"].(map[string]any)
	if !ok {
		return nil, f.fail("sidecar missing lineage.origin")
	}
	for _, field := range requiredOriginFields {
		if _, ok := origin[field]; !ok {
			return nil, f.fail("missing lineage.origin.%s", field)
		}
	}

	gates, _ := sidecar["consent_gates"].(map[string]any)
	if _, ok := gates["default"]; !ok {
		f.warn("no default consent gate specified")
	}

	return sidecar, true
}

// checkTier only compares declared levels for L1 and L2 targets; higher tiers
// have no machine-checkable requirements yet.
func checkTier(sidecar map[string]any, target domain.ComplianceTier, f *findings) {
	if target != domain.TierL1 && target != domain.TierL2 {
		return
	}

	declared := stringValue(sidecar["compliance_tier"])
	if declared == "" {
		declared = string(domain.TierL1)
	}
	if declared < string(target) {
		f.warn("declared tier %s below target %s", declared, target)
	}
}

func ContentChecksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SidecarChecksum hashes the compact, key-sorted JSON of sidecar with its
// checksum_sha256 value blanked.
func SidecarChecksum(sidecar map[string]any) (string, error) {
	blanked := maps.Clone(sidecar)
	blanked[checksumKey] = ""

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(blanked); err != nil {
		return "", fmt.Errorf("encode sidecar: %w", err)
	}

	return ContentChecksum(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

func decodeSidecar(data []byte) (map[string]any, error) {
	var sidecar map[string]any
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSidecarMalformed, err)
	}
	if sidecar == nil {
		return nil, domain.ErrSidecarMalformed
	}
	return sidecar, nil
}

func encodeSidecar(sidecar map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sidecar); err != nil {
		return nil, fmt.Errorf("encode sidecar: %w", err)
	}
	return buf.Bytes(), nil
}

func missingKeys(fields map[string]any, required []string) []string {
	var missing []string
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

func stringValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func abbreviate(checksum string) string {
	if len(checksum) > 8 {
		return checksum[:8]
	}
	return checksum
}
