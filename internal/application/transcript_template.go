package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bnema/mirror-launcher/internal/domain"
)

const noPredecessor = "none"

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

type TranscriptFields struct {
	SessionNumber   int
	Date            string
	Timestamp       string
	VaultName       string
	PredecessorPath string
	PreviousContext map[string]any
	Dialogue        string
}

func (f TranscriptFields) values() (map[string]string, error) {
	previous, err := renderContextJSON(f.PreviousContext)
	if err != nil {
		return nil, err
	}

	predecessor := f.PredecessorPath
	if predecessor == "" {
		predecessor = noPredecessor
	}

	return map[string]string{
		"session_number":   strconv.Itoa(f.SessionNumber),
		"date":             f.Date,
		"iso_timestamp":    f.Timestamp,
		"vault_name":       f.VaultName,
		"predecessor_path": predecessor,
		"previous_context": previous,
	}, nil
}

// RenderTranscript fills the session template. Placeholders outside the fixed
// set are rejected with domain.ErrUnknownPlaceholder. The dialogue replaces the
// first sentinel line, or is appended when the template has none.
func RenderTranscript(template string, fields TranscriptFields) (string, error) {
	values, err := fields.values()
	if err != nil {
		return "", err
	}

	if unknown := unknownPlaceholders(template, values); len(unknown) > 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownPlaceholder, strings.Join(unknown, ", "))
	}

	before, after, found := strings.Cut(template, domain.DialogueSentinel)

	var b strings.Builder
	b.WriteString(substitute(before, values))
	if found {
		b.WriteString(fields.Dialogue)
		b.WriteString(substitute(after, values))
		return b.String(), nil
	}

	if b.Len() > 0 && !strings.HasSuffix(before, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(fields.Dialogue)
	b.WriteString("\n")
	return b.String(), nil
}

func substitute(text string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return values[name]
	})
}

func unknownPlaceholders(template string, values map[string]string) []string {
	seen := map[string]struct{}{}
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if _, ok := values[match[1]]; ok {
			continue
		}
		seen[match[1]] = struct{}{}
	}

	unknown := make([]string, 0, len(seen))
	for name := range seen {
		unknown = append(unknown, name)
	}
	sort.Strings(unknown)
	return unknown
}

func renderContextJSON(ctx map[string]any) (string, error) {
	if ctx == nil {
		ctx = map[string]any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ctx); err != nil {
		return "", fmt.Errorf("encode previous context: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}
