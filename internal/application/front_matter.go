package application

import (
	"errors"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterFence = "---"

var (
	requiredFrontMatterKeys = []string{
		"title", "vault_id", "glyphsig", "author", "date",
		"status", "predecessor", "successor", checksumKey,
	}

	titleVersionPattern = regexp.MustCompile(`(?i)v(\d+\.\d+(?:\.\d+)?)`)
	hexChecksumPattern  = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// parseFrontMatter reads the block between a leading --- and the next line
// starting with ---. Blocks YAML cannot parse fall back to key: value lines.
func parseFrontMatter(text string) (map[string]any, error) {
	if !strings.HasPrefix(text, frontMatterFence) {
		return nil, errors.New("front matter must start with '---' on the first line")
	}

	end := strings.Index(text[len(frontMatterFence):], "\n"+frontMatterFence)
	if end == -1 {
		return nil, errors.New("closing '---' for front matter not found")
	}
	block := strings.TrimSpace(text[len(frontMatterFence) : len(frontMatterFence)+end])

	var doc any
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return parseScalarLines(block), nil
	}

	fields, ok := doc.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return fields, nil
}

func parseScalarLines(block string) map[string]any {
	fields := map[string]any{}
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return fields
}

func isBlank(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
