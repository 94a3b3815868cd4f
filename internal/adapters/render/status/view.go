package status

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// View is everything the status screen shows. Vault is nil when no vault is
// configured or its state could not be read.
type View struct {
	Settings domain.Settings
	Vault    *domain.StatePointer
	Model    domain.ModelInfo
}

type RenderOptions struct {
	Now time.Time
}

// freshFor is how long a session stays fully highlighted before fading.
const freshFor = 7 * 24 * time.Hour

func renderView(view View, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(s.glyph.Render("⟡") + " MirrorDNA Launcher"),
		s.header.Render("vault: " + valueOr(view.Settings.VaultPath, "not configured")),
	}

	if view.Vault == nil {
		lines = append(lines, s.empty.Render("No vault state available."))
	} else {
		lines = append(lines, s.section.Render(renderVault(*view.Vault, opts, s)))
	}

	lines = append(lines, s.section.Render(renderRuntime(view, s)))

	if !view.Settings.OnboardingCompleted {
		lines = append(lines, s.warning.Render("onboarding not completed: run mirror vault init"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderVault(pointer domain.StatePointer, opts RenderOptions, s styles) string {
	parts := []string{
		s.vault.Render(pointer.VaultName),
	}

	if pointer.LastSession == nil {
		parts = append(parts,
			s.key.Render("sessions: ")+s.detail.Render("0"),
			s.key.Render("last session: ")+s.empty.Render("first session pending"))
	} else {
		last := pointer.LastSession
		parts = append(parts,
			s.key.Render("sessions: ")+s.detail.Render(fmt.Sprintf("%d", last.Number)),
			s.key.Render("last session: ")+s.detail.Render(last.Path)+" "+renderAge(last.Timestamp, opts.Now))
	}

	parts = append(parts, s.key.Render("context: ")+s.detail.Render(contextKeys(pointer.Context)))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderRuntime(view View, s styles) string {
	model := valueOr(view.Settings.ModelPath, "not configured")
	if view.Model.Loaded {
		model = fmt.Sprintf("%s (loaded, %d ctx)", view.Model.ModelPath, view.Model.ContextSize)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.key.Render("model: ")+s.detail.Render(model),
		s.key.Render("internet: ")+s.detail.Render(string(view.Settings.InternetMode)),
	)
}

func renderAge(timestamp string, now time.Time) string {
	at, err := time.Parse(domain.ISOTimestampLayout, timestamp)
	if err != nil {
		return fmt.Sprintf("(%s)", timestamp)
	}

	style := lipgloss.NewStyle().Foreground(ageColor(at, now))
	return style.Render(fmt.Sprintf("(%s)", formatAge(at, now)))
}

func formatAge(at, now time.Time) string {
	if now.IsZero() {
		return at.Format("15:04 on 02 Jan 2006")
	}

	elapsed := now.Sub(at)
	if elapsed < time.Minute {
		return "just now"
	}
	if elapsed < time.Hour {
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	}
	if elapsed < 24*time.Hour {
		return plural(int(elapsed.Hours()), "hour") + " ago"
	}

	days := int(math.Floor(elapsed.Hours() / 24))
	return fmt.Sprintf("%s ago, %s", plural(days, "day"), at.Format("02 Jan"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func contextKeys(ctx map[string]any) string {
	if len(ctx) == 0 {
		return "empty"
	}

	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// 240 is faded grey, 255 bright white on the 256 colour greyscale ramp.
	baseColor := 240.0
	targetColor := 255.0

	interpolated := baseColor + (targetColor-baseColor)*normalized
	return lipgloss.Color(fmt.Sprintf("%d", int(interpolated)))
}

// ageColor is bright for a session that just happened and fades to grey over
// freshFor.
func ageColor(at, now time.Time) lipgloss.Color {
	if now.IsZero() || at.After(now) {
		return lipgloss.Color("255")
	}

	remaining := freshFor.Seconds() - now.Sub(at).Seconds()
	return interpolateColor(remaining, 0, freshFor.Seconds())
}
