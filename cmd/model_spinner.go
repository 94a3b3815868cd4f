package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/mirror-launcher/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerGlyphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	spinnerModelStyle = lipgloss.NewStyle().Bold(true)
	spinnerPhaseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type loadPhaseMsg domain.LoadPhase

type modelLoadDoneMsg struct {
	err error
}

// modelLoadSpinnerModel follows StartModel through its load phases.
type modelLoadSpinnerModel struct {
	spinner spinner.Model
	model   string
	phase   domain.LoadPhase
	started time.Time
	now     func() time.Time
	load    tea.Cmd
	elapsed time.Duration
	err     error
	done    bool
}

func newModelLoadSpinnerModel(model string, now func() time.Time, load tea.Cmd) modelLoadSpinnerModel {
	if now == nil {
		now = time.Now
	}

	return modelLoadSpinnerModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerGlyphStyle)),
		model:   model,
		phase:   domain.PhaseVaultContext,
		started: now(),
		now:     now,
		load:    load,
	}
}

func (m modelLoadSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load)
}

func (m modelLoadSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loadPhaseMsg:
		m.phase = domain.LoadPhase(msg)
		return m, nil
	case modelLoadDoneMsg:
		m.done = true
		m.err = msg.err
		m.elapsed = m.now().Sub(m.started)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m modelLoadSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s %s %s",
		m.spinner.View(),
		spinnerModelStyle.Render(m.model),
		spinnerPhaseStyle.Render(m.phase.String()+"..."),
		formatLoadDuration(m.now().Sub(m.started)))
}

// runModelLoadSpinner runs load behind the spinner and returns how long it took.
func runModelLoadSpinner(ctx context.Context, output io.Writer, model string, load func(context.Context, func(domain.LoadPhase)) error) (time.Duration, error) {
	var p *tea.Program
	loadCmd := func() tea.Msg {
		return modelLoadDoneMsg{err: load(ctx, func(phase domain.LoadPhase) {
			p.Send(loadPhaseMsg(phase))
		})}
	}

	p = tea.NewProgram(
		newModelLoadSpinnerModel(model, time.Now, loadCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return 0, err
	}

	result, ok := finalModel.(modelLoadSpinnerModel)
	if !ok {
		return 0, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.elapsed, result.err
}

// modelDisplayName is the artifact file name without its .gguf suffix.
func modelDisplayName(modelPath string) string {
	name := strings.TrimSpace(modelPath)
	if name == "" {
		return "configured model"
	}
	name = filepath.Base(name)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func formatLoadDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
