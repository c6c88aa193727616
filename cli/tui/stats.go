package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/smelt/cli/reader"
)

// StatsModel is a Bubble Tea model for stats views.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "stats_plan":
		content = m.renderStatsPlan()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderStatsPlan() string {
	data, ok := m.data.(*reader.StatsView)
	if !ok {
		return "Invalid data type for stats_plan"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Plan Statistics"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Plan ID:"),
		ValueStyle.Render(data.PlanID)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Workspace:"),
		ValueStyle.Render(data.Workspace)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Day:"),
		ValueStyle.Render(data.Day)))
	if data.CompletedAt != "" {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Completed:"),
			ValueStyle.Render(data.CompletedAt)))
	}
	b.WriteString("\n")

	// Create stat boxes
	boxes := []string{
		m.renderStatBox("Descriptors", data.Descriptors, lipgloss.Color("#3B82F6")),
		m.renderStatBox("Spawns", data.Spawns, successColor),
		m.renderStatBox("Param Files", data.ParamFiles, warningColor),
		m.renderStatBox("Outputs", data.Outputs, primaryColor),
	}

	// Join boxes horizontally
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Bytes:"),
		ValueStyle.Render(fmt.Sprintf("%d", data.Bytes))))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Flushes:"),
		ValueStyle.Render(fmt.Sprintf("%d", data.Flushes))))
	if data.Skipped > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Skipped:"),
			ErrorStyle.Render(fmt.Sprintf("%d", data.Skipped))))
	}

	if len(data.ByMnemonic) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("By Mnemonic"))
		b.WriteString("\n")

		mnemonics := make([]string, 0, len(data.ByMnemonic))
		for mn := range data.ByMnemonic {
			mnemonics = append(mnemonics, mn)
		}
		sort.Strings(mnemonics)

		for _, mn := range mnemonics {
			b.WriteString(fmt.Sprintf("%s %s\n",
				LabelStyle.Render(mn+":"),
				MnemonicStyle(mn).Render(fmt.Sprintf("%d", data.ByMnemonic[mn]))))
		}
	}

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
