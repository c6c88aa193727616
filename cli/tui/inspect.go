package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/smelt/cli/reader"
)

// InspectModel is a Bubble Tea model for inspect views.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "inspect_action":
		content = m.renderInspectAction()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m InspectModel) renderInspectAction() string {
	data, ok := m.data.(*reader.ActionView)
	if !ok {
		return "Invalid data type for inspect_action"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Action Details"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Label:"),
		ValueStyle.Render(data.Label)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Mnemonic:"),
		MnemonicStyle(data.Mnemonic).Render(data.Mnemonic)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Key:"),
		ValueStyle.Render(data.Key)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Plan:"),
		ValueStyle.Render(fmt.Sprintf("%s #%d", data.PlanID, data.Seq))))

	if len(data.Args) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Arguments"))
		b.WriteString("\n")
		for _, arg := range data.Args {
			b.WriteString(fmt.Sprintf("  %s\n", ValueStyle.Render(arg)))
		}
	}

	if len(data.Env) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Environment"))
		b.WriteString("\n")
		for _, env := range data.Env {
			b.WriteString(fmt.Sprintf("  %s=%s\n",
				LabelStyle.Render(env.Name),
				ValueStyle.Render(env.Value)))
		}
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Inputs:"),
		ValueStyle.Render(fmt.Sprintf("%d", len(data.Inputs)))))
	for _, in := range data.Inputs {
		b.WriteString(fmt.Sprintf("  • %s\n", ValueStyle.Render(in)))
	}

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Outputs:"),
		ValueStyle.Render(fmt.Sprintf("%d", len(data.Outputs)))))
	for _, out := range data.Outputs {
		b.WriteString(fmt.Sprintf("  • %s\n", SuccessStyle.Render(out)))
	}

	if len(data.ParamFiles) > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Param Files:"),
			ValueStyle.Render(fmt.Sprintf("%d", len(data.ParamFiles)))))
		for _, pf := range data.ParamFiles {
			b.WriteString(fmt.Sprintf("  • %s\n", WarningStyle.Render(pf)))
		}
	}

	if data.Aspect != nil {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Aspect"))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Name:"),
			ValueStyle.Render(data.Aspect.Name)))
		for _, p := range data.Aspect.Params {
			b.WriteString(fmt.Sprintf("  • %s\n", ValueStyle.Render(p)))
		}
	}

	return BoxStyle.Render(b.String())
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
