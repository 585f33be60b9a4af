package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// formField is one labelled text input of a form.
type formField struct {
	label string
	input textinput.Model
}

func newFormField(label, placeholder string, limit int) formField {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	return formField{label: label, input: in}
}

// fieldSet moves focus through a list of inputs.
type fieldSet struct {
	fields  []formField
	focused int
}

func newFieldSet(fields ...formField) fieldSet {
	fs := fieldSet{fields: fields}
	if len(fs.fields) > 0 {
		fs.fields[0].input.Focus()
	}
	return fs
}

func (fs *fieldSet) next() {
	fs.fields[fs.focused].input.Blur()
	fs.focused = (fs.focused + 1) % len(fs.fields)
	fs.fields[fs.focused].input.Focus()
}

func (fs *fieldSet) prev() {
	fs.fields[fs.focused].input.Blur()
	fs.focused--
	if fs.focused < 0 {
		fs.focused = len(fs.fields) - 1
	}
	fs.fields[fs.focused].input.Focus()
}

// focus moves focus to field i.
func (fs *fieldSet) focus(i int) {
	if i < 0 || i >= len(fs.fields) {
		return
	}
	fs.fields[fs.focused].input.Blur()
	fs.focused = i
	fs.fields[i].input.Focus()
}

func (fs *fieldSet) update(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	fs.fields[fs.focused].input, cmd = fs.fields[fs.focused].input.Update(msg)
	return cmd
}

func (fs *fieldSet) value(i int) string {
	return strings.TrimSpace(fs.fields[i].input.Value())
}

func (fs *fieldSet) set(i int, v string) {
	fs.fields[i].input.SetValue(v)
}

func (fs *fieldSet) views() []string {
	out := make([]string, len(fs.fields))
	for i, f := range fs.fields {
		out[i] = renderFormField(f.label, f.input, i == fs.focused)
	}
	return out
}

func renderFormField(label string, input textinput.Model, focused bool) string {
	style := BorderStyle
	if focused {
		style = ActiveBorderStyle
	}

	field := lipgloss.JoinVertical(
		lipgloss.Left,
		LabelStyle.Render(label),
		input.View(),
	)

	return style.Render(field)
}

func renderField(label, value string) string {
	if value == "" {
		value = "—"
	}
	return LabelStyle.Render(label+":") + " " + NormalRowStyle.Render(value)
}

// renderCheckbox renders a consent toggle.
func renderCheckbox(label string, checked, focused bool) string {
	box := "[ ]"
	if checked {
		box = "[x]"
	}
	style := NormalRowStyle
	if focused {
		style = SelectedRowStyle
	}
	return style.Render(box + " " + label)
}

// renderDivider is the muted rule between detail sections.
func renderDivider(width int) string {
	return lipgloss.NewStyle().
		Foreground(ColorMuted).
		Render(strings.Repeat("─", max(width-8, 4)))
}

// renderShortcuts right-aligns the key hints above a detail panel.
func renderShortcuts(hints string, width int) string {
	return lipgloss.NewStyle().
		Width(width - 4).
		Align(lipgloss.Right).
		Render(HelpDescStyle.Render(hints))
}
