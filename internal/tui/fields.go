package tui

import (
	"strings"

	"oneflow-cli/internal/form"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type fieldKind int

const (
	fieldInput fieldKind = iota
	fieldArea
	fieldChoice
)

type fieldDef struct {
	key         string // matches the validation error key
	label       string
	kind        fieldKind
	options     []string // fieldChoice only
	placeholder string
}

// fieldsModel is the focus-cycling form body shared by the project and task
// editors. Widgets are positional; defs[i] describes widget i.
type fieldsModel struct {
	defs    []fieldDef
	inputs  map[int]textinput.Model
	areas   map[int]textarea.Model
	choices map[int]string
	focus   int
}

func newFieldsModel(defs []fieldDef, values map[string]string, width int) fieldsModel {
	m := fieldsModel{
		defs:    defs,
		inputs:  map[int]textinput.Model{},
		areas:   map[int]textarea.Model{},
		choices: map[int]string{},
	}
	bodyW := modalBodyWidth(width)
	for i, def := range defs {
		switch def.kind {
		case fieldInput:
			ti := textinput.New()
			ti.SetValue(values[def.key])
			ti.Placeholder = def.placeholder
			ti.CharLimit = 200
			ti.Width = bodyW - 2
			m.inputs[i] = ti
		case fieldArea:
			ta := textarea.New()
			ta.SetValue(values[def.key])
			ta.Placeholder = def.placeholder
			ta.SetWidth(bodyW)
			ta.SetHeight(4)
			m.areas[i] = ta
		case fieldChoice:
			m.choices[i] = values[def.key]
		}
	}
	m.setFocus(0)
	return m
}

func (m *fieldsModel) setFocus(i int) {
	n := len(m.defs)
	m.focus = ((i % n) + n) % n
	for j := range m.defs {
		if ti, ok := m.inputs[j]; ok {
			if j == m.focus {
				ti.Focus()
			} else {
				ti.Blur()
			}
			m.inputs[j] = ti
		}
		if ta, ok := m.areas[j]; ok {
			if j == m.focus {
				ta.Focus()
			} else {
				ta.Blur()
			}
			m.areas[j] = ta
		}
	}
}

func (m *fieldsModel) cycleChoice(i int, delta int) {
	opts := m.defs[i].options
	if len(opts) == 0 {
		return
	}
	cur := -1
	for j, o := range opts {
		if o == m.choices[i] {
			cur = j
			break
		}
	}
	next := ((cur+delta)%len(opts) + len(opts)) % len(opts)
	m.choices[i] = opts[next]
}

func (m fieldsModel) Update(msg tea.KeyMsg) (fieldsModel, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.setFocus(m.focus + 1)
		return m, nil
	case "shift+tab":
		m.setFocus(m.focus - 1)
		return m, nil
	}

	i := m.focus
	switch m.defs[i].kind {
	case fieldChoice:
		switch msg.String() {
		case "left":
			m.cycleChoice(i, -1)
		case "right", " ":
			m.cycleChoice(i, 1)
		}
		return m, nil
	case fieldArea:
		ta := m.areas[i]
		var cmd tea.Cmd
		ta, cmd = ta.Update(msg)
		m.areas[i] = ta
		return m, cmd
	default:
		ti := m.inputs[i]
		var cmd tea.Cmd
		ti, cmd = ti.Update(msg)
		m.inputs[i] = ti
		return m, cmd
	}
}

// Values snapshots the current field contents keyed by validation key.
func (m fieldsModel) Values() map[string]string {
	out := make(map[string]string, len(m.defs))
	for i, def := range m.defs {
		switch def.kind {
		case fieldInput:
			out[def.key] = m.inputs[i].Value()
		case fieldArea:
			out[def.key] = m.areas[i].Value()
		case fieldChoice:
			out[def.key] = m.choices[i]
		}
	}
	return out
}

func (m fieldsModel) View(errs form.Errors, width int) string {
	bodyW := modalBodyWidth(width)
	labelBase := lipgloss.NewStyle().Foreground(colorSurfaceFg)
	labelFocus := labelBase.Bold(true).Foreground(colorAccent)

	var b strings.Builder
	for i, def := range m.defs {
		label := labelBase.Render(def.label)
		if i == m.focus {
			label = labelFocus.Render(def.label)
		}
		b.WriteString(label)
		b.WriteString("\n")

		switch def.kind {
		case fieldInput:
			b.WriteString(m.inputs[i].View())
		case fieldArea:
			b.WriteString(m.areas[i].View())
		case fieldChoice:
			v := m.choices[i]
			if v == "" {
				v = "(none)"
			}
			line := "  " + v
			if i == m.focus {
				line = "◂ " + v + " ▸"
			}
			b.WriteString(line)
		}
		b.WriteString("\n")

		if msg, ok := errs[def.key]; ok {
			b.WriteString(styleError().Width(bodyW).Render(msg))
			b.WriteString("\n")
		}
		if i < len(m.defs)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
