package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"notefiler/internal/scans"
	"notefiler/internal/tui/theme"
)

const pickerMaxRows = 12

// PickerModel lets the user jump to a scan by fuzzy-matching its ID
type PickerModel struct {
	scans     []scans.Scan
	filtered  []int // indices into scans
	selected  int
	textInput textinput.Model
	width     int
}

// PickerResultMsg is sent when a scan is chosen or the picker is dismissed
type PickerResultMsg struct {
	Index     int
	Cancelled bool
}

// NewPickerModel creates a picker over list
func NewPickerModel(list []scans.Scan, width int) PickerModel {
	ti := textinput.New()
	ti.Placeholder = "Search scans..."
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	m := PickerModel{
		scans:     list,
		textInput: ti,
		width:     width,
	}
	m.applyFilter()
	return m
}

func (m *PickerModel) applyFilter() {
	m.filtered = scans.FuzzyFind(m.scans, m.textInput.Value())
	if m.selected >= len(m.filtered) {
		m.selected = max(0, len(m.filtered)-1)
	}
}

// Update handles picker keys
func (m PickerModel) Update(msg tea.KeyMsg) (PickerModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return PickerResultMsg{Cancelled: true} }

	case "enter":
		if len(m.filtered) == 0 {
			return m, nil
		}
		idx := m.filtered[m.selected]
		return m, func() tea.Msg { return PickerResultMsg{Index: idx} }

	case "down", "ctrl+n":
		if m.selected < len(m.filtered)-1 {
			m.selected++
		}
		return m, nil

	case "up", "ctrl+p":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.applyFilter()
	return m, cmd
}

// View renders the picker
func (m PickerModel) View() string {
	var s strings.Builder

	s.WriteString(theme.ModalTitle.Render("Jump to scan"))
	s.WriteString("\n\n")
	s.WriteString(m.textInput.View())
	s.WriteString("\n\n")

	if len(m.filtered) == 0 {
		s.WriteString(theme.Muted.Render("No matching scans"))
		s.WriteString("\n")
	}

	// keep the selection visible
	start := 0
	if m.selected >= pickerMaxRows {
		start = m.selected - pickerMaxRows + 1
	}
	end := min(len(m.filtered), start+pickerMaxRows)

	for i := start; i < end; i++ {
		id := m.scans[m.filtered[i]].ID
		if i == m.selected {
			s.WriteString(theme.Cursor.Render("> " + id))
		} else {
			s.WriteString("  " + id)
		}
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(theme.HelpHint.Render("type to filter • ↑/↓: move • enter: open • esc: cancel"))

	return theme.ModalBox.Width(m.width).Render(s.String())
}
