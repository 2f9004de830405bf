package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"notefiler/internal/filing"
	"notefiler/internal/logs"
	"notefiler/internal/scans"
	"notefiler/internal/session"
	"notefiler/internal/tui/theme"
)

type mode int

const (
	modeBrowse mode = iota
	modeConfirmDelete
	modePicker
	modeHelp
)

const inputLabel = "Enter date with format YYYY.MM.DD here ..."

// AppModel is the root model: one scan at a time, a date input, and modal
// overlays for delete confirmation, the scan picker and help.
type AppModel struct {
	sess    *session.Session
	input   textinput.Model
	mode    mode
	confirm DeleteDialog
	picker  PickerModel
	help    HelpDoc

	payload    *scans.PayloadInfo
	payloadErr error
	preview    string

	status    string
	statusErr bool

	width  int
	height int
	ready  bool
}

// NewAppModel creates the root application model
func NewAppModel(sess *session.Session) AppModel {
	ti := textinput.New()
	ti.Placeholder = "Enter date here"
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 24
	ti.SetValue(sess.Input())

	m := AppModel{
		sess:  sess,
		input: ti,
		help:  ParseHelp(helpMarkdown),
	}
	m.refresh()
	return m
}

func (m AppModel) Init() tea.Cmd {
	return textinput.Blink
}

// refresh recomputes everything derived from the session and the disk.
func (m *AppModel) refresh() {
	m.payload = nil
	m.payloadErr = nil
	m.preview = ""

	if scan, ok := m.sess.Current(); ok {
		cfg := m.sess.Config()
		info, err := scan.Payload(cfg.Paths, cfg.PayloadName)
		if err != nil {
			m.payloadErr = err
		} else {
			m.payload = &info
		}
	}

	if m.sess.Date() != nil {
		if p, err := m.sess.Preview(); err == nil {
			m.preview = p
		}
	}
}

func (m *AppModel) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case DeleteDecisionMsg:
		m.mode = modeBrowse
		m.confirm = DeleteDialog{}
		if !msg.Confirmed {
			return m, nil
		}
		// the cursor may have moved if the inbox was reloaded meanwhile
		if scan, ok := m.sess.Current(); !ok || scan.ID != msg.ScanID {
			m.setStatus("Scan "+msg.ScanID+" is no longer selected, not deleted", true)
			return m, nil
		}
		m.deleteCurrent()
		return m, nil

	case PickerResultMsg:
		m.mode = modeBrowse
		if !msg.Cancelled {
			m.sess.Select(msg.Index)
			m.status = ""
			m.refresh()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.mode {
		case modeHelp:
			m.mode = modeBrowse
			return m, nil
		case modeConfirmDelete:
			return m, m.confirm.Update(msg)
		case modePicker:
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}

		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m AppModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.input.Value() != "" {
			m.input.SetValue("")
			m.sess.SetInput("")
			m.refresh()
			return m, nil
		}
		return m, tea.Quit

	case "pgup", "ctrl+p", "up":
		m.sess.Previous()
		m.status = ""
		m.refresh()
		return m, nil

	case "pgdown", "ctrl+n", "down":
		m.sess.Next()
		m.status = ""
		m.refresh()
		return m, nil

	case "enter":
		m.postCurrent()
		return m, nil

	case "ctrl+d":
		scan, ok := m.sess.Current()
		if !ok {
			return m, nil
		}
		m.confirm = DeleteDialog{
			ScanID:  scan.ID,
			Dir:     scan.Dir(m.sess.Config().Paths),
			Payload: m.payload,
			Width:   min(60, max(30, m.width-4)),
		}
		m.mode = modeConfirmDelete
		return m, nil

	case "ctrl+f":
		if m.sess.Len() == 0 {
			return m, nil
		}
		m.picker = NewPickerModel(m.sess.Scans(), min(60, max(30, m.width-4)))
		m.mode = modePicker
		return m, textinput.Blink

	case "ctrl+r":
		if err := m.sess.Reload(); err != nil {
			logs.Logger.Printf("reload: %v", err)
			m.setStatus("Error reloading scans: "+err.Error(), true)
		} else {
			m.setStatus(fmt.Sprintf("Reloaded %d scan(s)", m.sess.Len()), false)
		}
		m.refresh()
		return m, nil

	case "?":
		if m.input.Value() == "" {
			m.mode = modeHelp
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.sess.Input() {
		m.sess.SetInput(m.input.Value())
		m.refresh()
	}
	return m, cmd
}

func (m *AppModel) postCurrent() {
	if m.sess.Date() == nil {
		if m.input.Value() != "" {
			m.setStatus("Invalid date", true)
		}
		return
	}
	scan, ok := m.sess.Current()
	if !ok {
		return
	}

	note, err := m.sess.PostCurrent()
	var re *session.ReloadError
	if err != nil && !errors.As(err, &re) {
		m.setStatus(describeError(err), true)
		m.refresh()
		return
	}

	rel, relErr := filepath.Rel(m.sess.Config().NotesPath, note.Dir)
	if relErr != nil {
		rel = note.Dir
	}
	m.setStatus(doneStatus(fmt.Sprintf("Filed %s as %s", scan.ID, rel), err))
	m.refresh()
}

func (m *AppModel) deleteCurrent() {
	scan, ok := m.sess.Current()
	if !ok {
		return
	}
	err := m.sess.DeleteCurrent()
	var re *session.ReloadError
	if err != nil && !errors.As(err, &re) {
		m.setStatus(describeError(err), true)
		m.refresh()
		return
	}
	m.setStatus(doneStatus("Deleted "+scan.ID, err))
	m.refresh()
}

// doneStatus reports a completed change, with the reload error appended
// when the inbox could not be re-read afterwards.
func doneStatus(done string, reloadErr error) (string, bool) {
	if reloadErr == nil {
		return done, false
	}
	return done + "; " + reloadErr.Error(), true
}

// describeError keeps the short public message and appends the cause.
func describeError(err error) string {
	var pe *filing.PostError
	if errors.As(err, &pe) {
		return fmt.Sprintf("%s (%s: %v)", pe.Error(), pe.Step, pe.Err)
	}
	var de *scans.DeleteError
	if errors.As(err, &de) {
		return fmt.Sprintf("%s (%v)", de.Error(), de.Err)
	}
	return err.Error()
}

func (m AppModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.mode {
	case modeHelp:
		return renderHelp(m.help, m.width, m.height)
	case modeConfirmDelete:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.View())
	case modePicker:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.picker.View())
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		"",
		m.renderScan(),
		"",
		m.renderDate(),
		"",
		m.renderStatus(),
	)

	statusBar := theme.StatusBar.Width(m.width).Render(
		theme.HelpHint.Render("pgup/pgdn: prev/next • enter: file • ctrl+d: delete • ctrl+f: jump • ?: help • esc: quit"),
	)

	used := lipgloss.Height(content) + lipgloss.Height(statusBar)
	if gap := m.height - used; gap > 0 {
		content += strings.Repeat("\n", gap)
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, statusBar)
}

func (m AppModel) renderHeader() string {
	title := theme.Title.Render("notefiler")
	pos := theme.Muted.Render("inbox empty")
	if n := m.sess.Len(); n > 0 {
		pos = theme.Muted.Render(fmt.Sprintf("scan %d/%d", m.sess.Index()+1, n))
	}
	return title + "  " + pos
}

func field(label, value string) string {
	return theme.Label.Render(label) + value
}

func (m AppModel) renderScan() string {
	scan, ok := m.sess.Current()
	if !ok {
		return theme.Panel.Render(theme.Muted.Render("No scans in " + m.sess.Config().ScansPath))
	}

	lines := []string{field("ID:", theme.Value.Render(scan.ID))}

	switch {
	case m.payloadErr != nil:
		lines = append(lines, field("Image:", theme.Warn.Render("missing "+m.sess.Config().PayloadName)))
	case m.payload != nil:
		lines = append(lines, field("Image:", m.payload.Path))
		detail := formatSize(m.payload.Size)
		if m.payload.Width > 0 {
			detail += fmt.Sprintf(" • %dx%d %s", m.payload.Width, m.payload.Height, m.payload.Format)
		}
		detail += " • " + m.payload.ModTime.Format("2006-01-02 15:04")
		lines = append(lines, field("", theme.Muted.Render(detail)))
	}

	return theme.Panel.Render(strings.Join(lines, "\n"))
}

func (m AppModel) renderDate() string {
	lines := []string{
		theme.Muted.Render(inputLabel),
		m.input.View(),
		"",
	}

	d := m.sess.Date()
	if d == nil {
		lines = append(lines, theme.Error.Render("Invalid date"))
		return strings.Join(lines, "\n")
	}

	month, day := "-", "-"
	if d.HasMonth() {
		month = fmt.Sprintf("%02d", d.Month)
	}
	if d.HasDay() {
		day = fmt.Sprintf("%02d", d.Day)
	}

	lines = append(lines,
		field("Year:", fmt.Sprintf("%d", d.Year)),
		field("Month:", month),
		field("Day:", day),
		field("Path:", d.Path()),
	)
	if m.preview != "" {
		lines = append(lines, field("Note:", theme.Ok.Render(m.preview)+theme.Muted.Render("  [enter] file")))
	}
	return strings.Join(lines, "\n")
}

func (m AppModel) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return theme.Error.Render(m.status)
	}
	return theme.Ok.Render(m.status)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
