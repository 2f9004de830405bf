package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"notefiler/internal/scans"
	"notefiler/internal/tui/theme"
)

// DeleteDialog asks before a scan directory is removed. Only an explicit
// y confirms; enter is not accepted so a stray keypress after filing
// cannot delete the next scan.
type DeleteDialog struct {
	ScanID  string
	Dir     string
	Payload *scans.PayloadInfo // nil when the scan has no readable payload
	Width   int
}

// DeleteDecisionMsg carries the answer for one scan
type DeleteDecisionMsg struct {
	ScanID    string
	Confirmed bool
}

func (d DeleteDialog) decide(ok bool) tea.Cmd {
	id := d.ScanID
	return func() tea.Msg { return DeleteDecisionMsg{ScanID: id, Confirmed: ok} }
}

// Update maps a key to a decision, or nil while undecided
func (d DeleteDialog) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		return d.decide(true)
	case "n", "N", "esc", "q":
		return d.decide(false)
	}
	return nil
}

func (d DeleteDialog) View() string {
	lines := []string{
		theme.ModalTitle.Render(fmt.Sprintf("Delete scan %s?", d.ScanID)),
		"",
		theme.Muted.Render("Removes " + d.Dir + " and everything in it."),
	}
	if d.Payload == nil {
		lines = append(lines, theme.Warn.Render("The scan has no payload image."))
	} else {
		lines = append(lines, theme.Muted.Render("Image: "+formatSize(d.Payload.Size)))
	}

	lines = append(lines, "",
		theme.Error.Render("[y]")+" Delete  "+theme.Ok.Render("[n/esc]")+" Keep",
	)
	return theme.ModalBox.Width(d.Width).Render(strings.Join(lines, "\n"))
}
