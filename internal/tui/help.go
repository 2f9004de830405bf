package tui

import (
	"bytes"
	_ "embed"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"notefiler/internal/tui/theme"
)

//go:embed help.md
var helpMarkdown []byte

// HelpSection is one "## heading" of the help document
type HelpSection struct {
	Title   string
	Entries []HelpEntry
}

// HelpEntry is a "- `key`: description" list item
type HelpEntry struct {
	Key  string
	Desc string
}

// HelpDoc is the parsed help document
type HelpDoc struct {
	Title    string
	Sections []HelpSection
}

// ParseHelp reads a help document: the level 1 heading is the title, each
// level 2 heading starts a section and each list item becomes a key/desc
// pair split at the first ": ".
func ParseHelp(source []byte) HelpDoc {
	var doc HelpDoc
	var current *HelpSection

	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			title := plainText(node, source)
			if node.Level == 1 {
				doc.Title = title
			} else if node.Level == 2 {
				if current != nil {
					doc.Sections = append(doc.Sections, *current)
				}
				current = &HelpSection{Title: title}
			}
			return ast.WalkSkipChildren, nil

		case *ast.ListItem:
			if current == nil {
				current = &HelpSection{}
			}
			line := plainText(node, source)
			key, desc, found := strings.Cut(line, ": ")
			if !found {
				key, desc = "", line
			}
			current.Entries = append(current.Entries, HelpEntry{
				Key:  strings.TrimSpace(key),
				Desc: strings.TrimSpace(desc),
			})
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	if current != nil {
		doc.Sections = append(doc.Sections, *current)
	}
	return doc
}

// plainText concatenates the text under n, including code spans.
func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func renderHelp(doc HelpDoc, width, height int) string {
	line := func(key, desc string) string {
		return "  " + theme.HelpKey.Render(key) + theme.HelpDesc.Render(desc)
	}

	var b strings.Builder
	b.WriteString(theme.HelpSection.Render(doc.Title) + "\n\n")

	for i, section := range doc.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(theme.HelpSection.Render(section.Title) + "\n")
		for _, e := range section.Entries {
			b.WriteString(line(e.Key, e.Desc) + "\n")
		}
	}

	b.WriteString("\n" + theme.HelpHint.Render("Press any key to close"))

	box := theme.ModalBox.Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
