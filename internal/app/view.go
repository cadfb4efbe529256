package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/steno/player/internal/playback"
	"github.com/jwulff/steno/player/internal/transcript"
	"github.com/jwulff/steno/player/internal/ui"
)

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + divider(1) + divider(1) + error(1) + footer(1) + padding
	reserved := 7
	return max(5, m.height-reserved)
}

func (m Model) listPanelWidth() int {
	if m.width == 0 {
		return 30
	}
	return max(20, m.width*30/100)
}

func (m Model) captionPanelWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(30, m.width-m.listPanelWidth()-3)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if msg := m.errorText(); msg != "" {
		sections = append(sections, ui.ErrorStyle.Render("Error: ")+ui.ErrorTextStyle.Render(msg))
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

// errorText picks the most relevant error for the error bar.
func (m Model) errorText() string {
	switch {
	case m.errorMessage != "":
		return m.errorMessage
	case m.transcriptErr != "":
		return m.transcriptErr + " (r to retry)"
	case m.listErr != "":
		return "list transcripts: " + m.listErr + " (r to retry)"
	}
	return ""
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("STENO PLAYER")
	t := m.session.Transcript()
	if t == nil {
		return title
	}
	header := title + ui.DimStyle.Render(" | ") + t.Name
	if t.Comment != "" {
		header += "  " + ui.CommentStyle.Render(t.Comment)
	}
	return truncateToWidth(header, m.width)
}

func (m Model) renderStatusBar() string {
	pos := m.session.Position()

	var state string
	if pos.Playing {
		state = ui.PlayingStyle.Render("▶ PLAYING")
	} else {
		state = ui.PausedStyle.Render("❚❚ PAUSED")
	}

	dur := m.session.Duration()
	clock := ui.TimestampStyle.Render(fmt.Sprintf("%s / %s", transcript.FormatClock(pos.Time), transcript.FormatClock(dur)))
	barW := max(10, m.width-lipgloss.Width(state)-lipgloss.Width(clock)-4)

	return state + "  " + clock + "  " + renderProgress(pos.Time, dur, barW)
}

func renderProgress(t, duration float64, width int) string {
	filled := 0
	if duration > 0 {
		filled = int(t / duration * float64(width))
	}
	filled = min(max(filled, 0), width)
	return ui.ProgressFilledStyle.Render(strings.Repeat("━", filled)) +
		ui.ProgressEmptyStyle.Render(strings.Repeat("─", width-filled))
}

func (m Model) renderMainContent() string {
	listW := m.listPanelWidth()
	captionW := m.captionPanelWidth()
	contentH := m.contentHeight()

	listLines := strings.Split(m.renderListPanel(listW, contentH), "\n")
	captionLines := strings.Split(m.renderCaptionPanel(captionW, contentH), "\n")

	divider := ui.DividerStyle.Render("│")

	var rows []string
	for i := 0; i < contentH; i++ {
		l := strings.Repeat(" ", listW)
		if i < len(listLines) {
			l = listLines[i]
		}
		c := ""
		if i < len(captionLines) {
			c = captionLines[i]
		}
		rows = append(rows, l+divider+" "+c)
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderListPanel(width, height int) string {
	title := fmt.Sprintf("TRANSCRIPTS (%d)", len(m.items))
	var header string
	if m.focusedPanel == FocusList {
		header = ui.PanelTitleActiveStyle.Render(title)
	} else {
		header = ui.PanelTitleStyle.Render(title)
	}

	lines := []string{header}

	var current int64
	if t := m.session.Transcript(); t != nil {
		current = int64(t.ID)
	}

	switch {
	case m.listLoading:
		lines = append(lines, "  "+m.spinner.View()+ui.DimStyle.Render(" Loading..."))
	case m.listErr != "":
		lines = append(lines, ui.ErrorTextStyle.Render("  Could not load list"))
	case len(m.items) == 0:
		lines = append(lines, ui.DimStyle.Render("  No transcripts"))
	default:
		// Keep the selection visible.
		visible := height - 1
		start := 0
		if m.selected >= visible {
			start = m.selected - visible + 1
		}
		for i := start; i < len(m.items) && len(lines) < height; i++ {
			it := m.items[i]
			marker := "  "
			if int64(it.ID) == current {
				marker = ui.NowPlayingStyle.Render("♪ ")
			}
			var line string
			if i == m.selected && m.focusedPanel == FocusList {
				line = ui.SelectedStyle.Render("> ") + marker + ui.SelectedStyle.Render(it.Name)
			} else {
				line = "  " + marker + it.Name
			}
			lines = append(lines, truncateToWidth(line, width))
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = padRight(l, width)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCaptionPanel(width, height int) string {
	var lines []string

	switch {
	case m.loading:
		lines = append(lines, "", "  "+m.spinner.View()+ui.DimStyle.Render(" Loading transcript..."))
	case m.session.Transcript() == nil:
		lines = append(lines, "", ui.DimStyle.Render("  Pick a transcript to begin"))
		if len(m.items) > 0 {
			lines = append(lines, ui.DimStyle.Render("  j/k to move, Enter to open"))
		}
	default:
		lines = m.captionLines(m.session.Position(), width)
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// captionLines renders the current paragraph with the current word
// highlighted, under its speaker's name.
func (m Model) captionLines(pos playback.Position, width int) []string {
	p := pos.Paragraph
	if p == nil {
		if !pos.Playing && pos.Time == 0 {
			return []string{"", ui.DimStyle.Render("  Space to play")}
		}
		return []string{"", ui.DimStyle.Render("  …")}
	}

	lines := []string{"", ui.SpeakerStyle.Render(p.Speaker.Name) + ui.TimestampStyle.Render("  "+transcript.FormatClock(p.Time)), ""}

	textW := max(10, width-2)
	var line strings.Builder
	lineW := 0
	for i := range p.Words {
		w := &p.Words[i]
		ww := lipgloss.Width(w.Text)
		if lineW > 0 && lineW+1+ww > textW {
			lines = append(lines, line.String())
			line.Reset()
			lineW = 0
		}
		if lineW > 0 {
			line.WriteString(" ")
			lineW++
		}
		if w == pos.Word {
			line.WriteString(ui.CurrentWordStyle.Render(w.Text))
		} else {
			line.WriteString(ui.CaptionStyle.Render(w.Text))
		}
		lineW += ww
	}
	if lineW > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func (m Model) renderFooter() string {
	var parts []string

	if m.session.Transcript() != nil {
		if m.session.Position().Playing {
			parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Pause"))
		} else {
			parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Play"))
		}
		parts = append(parts, ui.FooterKeyStyle.Render("←→")+ui.FooterDescStyle.Render(fmt.Sprintf(" ±%gs", m.seekStep)))
		parts = append(parts, ui.FooterKeyStyle.Render("0")+ui.FooterDescStyle.Render(" Start"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("Tab")+ui.FooterDescStyle.Render(" Focus"))
	parts = append(parts, ui.FooterKeyStyle.Render("j/k")+ui.FooterDescStyle.Render(" Nav"))
	parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Open"))
	if m.listErr != "" || m.transcriptErr != "" {
		parts = append(parts, ui.FooterKeyStyle.Render("r")+ui.FooterDescStyle.Render(" Retry"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	// Simple truncation for non-styled strings
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}
