package formatter

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// TimestampLayout is used for every absolute time the CLI prints.
const TimestampLayout = "2006-01-02 15:04:05Z07:00"

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// Timestamp renders t in UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Tags renders tags as purple #labels, or a dim placeholder.
func Tags(tags []string) string {
	if len(tags) == 0 {
		return Dim("--")
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = StylePurple.Render("#" + t)
	}
	return strings.Join(out, " ")
}

// Priority renders an optional priority.
func Priority(p *int) string {
	if p == nil {
		return Dim("--")
	}
	return StyleFg.Render("P" + strconv.Itoa(*p))
}

// Optional renders an optional string or a dim placeholder.
func Optional(s *string) string {
	if s == nil || *s == "" {
		return Dim("--")
	}
	return StyleFg.Render(*s)
}
