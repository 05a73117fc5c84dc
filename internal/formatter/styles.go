package formatter

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#1DB954", "#04B575", "#FFA500")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	header lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
}

func NewPalette(h, s, w string) *Palette {
	return &Palette{
		header: NewBold(h),
		ok:     NewStyle(s),
		warn:   NewStyle(w),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

// OK renders s in the success color.
func OK(s string) string { return styles.ok.Render(s) }

// Warn renders s in the warning color.
func Warn(s string) string { return styles.warn.Render(s) }
