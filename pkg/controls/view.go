package controls

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/work6189/PoPlayers/pkg/player"
	"github.com/work6189/PoPlayers/pkg/timefmt"
)

var (
	filledBlock = "▓"
	emptyBlock  = "░"

	statusStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// View renders a player state as a single terminal line.
type View struct {
	Width int
}

// Render renders: ▶  1:23  ▓▓▓░░░  4:56  🔊 100%  1x
func (v View) Render(state player.State) string {
	status := "⏸"
	if state.IsPlaying {
		status = "▶"
	}
	pos := timefmt.Format(state.CurrentTime)
	dur := timefmt.Format(state.Duration)
	tail := "  " + renderVolume(state.Volume, state.IsMuted) + "  " + timeStyle.Render(rateLabel(state.PlaybackRate))
	if state.IsFullscreen {
		tail += "  " + activeStyle.Render("⛶")
	}

	fixed := lipgloss.Width(status) + 2 + lipgloss.Width(pos) + 2 + 2 + lipgloss.Width(dur) + lipgloss.Width(tail)
	barWidth := v.Width - fixed
	if barWidth < 3 {
		return statusStyle.Render(status) + "  " + timeStyle.Render(timefmt.Pair(state.CurrentTime, state.Duration)) + tail
	}

	var ratio float64
	if state.Duration > 0 {
		ratio = state.CurrentTime / state.Duration
	}
	filled := max(0, min(int(float64(barWidth)*ratio), barWidth))
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, barWidth-filled)

	return statusStyle.Render(status) + "  " +
		timeStyle.Render(pos) + "  " +
		barStyle.Render(bar) + "  " +
		timeStyle.Render(dur) + tail
}

func renderVolume(volume float64, muted bool) string {
	icon := "🔊"
	style := timeStyle
	if muted || volume == 0 {
		icon = "🔇"
		style = mutedStyle
	}
	return style.Render(fmt.Sprintf("%s %3d%%", icon, int(volume*100+0.5)))
}
