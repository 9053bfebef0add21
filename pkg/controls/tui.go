package controls

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/work6189/PoPlayers/pkg/player"
)

const refreshInterval = 250 * time.Millisecond

var hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

const hint = "space play/pause · ←/→ seek · ↑/↓ volume · m mute · r rate · f fullscreen · q quit"

// RefreshMsg asks the model to read the player state again.
type RefreshMsg time.Time

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return RefreshMsg(t)
	})
}

// Model is a terminal remote for a player.
type Model struct {
	name    string
	actions *actions
	view    View
	state   player.State
}

func NewModel(name string, p Actions, logger zLogger.ZLogger) Model {
	return Model{
		name:    name,
		actions: newActions(p, logger),
		view:    View{Width: 80},
		state:   p.State(),
	}
}

func (m Model) Init() tea.Cmd {
	return refresh()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		return m, nil
	case RefreshMsg:
		m.state = m.actions.p.State()
		return m, refresh()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space":
			m.actions.togglePlay()
		case "left", "h":
			m.actions.seekBy(-seekStep)
		case "right", "l":
			m.actions.seekBy(seekStep)
		case "up", "k":
			m.actions.volumeBy(volumeStep)
		case "down", "j":
			m.actions.volumeBy(-volumeStep)
		case "m":
			m.actions.toggleMute()
		case "r":
			m.actions.nextRate()
		case "f":
			m.actions.toggleFullscreen()
		default:
			return m, nil
		}
		m.state = m.actions.p.State()
	}
	return m, nil
}

func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		statusStyle.Render(m.name),
		m.view.Render(m.state),
		hintStyle.Render(hint),
	)
}
