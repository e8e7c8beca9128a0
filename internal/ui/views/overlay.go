package views

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/plan/internal/ui/keys"
	"github.com/tgienger/plan/internal/ui/styles"
)

// Overlay is a screen drawn over the tabs that takes every key while open
type Overlay interface {
	SetSize(width, height int)
	Update(msg tea.KeyMsg) tea.Cmd
	View() string
}

// popup centers boxed content in the content area
func popup(s *styles.Styles, content string, width, height int) string {
	centered := lipgloss.Place(styles.ContentWidth(width), height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, width, height)
}

// Confirm asks yes or no before sending a destructive request
type Confirm struct {
	styles *styles.Styles
	width  int
	height int

	title   string
	message string
	request any
}

func NewConfirm(c ConfirmDelete) *Confirm {
	return &Confirm{
		styles:  styles.NewStyles(),
		title:   c.Title,
		message: c.Message,
		request: c.Request,
	}
}

func (c *Confirm) SetSize(width, height int) {
	c.width, c.height = width, height
}

func (c *Confirm) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		return send(c.request)
	case "n", "N", "esc", "q":
		return send(Closed{})
	}
	return nil
}

func (c *Confirm) View() string {
	s := c.styles
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(c.title),
		"",
		s.TitleMuted.Render(c.message),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return popup(s, content, c.width, c.height)
}

// Help lists the shortcuts of the active tab and the global ones
type Help struct {
	styles *styles.Styles
	width  int
	height int
	items  [][2]string
}

func NewHelp(items [][2]string) *Help {
	km := keys.DefaultKeyMap()
	global := []key.Binding{km.Tab, km.Search, km.ShowCompleted, km.Workspaces, km.Links, km.Help, km.Quit}
	items = append(items, [2]string{"", ""})
	for _, b := range global {
		items = append(items, [2]string{b.Help().Key, b.Help().Desc})
	}
	return &Help{styles: styles.NewStyles(), items: items}
}

func (h *Help) SetSize(width, height int) {
	h.width, h.height = width, height
}

// Update closes the popup on any key
func (h *Help) Update(tea.KeyMsg) tea.Cmd {
	return send(Closed{})
}

func (h *Help) View() string {
	s := h.styles
	lines := []string{s.Title.Render("Keyboard Shortcuts"), ""}
	for _, it := range h.items {
		if it[0] == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, s.HelpKey.Width(8).Render(it[0])+s.HelpDesc.Render(it[1]))
	}
	lines = append(lines, "", s.TitleMuted.Render("Press any key to close"))
	return popup(s, lipgloss.JoinVertical(lipgloss.Left, lines...), h.width, h.height)
}
