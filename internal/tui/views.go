package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/playback"
	"github.com/GerlachSG/Cruciflix/internal/tui/styles"
)

// View renders the active screen
func (m Model) View() string {
	if !m.Ready {
		return "Carregando..."
	}

	var body string
	switch m.State {
	case StateLogin:
		body = m.center(m.login.View())
	case StateProfiles:
		body = m.renderProfiles()
	case StateBrowsing:
		body = m.renderBrowse()
	case StateDetail:
		body = m.renderDetail()
	case StatePlayer:
		body = m.renderPlayer()
	case StateHelp:
		body = m.center(styles.ModalStyle.Render(m.help.FullHelpView(m.keys.FullHelp())))
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderFooter())
}

func (m Model) center(s string) string {
	return lipgloss.Place(m.Width, max(m.Height-1, 1), lipgloss.Center, lipgloss.Center, s)
}

func (m Model) renderProfiles() string {
	if m.pin.IsVisible() {
		return m.center(m.pin.View())
	}
	lines := []string{styles.LogoStyle.Render("Quem está assistindo?"), ""}
	if len(m.profiles) == 0 {
		lines = append(lines, styles.DimStyle.Render("Carregando perfis..."))
	}
	for i, p := range m.profiles {
		label := p.Name
		if p.IsKids {
			label += " " + styles.DimBadgeStyle.Render("kids")
		}
		lines = append(lines, renderRow(label, i == m.profileCursor))
	}
	return m.center(styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func (m Model) renderBrowse() string {
	height := max(m.Height-ChromeHeight, 4)
	width := max(m.Width-SidebarWidth, 20)

	var header string
	switch m.mode {
	case ModeContinue:
		header = "Continuar assistindo"
	case ModeWatchlist:
		header = "Minha lista"
	default:
		header = "Catálogo"
		if tags := m.filter.SelectedTags(); len(tags) > 0 {
			header += styles.DimStyle.Render("  tags: " + strings.Join(tags, ", "))
		}
		if q := m.filter.Query(); q != "" {
			header += styles.DimStyle.Render(fmt.Sprintf("  busca: %q", q))
		}
	}
	if p := m.svc.Session.Profile(); p != nil {
		header = styles.AccentStyle.Render(p.Name) + "  " + header
	}

	items := m.listed()
	rows := []string{styles.TitleStyle.Render(header), ""}
	if len(items) == 0 {
		msg := "Nenhum título encontrado"
		if m.Loading {
			msg = "Carregando..."
		}
		rows = append(rows, styles.DimStyle.Render(msg))
	}

	visibleRows := max(height-4, 1)
	start := max(0, m.cursor-visibleRows+1)
	for i := start; i < len(items) && i < start+visibleRows; i++ {
		rows = append(rows, m.renderContentRow(items[i], i == m.cursor && m.focus == PaneContent, width-4))
	}

	border := styles.InactiveBorder
	if m.focus == PaneContent {
		border = styles.ActiveBorder
	}
	frameW, frameH := border.GetFrameSize()
	list := border.Width(width - frameW).Height(height - frameH).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))

	return lipgloss.JoinHorizontal(lipgloss.Top, m.tags.View(), list)
}

func (m Model) renderContentRow(c domain.Content, selected bool, width int) string {
	kind := "Filme"
	if c.GetContentType() == domain.ContentSeries {
		kind = "Série"
	}
	mark := " "
	if m.inWatchlist(c.GetID()) {
		mark = "+"
	}
	label := fmt.Sprintf("%s %-5s %s", mark, kind, styles.Truncate(c.GetTitle(), max(width-10, 5)))
	return renderRow(label, selected)
}

func renderRow(label string, selected bool) string {
	if selected {
		return styles.SelectedItemStyle.Render(label)
	}
	return styles.NormalItemStyle.Render(label)
}

func (m Model) renderDetail() string {
	c := m.selected
	if c == nil {
		return ""
	}
	width := max(m.Width-4, 20)

	lines := []string{styles.TitleStyle.Render(c.GetTitle())}

	var meta []string
	switch v := c.(type) {
	case *domain.Movie:
		meta = append(meta, fmt.Sprint(v.Year), v.Rating, formatDuration(v.Duration))
	case *domain.Series:
		meta = append(meta, fmt.Sprint(v.Year), v.Rating, fmt.Sprintf("%d temporadas", v.TotalSeasons))
	}
	lines = append(lines, styles.SubtitleStyle.Render(strings.Join(meta, " · ")))

	if tags := c.GetTags(); len(tags) > 0 {
		badges := make([]string, 0, len(tags))
		for _, t := range tags {
			badges = append(badges, styles.RenderTag(t, ""))
		}
		lines = append(lines, strings.Join(badges, " "))
	}
	if m.inWatchlist(c.GetID()) {
		lines = append(lines, styles.SuccessStyle.Render("✓ Na minha lista"))
	}
	lines = append(lines, "", wordWrap(c.GetDescription(), width), "")

	if resume := m.resumeFor(c.GetID()); resume != nil && resume.Duration > 0 {
		lines = append(lines, styles.DimStyle.Render("Progresso ")+
			styles.RenderProgressBar(resume.WatchTime/resume.Duration, 30), "")
	}

	if c.GetContentType() == domain.ContentSeries {
		if len(m.episodes) == 0 {
			lines = append(lines, styles.DimStyle.Render("Sem episódios"))
		}
		for i, ep := range m.episodes {
			label := fmt.Sprintf("%s  %s  %s", ep.EpisodeCode(), styles.Truncate(ep.Title, 40), formatDuration(ep.Duration))
			lines = append(lines, renderRow(label, i == m.episodeCursor))
		}
	} else {
		lines = append(lines, styles.AccentStyle.Render("enter para assistir"))
	}

	return styles.ActiveBorder.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) resumeFor(contentID string) *domain.ProgressRecord {
	for i := range m.resume {
		if m.resume[i].Progress.ContentID == contentID {
			return &m.resume[i].Progress
		}
	}
	return nil
}

func (m Model) renderPlayer() string {
	lines := []string{
		styles.TitleStyle.Render(m.nowPlaying.Title),
		styles.SubtitleStyle.Render(playStateLabel(m.playState)),
		"",
	}

	if m.playback != nil {
		current, duration := m.playback.Position()
		fraction := 0.0
		if duration > 0 {
			fraction = current / duration
		}
		lines = append(lines,
			styles.RenderProgressBar(fraction, 40),
			styles.DimStyle.Render(formatClock(current)+" / "+formatClock(duration)),
		)
	}
	if m.playErr != nil {
		lines = append(lines, "", styles.ErrorStyle.Render(m.playErr.Error()))
	}
	lines = append(lines, "", m.help.ShortHelpView(m.playerKeys.ShortHelp()))

	return m.center(styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func playStateLabel(st playback.State) string {
	switch st {
	case playback.StateUninitialized:
		return "Abrindo player..."
	case playback.StateLoading:
		return "Carregando vídeo..."
	case playback.StateReady:
		return "Pronto"
	case playback.StatePlaying:
		return "▶ Reproduzindo"
	case playback.StatePaused:
		return "⏸ Pausado"
	case playback.StateEnded:
		return "Fim"
	default:
		return "Erro na reprodução"
	}
}

func (m Model) renderFooter() string {
	if m.search.IsVisible() {
		return m.search.InlineView()
	}
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			return styles.ErrorStyle.Render(m.StatusMsg)
		}
		return styles.SuccessStyle.Render(m.StatusMsg)
	}
	switch m.State {
	case StateBrowsing:
		return m.help.ShortHelpView(m.keys.ShortHelp())
	case StateDetail:
		return m.help.ShortHelpView([]key.Binding{m.keys.Enter, m.keys.Watchlist, m.keys.Back})
	}
	return ""
}

// formatDuration renders seconds as "1h 32m" or "45m"
func formatDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	h, mins := seconds/3600, (seconds%3600)/60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%dm", max(mins, 1))
}

// formatClock renders seconds as h:mm:ss or m:ss
func formatClock(seconds float64) string {
	total := int(seconds)
	h, mins, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mins, s)
	}
	return fmt.Sprintf("%d:%02d", mins, s)
}

// wordWrap wraps text at word boundaries
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var (
		out     strings.Builder
		lineLen int
	)
	for i, word := range strings.Fields(text) {
		n := len([]rune(word))
		if i > 0 {
			if lineLen+1+n > width {
				out.WriteByte('\n')
				lineLen = 0
			} else {
				out.WriteByte(' ')
				lineLen++
			}
		}
		out.WriteString(word)
		lineLen += n
	}
	return out.String()
}
