package components

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/tui/styles"
)

// TagItem implements list.Item for tags
type TagItem struct {
	Tag      domain.Tag
	Selected bool
}

func (i TagItem) FilterValue() string { return i.Tag.Name }

func (i TagItem) Title() string {
	if i.Selected {
		return "✓ " + i.Tag.Name
	}
	return "  " + i.Tag.Name
}

func (i TagItem) Description() string { return i.Tag.Category }

// BorderSize is the border overhead of the sidebar panel
const BorderSize = 2

// TagSidebar lists the catalog tags with their selection state
type TagSidebar struct {
	list     list.Model
	focused  bool
	width    int
	height   int
	tags     []domain.Tag
	selected map[string]bool
}

// NewTagSidebar creates a new sidebar component
func NewTagSidebar() TagSidebar {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Foreground(styles.White).
		Background(styles.SlateLight).
		Padding(0, 1)
	delegate.Styles.NormalTitle = lipgloss.NewStyle().
		Foreground(styles.LightGray).
		Padding(0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Tags"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(styles.Crimson).
		Bold(true).
		Padding(0, 1)

	return TagSidebar{
		list:     l,
		selected: make(map[string]bool),
	}
}

// SetTags replaces the listed tags, keeping the cursor when possible
func (s *TagSidebar) SetTags(tags []*domain.Tag) {
	s.tags = s.tags[:0]
	for _, t := range tags {
		s.tags = append(s.tags, *t)
	}
	s.refreshItems()
}

// SetSelected marks the given tag names as selected
func (s *TagSidebar) SetSelected(names []string) {
	clear(s.selected)
	for _, n := range names {
		s.selected[n] = true
	}
	s.refreshItems()
}

func (s *TagSidebar) refreshItems() {
	items := make([]list.Item, len(s.tags))
	for i, t := range s.tags {
		items[i] = TagItem{Tag: t, Selected: s.selected[t.Name]}
	}
	s.list.SetItems(items)
}

// SelectedTag returns the tag under the cursor
func (s TagSidebar) SelectedTag() *domain.Tag {
	item, ok := s.list.SelectedItem().(TagItem)
	if !ok {
		return nil
	}
	return &item.Tag
}

// SetSize updates the component dimensions
func (s *TagSidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.list.SetSize(width-BorderSize, height-BorderSize)
}

// SetFocused sets the focus state
func (s *TagSidebar) SetFocused(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state
func (s TagSidebar) IsFocused() bool {
	return s.focused
}

// Update handles cursor movement
func (s TagSidebar) Update(msg tea.Msg) (TagSidebar, tea.Cmd) {
	if !s.focused {
		return s, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "j", "down":
			s.list.CursorDown()
		case "k", "up":
			s.list.CursorUp()
		case "g", "home":
			s.list.Select(0)
		case "G", "end":
			s.list.Select(len(s.list.Items()) - 1)
		}
	}

	return s, nil
}

// View renders the component
func (s TagSidebar) View() string {
	style := styles.InactiveBorder
	if s.focused {
		style = styles.ActiveBorder
	}

	frameW, frameH := style.GetFrameSize()

	return style.
		Width(s.width - frameW).
		Height(s.height - frameH).
		Render(s.list.View())
}
