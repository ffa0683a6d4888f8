package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/GerlachSG/Cruciflix/internal/tui/styles"
)

// LoginForm collects an email and password
type LoginForm struct {
	email    textinput.Model
	password textinput.Model
	focus    int
	err      string
	busy     bool
}

// NewLoginForm creates the form with email pre-filled
func NewLoginForm(email string) LoginForm {
	e := textinput.New()
	e.Placeholder = "email@exemplo.com"
	e.Prompt = "Email:  "
	e.CharLimit = 120
	e.Width = 36
	e.SetValue(email)

	p := textinput.New()
	p.Placeholder = "senha"
	p.Prompt = "Senha:  "
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'
	p.CharLimit = 120
	p.Width = 36

	f := LoginForm{email: e, password: p}
	if email == "" {
		f.email.Focus()
	} else {
		f.focus = 1
		f.password.Focus()
	}
	return f
}

// Credentials returns the entered email and password
func (f LoginForm) Credentials() (string, string) {
	return strings.TrimSpace(f.email.Value()), f.password.Value()
}

// SetError shows err under the form and re-enables input
func (f *LoginForm) SetError(err string) {
	f.err = err
	f.busy = false
	f.password.SetValue("")
}

// SetBusy disables submission while a login is in flight
func (f *LoginForm) SetBusy(busy bool) {
	f.busy = busy
}

// Update handles input, returns (form, cmd, submitted)
func (f LoginForm) Update(msg tea.Msg) (LoginForm, tea.Cmd, bool) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "shift+tab", "up", "down":
			f.focus = 1 - f.focus
			if f.focus == 0 {
				f.password.Blur()
				return f, f.email.Focus(), false
			}
			f.email.Blur()
			return f, f.password.Focus(), false
		case "enter":
			if f.busy {
				return f, nil, false
			}
			if f.focus == 0 {
				f.focus = 1
				f.email.Blur()
				return f, f.password.Focus(), false
			}
			return f, nil, true
		}
	}

	var cmd tea.Cmd
	if f.focus == 0 {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd, false
}

// View renders the form
func (f LoginForm) View() string {
	lines := []string{
		styles.LogoStyle.Render("CRUCIFLIX"),
		"",
		f.email.View(),
		f.password.View(),
		"",
	}
	switch {
	case f.busy:
		lines = append(lines, styles.DimStyle.Render("Entrando..."))
	case f.err != "":
		lines = append(lines, styles.ErrorStyle.Render(f.err))
	default:
		lines = append(lines, styles.DimStyle.Render("enter para entrar, tab troca de campo"))
	}
	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
