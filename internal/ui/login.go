package ui

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	loginEmail = iota
	loginPassword
	loginNickname
)

// LoginModel logs a member in, or registers a new account first.
type LoginModel struct {
	fields   fieldSet
	register bool
	notice   string
	error    string
}

// NewLoginModel creates the form. notice explains why login is needed.
func NewLoginModel(notice string) *LoginModel {
	return &LoginModel{
		fields: newFieldSet(
			newFormField("Email *", "you@example.com", 80),
			passwordField("Password *"),
			newFormField("Nickname *", "Shown on your posts", 20),
		),
		notice: notice,
	}
}

func (m *LoginModel) visibleFields() int {
	if m.register {
		return 3
	}
	return 2
}

func (m *LoginModel) next() {
	m.fields.focus((m.fields.focused + 1) % m.visibleFields())
}

func (m *LoginModel) prev() {
	n := m.visibleFields()
	m.fields.focus((m.fields.focused - 1 + n) % n)
}

// Update handles input.
func (m LoginModel) Update(msg tea.KeyMsg, client *api.Client, store *session.Store) (LoginModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg {
			return model.FormCancelledMsg{}
		}
	case "ctrl+n":
		m.register = !m.register
		if !m.register && m.fields.focused == loginNickname {
			m.fields.focus(loginEmail)
		}
		m.error = ""
		return m, nil
	case "tab", "down":
		m.next()
		return m, nil
	case "shift+tab", "up":
		m.prev()
		return m, nil
	case "enter":
		if m.fields.focused < m.visibleFields()-1 {
			m.next()
			return m, nil
		}
		return m.submit(client, store)
	case "ctrl+s":
		return m.submit(client, store)
	}
	return m, m.fields.update(msg)
}

func (m LoginModel) submit(client *api.Client, store *session.Store) (LoginModel, tea.Cmd) {
	cred := api.Credentials{
		Email:    m.fields.value(loginEmail),
		Password: m.fields.fields[loginPassword].input.Value(),
	}
	if _, err := mail.ParseAddress(cred.Email); err != nil {
		m.error = "Enter a valid email address"
		return m, nil
	}
	if cred.Password == "" {
		m.error = "Password is required"
		return m, nil
	}
	m.error = ""
	if !m.register {
		return m, loginCmd(client, store, cred, nil)
	}
	nickname := m.fields.value(loginNickname)
	if nickname == "" {
		m.error = "Nickname is required"
		return m, nil
	}
	reg := &model.Registration{Email: cred.Email, Password: cred.Password, Nickname: nickname}
	return m, loginCmd(client, store, cred, reg)
}

// View renders the form.
func (m *LoginModel) View(width, height int) string {
	title := "Log in"
	toggle := "ctrl+n create an account"
	if m.register {
		title = "Create an account"
		toggle = "ctrl+n I already have an account"
	}

	var fields []string
	fields = append(fields, LabelStyle.Render(title))
	if m.notice != "" {
		fields = append(fields, AmountStyle.Render(m.notice))
	}
	views := m.fields.views()
	fields = append(fields, views[:m.visibleFields()]...)
	if m.error != "" {
		fields = append(fields, ErrorStyle.Render(m.error))
	}
	fields = append(fields, HelpDescStyle.Render("enter next/submit  "+toggle+"  esc cancel"))

	width = min(width-4, 60)
	return lipgloss.NewStyle().Padding(1, 2).Render(
		PanelStyle.Width(width).Render(strings.Join(fields, "\n")))
}

// loginCmd registers first when reg is set, then logs in and stores the
// session.
func loginCmd(client *api.Client, store *session.Store, cred api.Credentials, reg *model.Registration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if reg != nil {
			if err := client.Register(ctx, *reg); err != nil {
				return model.ErrorMsg{Err: fmt.Errorf("failed to register: %w", err)}
			}
		}
		res, err := client.Login(ctx, cred)
		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				return model.ErrorMsg{Err: errors.New("invalid email or password")}
			}
			return model.ErrorMsg{Err: fmt.Errorf("failed to log in: %w", err)}
		}
		if err := store.Write(session.Session{AccessToken: res.AccessToken, Member: res.Member}); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to save session: %w", err)}
		}
		return model.LoggedInMsg{Member: res.Member}
	}
}

// logoutCmd clears the local session. The backend call is best effort.
func logoutCmd(client *api.Client, store *session.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Logout(ctx)
		if err := store.Clear(); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to clear session: %w", err)}
		}
		return model.LoggedOutMsg{}
	}
}
