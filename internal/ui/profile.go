package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/session"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	profileNickname = iota
	profileCurrent
	profileNew
	profileConfirm
)

const minPasswordLength = 4

func passwordField(label string) formField {
	f := newFormField(label, "••••••••", 64)
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

// ProfileEditModel changes the nickname and, optionally, the password.
type ProfileEditModel struct {
	member model.Member
	fields fieldSet
	error  string
}

func NewProfileEditModel(member model.Member) *ProfileEditModel {
	m := &ProfileEditModel{
		member: member,
		fields: newFieldSet(
			newFormField("Nickname *", "2 to 20 characters", 20),
			passwordField("Current password"),
			passwordField("New password"),
			passwordField("Confirm new password"),
		),
	}
	m.fields.set(profileNickname, member.Nickname)
	return m
}

// Update handles input.
func (m ProfileEditModel) Update(msg tea.KeyMsg, client *api.Client, store *session.Store, timeout time.Duration) (ProfileEditModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return model.FormCancelledMsg{} }
	case "tab", "down":
		m.fields.next()
		return m, nil
	case "shift+tab", "up":
		m.fields.prev()
		return m, nil
	case "enter":
		if m.fields.focused < len(m.fields.fields)-1 {
			m.fields.next()
			return m, nil
		}
		return m.submit(client, store, timeout)
	case "ctrl+s":
		return m.submit(client, store, timeout)
	}
	return m, m.fields.update(msg)
}

func (m ProfileEditModel) submit(client *api.Client, store *session.Store, timeout time.Duration) (ProfileEditModel, tea.Cmd) {
	update, change, problem := m.validate()
	if problem != "" {
		m.error = problem
		return m, nil
	}
	m.error = ""
	return m, updateProfileCmd(client, store, update, change, timeout)
}

// validate returns the profile update and, when a password field is filled
// in, the password change. A non-empty problem blocks saving.
func (m *ProfileEditModel) validate() (update model.ProfileUpdate, change *model.PasswordChange, problem string) {
	update = model.ProfileUpdate{Nickname: m.fields.value(profileNickname)}
	if n := utf8.RuneCountInString(update.Nickname); n < 2 || n > 20 {
		return update, nil, "Nickname must be 2 to 20 characters"
	}
	current := m.fields.fields[profileCurrent].input.Value()
	next := m.fields.fields[profileNew].input.Value()
	confirm := m.fields.fields[profileConfirm].input.Value()
	if current == "" && next == "" && confirm == "" {
		if update.Nickname == m.member.Nickname {
			return update, nil, "Nothing to change"
		}
		return update, nil, ""
	}
	switch {
	case current == "":
		return update, nil, "Enter your current password"
	case len(next) < minPasswordLength:
		return update, nil, fmt.Sprintf("New password must be at least %d characters", minPasswordLength)
	case next != confirm:
		return update, nil, "New passwords do not match"
	case next == current:
		return update, nil, "New password must differ from the current one"
	}
	return update, &model.PasswordChange{CurrentPassword: current, NewPassword: next}, ""
}

// View renders the form.
func (m *ProfileEditModel) View(width, height int) string {
	fields := []string{
		LabelStyle.Render("Edit profile"),
		HelpDescStyle.Render(m.member.Email),
	}
	views := m.fields.views()
	fields = append(fields, views[profileNickname])
	fields = append(fields, HelpDescStyle.Render("Leave the password fields empty to keep your password."))
	fields = append(fields, views[profileCurrent:]...)
	if m.error != "" {
		fields = append(fields, ErrorStyle.Render(m.error))
	}
	fields = append(fields, HelpDescStyle.Render("enter next/save  esc cancel"))

	width = min(width-4, 60)
	return lipgloss.NewStyle().Padding(1, 2).Render(
		PanelStyle.Width(width).Render(strings.Join(fields, "\n")))
}

// updateProfileCmd saves the nickname, then the password when change is set,
// and keeps the stored session in step.
func updateProfileCmd(client *api.Client, store *session.Store, update model.ProfileUpdate, change *model.PasswordChange, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		member, err := client.UpdateProfile(ctx, update)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to update profile: %w", err)}
		}
		if change != nil {
			if err := client.ChangePassword(ctx, *change); err != nil {
				return model.ErrorMsg{Err: fmt.Errorf("failed to change password: %w", err)}
			}
		}
		if err := store.UpdateMember(member); err != nil && !errors.Is(err, session.ErrLoggedOut) {
			return model.ErrorMsg{Err: fmt.Errorf("failed to save session: %w", err)}
		}
		return model.ProfileUpdatedMsg{Member: member, PasswordChanged: change != nil}
	}
}

// DeleteAccountModel closes the account once the member types their email.
type DeleteAccountModel struct {
	member model.Member
	input  textinput.Model
	error  string
}

func NewDeleteAccountModel(member model.Member) *DeleteAccountModel {
	in := textinput.New()
	in.Placeholder = member.Email
	in.Prompt = "email: "
	in.CharLimit = 80
	in.Focus()
	return &DeleteAccountModel{member: member, input: in}
}

// Update handles input.
func (m DeleteAccountModel) Update(msg tea.KeyMsg, client *api.Client, store *session.Store, timeout time.Duration) (DeleteAccountModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return model.FormCancelledMsg{} }
	case "enter", "ctrl+s":
		typed := strings.TrimSpace(m.input.Value())
		if !strings.EqualFold(typed, m.member.Email) {
			m.error = "Type " + m.member.Email + " to confirm"
			return m, nil
		}
		m.error = ""
		return m, deleteAccountCmd(client, store, typed, timeout)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the confirmation.
func (m *DeleteAccountModel) View(width, height int) string {
	lines := []string{
		ErrorStyle.Render("Delete account"),
		NormalRowStyle.Render("This closes " + m.member.Email + " and removes your saved addresses and wishlist."),
		HelpDescStyle.Render("Fundings and orders you paid for stay on record."),
		"",
		InputStyle.Width(min(width-8, 56)).Render(m.input.View()),
	}
	if m.error != "" {
		lines = append(lines, ErrorStyle.Render(m.error))
	}
	lines = append(lines, HelpDescStyle.Render("enter delete  esc cancel"))

	width = min(width-4, 60)
	return lipgloss.NewStyle().Padding(1, 2).Render(
		PanelStyle.Width(width).Render(strings.Join(lines, "\n")))
}

// deleteAccountCmd closes the account, then forgets the local session.
func deleteAccountCmd(client *api.Client, store *session.Store, confirmEmail string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := client.DeleteAccount(ctx, confirmEmail); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to delete account: %w", err)}
		}
		if err := store.Clear(); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to clear session: %w", err)}
		}
		return model.AccountDeletedMsg{}
	}
}
