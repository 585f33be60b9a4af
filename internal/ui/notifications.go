package ui

import (
	"context"
	"fmt"
	"time"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/paging"
	"localfund/internal/util"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// notificationsChangedMsg asks the screen to reload after a mutation.
type notificationsChangedMsg struct {
	info string
}

// unreadCountMsg carries the member's unread notification count.
type unreadCountMsg struct {
	count int
}

// NotificationsModel lists the member's notifications.
type NotificationsModel struct {
	*dataTable[model.Notification]

	client *api.Client
	email  string
	size   int
	pager  *paging.Controller[model.Notification]
	unread int
}

func NewNotificationsModel(client *api.Client, email string, pageSize int) *NotificationsModel {
	m := &NotificationsModel{client: client, email: email, size: pageSize}
	m.pager = paging.NewController(m.source(), pageSize)
	m.dataTable = newDataTable("notifications",
		[]tableColumn{
			{key: "read", label: "", width: 2},
			{key: "type", label: "type", width: 10},
			{key: "title", label: "title", width: 24},
			{key: "message", label: "message", width: 36},
			{key: "created", label: "received", width: 14},
		},
		notificationValue, notificationCell)
	m.empty = "You're all caught up."
	return m
}

func (m *NotificationsModel) source() paging.Source[model.Notification] {
	client, email := m.client, m.email
	return paging.SourceFunc[model.Notification](func(ctx context.Context, index, size int) (paging.Page[model.Notification], error) {
		list, err := client.Notifications(ctx, email, index, size)
		if err != nil {
			return paging.Page[model.Notification]{}, err
		}
		return list.Page(index), nil
	})
}

func notificationValue(n model.Notification, key string) string {
	switch key {
	case "read":
		if n.Read {
			return "read"
		}
		return "unread"
	case "type":
		return n.Type
	case "title":
		return n.Title
	case "message":
		return n.Message
	case "created":
		return n.CreatedAt
	}
	return ""
}

func notificationCell(n model.Notification, col tableColumn) string {
	switch col.key {
	case "read":
		if n.Read {
			return " "
		}
		return "●"
	case "created":
		return util.FormatDateHuman(n.CreatedAt)
	}
	return notificationValue(n, col.key)
}

// Restart reloads from the first page.
func (m *NotificationsModel) Restart() {
	m.pager = paging.NewController(m.source(), m.size)
	m.SetRows(nil)
}

func (m *NotificationsModel) refresh() {
	m.SetRows(m.pager.Items())
}

// View renders the list.
func (m *NotificationsModel) View(width, height int) string {
	top := StatusBarStyle.Render(LabelStyle.Render(fmt.Sprintf("%d unread", m.unread)) +
		HelpDescStyle.Render("  ·  enter mark read  R mark all read  d delete  D delete read"))
	if m.pager.Err() != nil && m.pager.Len() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, top, retryPanel("notifications", m.pager.Err(), width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, m.dataTable.View(width, height-1, pagerStatus(m.pager)))
}

// notificationCmd runs a mutation and asks for a reload.
func notificationCmd(timeout time.Duration, what, info string, op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := op(ctx); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to %s: %w", what, err)}
		}
		return notificationsChangedMsg{info: info}
	}
}

func loadUnreadCountCmd(client *api.Client, email string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n, err := client.UnreadNotifications(ctx, email)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load unread count: %w", err)}
		}
		return unreadCountMsg{count: n}
	}
}
