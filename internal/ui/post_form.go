package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"localfund/internal/api"
	"localfund/internal/model"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	postFieldTitle = iota
	postFieldCategory
	postFieldContent
)

// PostFormModel writes or edits a community post.
type PostFormModel struct {
	client   *api.Client
	author   model.Member
	timeout  time.Duration
	post     model.Post
	title    textinput.Model
	category string
	content  textarea.Model
	focused  int
	error    string
}

// NewPostFormModel creates an empty form. Members who are not admins cannot
// pick the NOTICE category.
func NewPostFormModel(client *api.Client, author model.Member, timeout time.Duration) *PostFormModel {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 100
	title.Focus()

	content := textarea.New()
	content.Placeholder = "Share something with your neighbours..."
	content.CharLimit = 2000
	content.ShowLineNumbers = false
	content.SetHeight(8)

	return &PostFormModel{
		client:   client,
		author:   author,
		timeout:  timeout,
		title:    title,
		category: model.PostCategories[0],
		content:  content,
	}
}

// LoadPost fills the form for editing p.
func (m *PostFormModel) LoadPost(p model.Post) {
	m.post = p
	m.title.SetValue(p.Title)
	if p.Category != "" {
		m.category = p.Category
	}
	m.content.SetValue(p.Content)
}

func (m *PostFormModel) categories() []string {
	if m.author.IsAdmin() {
		return model.PostCategories
	}
	var out []string
	for _, c := range model.PostCategories {
		if c != "NOTICE" {
			out = append(out, c)
		}
	}
	return out
}

func (m *PostFormModel) cycleCategory() {
	cats := m.categories()
	i := slices.Index(cats, m.category)
	m.category = cats[(i+1)%len(cats)]
}

func (m *PostFormModel) setFocus(i int) {
	m.focused = (i + 3) % 3
	m.title.Blur()
	m.content.Blur()
	switch m.focused {
	case postFieldTitle:
		m.title.Focus()
	case postFieldContent:
		m.content.Focus()
	}
}

// Update handles input.
func (m PostFormModel) Update(msg tea.KeyMsg) (PostFormModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg {
			return model.FormCancelledMsg{}
		}
	case "ctrl+s":
		post, err := m.validate()
		if err != nil {
			m.error = err.Error()
			return m, nil
		}
		m.error = ""
		return m, savePostCmd(m.client, post, m.timeout)
	case "tab":
		m.setFocus(m.focused + 1)
		return m, nil
	case "shift+tab":
		m.setFocus(m.focused - 1)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focused {
	case postFieldTitle:
		m.title, cmd = m.title.Update(msg)
	case postFieldCategory:
		switch msg.String() {
		case " ", "enter", "right", "l":
			m.cycleCategory()
		}
	case postFieldContent:
		m.content, cmd = m.content.Update(msg)
	}
	return m, cmd
}

func (m *PostFormModel) validate() (model.Post, error) {
	p := m.post
	p.Title = strings.TrimSpace(m.title.Value())
	p.Content = strings.TrimSpace(m.content.Value())
	p.Category = m.category
	if p.Title == "" {
		return p, fmt.Errorf("title is required")
	}
	if p.Content == "" {
		return p, fmt.Errorf("content is required")
	}
	if !slices.Contains(m.categories(), p.Category) {
		return p, fmt.Errorf("category %s is not allowed", p.Category)
	}
	if p.ID == 0 {
		p.Author = m.author.DisplayName()
		p.AuthorEmail = m.author.Email
	}
	return p, nil
}

// View renders the form.
func (m *PostFormModel) View(width, height int) string {
	var fields []string
	fields = append(fields, renderFormField("Title *", m.title, m.focused == postFieldTitle))

	var chips []string
	for _, c := range m.categories() {
		style := HelpDescStyle
		if c == m.category {
			style = BreadcrumbActiveStyle.Bold(true).Underline(true)
		}
		chips = append(chips, style.Render(c))
	}
	catStyle := BorderStyle
	if m.focused == postFieldCategory {
		catStyle = ActiveBorderStyle
	}
	fields = append(fields, catStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		LabelStyle.Render("Category (space to change)"),
		strings.Join(chips, "  "))))

	m.content.SetWidth(max(width-14, 20))
	contentStyle := BorderStyle
	if m.focused == postFieldContent {
		contentStyle = ActiveBorderStyle
	}
	fields = append(fields, contentStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		LabelStyle.Render("Content *"),
		m.content.View())))

	if m.error != "" {
		fields = append(fields, "")
		fields = append(fields, ErrorStyle.Render(m.error))
	}

	return PanelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(strings.Join(fields, "\n\n"))
}

func savePostCmd(client *api.Client, p model.Post, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if p.ID > 0 {
			out, err := client.UpdatePost(ctx, p)
			if err != nil {
				return model.ErrorMsg{Err: fmt.Errorf("failed to update post: %w", err)}
			}
			return model.PostSavedMsg{Post: out, Operation: "update"}
		}
		out, err := client.CreatePost(ctx, p)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to create post: %w", err)}
		}
		return model.PostSavedMsg{Post: out, Operation: "insert"}
	}
}
