package ui

import (
	"fmt"
	"strings"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/paging"
	"localfund/internal/util"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// keywordSearchMsg fires after the debounce delay of a community search.
type keywordSearchMsg struct {
	seq int
}

// PostsModel is the community board.
type PostsModel struct {
	*dataTable[model.Post]

	client *api.Client
	size   int
	pager  *paging.Controller[model.Post]
	query  api.PostQuery
	find   textinput.Model
	seq    int
}

// NewPostsModel creates the board with the newest posts first.
func NewPostsModel(client *api.Client, pageSize int) *PostsModel {
	find := textinput.New()
	find.Placeholder = "keyword"
	find.Prompt = "search: "
	find.CharLimit = 40

	m := &PostsModel{
		client: client,
		size:   pageSize,
		find:   find,
	}
	m.pager = paging.NewController(client.PostSource(m.query), pageSize)
	m.dataTable = newDataTable("posts",
		[]tableColumn{
			{key: "category", label: "category", width: 9},
			{key: "title", label: "title", width: 28},
			{key: "author", label: "author", width: 12},
			{key: "likes", label: "likes", width: 6},
			{key: "comments", label: "comments", width: 8},
			{key: "views", label: "views", width: 6},
			{key: "created", label: "posted", width: 14},
		},
		postValue, postCell)
	m.empty = "No posts yet. Press a to write the first one."
	return m
}

func postValue(p model.Post, key string) string {
	switch key {
	case "category":
		return p.Category
	case "title":
		return p.Title
	case "author":
		return p.Author
	case "likes":
		return fmt.Sprintf("%06d", p.Likes)
	case "comments":
		return fmt.Sprintf("%06d", p.CommentCount)
	case "views":
		return fmt.Sprintf("%06d", p.Views)
	case "created":
		return p.CreatedAt
	}
	return ""
}

func postCell(p model.Post, col tableColumn) string {
	switch col.key {
	case "likes":
		heart := "♡"
		if p.Liked {
			heart = "♥"
		}
		return fmt.Sprintf("%s %d", heart, p.Likes)
	case "comments", "views":
		return strings.TrimLeft(postValue(p, col.key), "0")
	case "created":
		return util.FormatDateHuman(p.CreatedAt)
	}
	return postValue(p, col.key)
}

// restart replaces the pager for the current query.
func (m *PostsModel) restart() {
	m.pager = paging.NewController(m.client.PostSource(m.query), m.size)
	m.SetRows(nil)
	m.JumpToTop()
}

func (m *PostsModel) refresh() {
	m.SetRows(m.pager.Items())
}

// CycleCategory moves through all categories. It clears the keyword.
func (m *PostsModel) CycleCategory() string {
	m.query.Category = cycleValue(model.PostCategories, m.query.Category)
	m.query.Keyword = ""
	m.find.SetValue("")
	m.restart()
	if m.query.Category == "" {
		return "Category: all"
	}
	return "Category: " + m.query.Category
}

// SetKeyword switches to a keyword search. An empty keyword returns to the
// plain listing.
func (m *PostsModel) SetKeyword(keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == m.query.Keyword {
		return false
	}
	m.query.Keyword = keyword
	m.restart()
	return true
}

// ReplacePost swaps in an updated copy of a post already listed.
func (m *PostsModel) ReplacePost(p model.Post) {
	if m.pager.Update(func(x model.Post) bool { return x.ID == p.ID }, func(model.Post) model.Post { return p }) {
		m.refresh()
	}
}

// View renders the board.
func (m *PostsModel) View(width, height int) string {
	var top []string
	if m.find.Focused() || m.query.Keyword != "" {
		top = append(top, InputStyle.Width(width-2).Render(m.find.View()))
	}
	if m.pager.Err() != nil && m.pager.Len() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(top, retryPanel("posts", m.pager.Err(), width))...)
	}
	if m.pager.Loading() && m.pager.Len() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(top, EmptyStateStyle.Render("Loading posts…"))...)
	}

	var parts []string
	switch {
	case m.query.Keyword != "":
		parts = append(parts, fmt.Sprintf("search %q", m.query.Keyword))
	case m.query.Category != "":
		parts = append(parts, "category "+m.query.Category)
	}
	parts = append(parts, pagerStatus(m.pager))

	table := m.dataTable.View(width, height-blockHeight(top), strings.Join(parts, "  ·  "))
	return lipgloss.JoinVertical(lipgloss.Left, append(top, table)...)
}
