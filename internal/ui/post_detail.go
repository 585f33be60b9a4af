package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/util"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
)

// PostDetailModel shows a post, its comments and the comment composer.
type PostDetailModel struct {
	post     model.Post
	comments []model.Comment
	cursor   int

	// likePending is set while a toggle is in flight. The displayed state is
	// the server state flipped; the flip is dropped when the server answers.
	likePending bool

	composer  textinput.Model
	composing bool
}

func NewPostDetailModel(p model.Post, comments []model.Comment) *PostDetailModel {
	composer := textinput.New()
	composer.Placeholder = "Write a comment..."
	composer.Prompt = "› "
	composer.CharLimit = 500
	return &PostDetailModel{post: p, comments: comments, composer: composer}
}

// Liked returns the like state to display.
func (m *PostDetailModel) Liked() (bool, int) {
	if !m.likePending {
		return m.post.Liked, m.post.Likes
	}
	if m.post.Liked {
		return false, max(m.post.Likes-1, 0)
	}
	return true, m.post.Likes + 1
}

// BeginLike applies the optimistic toggle. It reports false while a toggle
// is already pending.
func (m *PostDetailModel) BeginLike() bool {
	if m.likePending {
		return false
	}
	m.likePending = true
	return true
}

// SettleLike discards the optimistic toggle and adopts the server state.
func (m *PostDetailModel) SettleLike(msg model.LikeSettledMsg) {
	m.likePending = false
	if msg.Err == nil {
		m.post.Liked = msg.Result.Liked
		m.post.Likes = msg.Result.Likes
	}
}

// SetComments replaces the comment list.
func (m *PostDetailModel) SetComments(comments []model.Comment) {
	m.comments = comments
	m.post.CommentCount = len(comments)
	if m.cursor >= len(comments) {
		m.cursor = max(len(comments)-1, 0)
	}
}

func (m *PostDetailModel) MoveDown() {
	if m.cursor < len(m.comments)-1 {
		m.cursor++
	}
}

func (m *PostDetailModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

// SelectedComment returns the comment under the cursor.
func (m *PostDetailModel) SelectedComment() (model.Comment, bool) {
	if len(m.comments) == 0 {
		return model.Comment{}, false
	}
	return m.comments[m.cursor], true
}

// StartComment focuses the composer.
func (m *PostDetailModel) StartComment() {
	m.composing = true
	m.composer.SetValue("")
	m.composer.Focus()
}

func (m *PostDetailModel) stopComment() {
	m.composing = false
	m.composer.Blur()
}

// canModify reports whether member may edit or delete something written by
// authorEmail.
func canModify(member model.Member, authorEmail string) bool {
	if member.Email == "" {
		return false
	}
	return member.IsAdmin() || strings.EqualFold(member.Email, authorEmail)
}

// Update handles the comment composer.
func (m PostDetailModel) Update(msg tea.KeyMsg, client *api.Client, author model.Member, timeout time.Duration) (PostDetailModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopComment()
		return m, func() tea.Msg { return model.FormCancelledMsg{} }
	case "enter", "ctrl+s":
		content := strings.TrimSpace(m.composer.Value())
		if content == "" {
			return m, nil
		}
		m.stopComment()
		return m, addCommentCmd(client, m.post.ID, content, author, timeout)
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

// View renders the post.
func (m *PostDetailModel) View(width, height int) string {
	p := m.post
	header := renderShortcuts("l like  m comment  x delete comment  y share  e edit  d delete  b back", width)

	liked, likes := m.Liked()
	heart := "♡"
	if liked {
		heart = "♥"
	}
	likeText := fmt.Sprintf("%s %d", heart, likes)
	if m.likePending {
		likeText += HelpDescStyle.Render(" …")
	}

	meta := []string{
		BreadcrumbActiveStyle.Render(p.Category),
		NormalRowStyle.Render(p.Author),
		HelpDescStyle.Render(util.FormatTimestamp(p.CreatedAt)),
		HelpDescStyle.Render(fmt.Sprintf("%d views", p.Views)),
		AmountStyle.Render(likeText),
	}

	sections := []string{
		LabelStyle.Render(p.Title),
		strings.Join(meta, HelpDescStyle.Render("  ·  ")),
		lipgloss.NewStyle().Width(max(width-10, 20)).Render(p.Content),
		renderDivider(width),
		m.renderComments(width),
	}
	if m.composing {
		sections = append(sections, InputStyle.Width(max(width-10, 20)).Render(m.composer.View()))
	}

	info := PanelStyle.
		Width(width - 4).
		Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(lipgloss.Left, header, info)
}

func (m *PostDetailModel) renderComments(width int) string {
	title := LabelStyle.Render(fmt.Sprintf("Comments (%d)", len(m.comments)))
	if len(m.comments) == 0 {
		return title + "\n" + HelpDescStyle.Render("No comments yet. Press m to add one.")
	}
	lines := []string{title}
	for i, c := range m.comments {
		line := fmt.Sprintf("%s  %s  %s", c.Author, util.TruncateString(c.Content, max(width-40, 20)), util.FormatDateHuman(c.CreatedAt))
		style := NormalRowStyle
		if i == m.cursor {
			style = SelectedRowStyle
		}
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

// loadPostCmd fetches a post and its comments concurrently.
func loadPostCmd(client *api.Client, id int64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var (
			post     model.Post
			comments []model.Comment
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			post, err = client.Post(gctx, id)
			return err
		})
		g.Go(func() error {
			var err error
			comments, err = client.Comments(gctx, id)
			return err
		})
		if err := g.Wait(); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load post: %w", err)}
		}
		return model.PostLoadedMsg{Post: post, Comments: comments}
	}
}

func toggleLikeCmd(client *api.Client, id int64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		result, err := client.ToggleLike(ctx, id)
		if err != nil {
			err = fmt.Errorf("failed to update like: %w", err)
		}
		return model.LikeSettledMsg{PostID: id, Result: result, Err: err}
	}
}

func addCommentCmd(client *api.Client, postID int64, content string, author model.Member, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := client.AddComment(ctx, postID, content, author); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to add comment: %w", err)}
		}
		comments, err := client.Comments(ctx, postID)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load comments: %w", err)}
		}
		return model.CommentsChangedMsg{PostID: postID, Comments: comments}
	}
}

func deleteCommentCmd(client *api.Client, postID, commentID int64, authorEmail string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := client.DeleteComment(ctx, postID, commentID, authorEmail); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to delete comment: %w", err)}
		}
		comments, err := client.Comments(ctx, postID)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load comments: %w", err)}
		}
		return model.CommentsChangedMsg{PostID: postID, Comments: comments}
	}
}

func deletePostCmd(client *api.Client, id int64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := client.DeletePost(ctx, id); err != nil {
			if errors.Is(err, api.ErrNotFound) {
				return model.PostDeletedMsg{ID: id}
			}
			return model.ErrorMsg{Err: fmt.Errorf("failed to delete post: %w", err)}
		}
		return model.PostDeletedMsg{ID: id}
	}
}
