package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/paging"
	"localfund/internal/util"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pendingCountMsg carries the number of requests awaiting review.
type pendingCountMsg struct {
	count int
}

var requestStatuses = []string{
	string(model.RequestPending),
	string(model.RequestApproved),
	string(model.RequestRejected),
}

// AdminRequestsModel is the admin review queue of business requests.
type AdminRequestsModel struct {
	*dataTable[model.BusinessRequest]

	client  *api.Client
	size    int
	pager   *paging.Controller[model.BusinessRequest]
	status  model.RequestStatus
	pending int

	reviewing bool
	decision  model.RequestStatus
	comment   textinput.Model
}

func NewAdminRequestsModel(client *api.Client, pageSize int) *AdminRequestsModel {
	comment := textinput.New()
	comment.Placeholder = "Review comment (optional)"
	comment.Prompt = "comment: "
	comment.CharLimit = 300

	m := &AdminRequestsModel{
		client:  client,
		size:    pageSize,
		comment: comment,
	}
	m.pager = paging.NewController(m.source(), pageSize)
	m.dataTable = newDataTable("requests",
		[]tableColumn{
			{key: "status", label: "status", width: 10},
			{key: "name", label: "restaurant", width: 20},
			{key: "member", label: "member", width: 18},
			{key: "goal", label: "goal", width: 14},
			{key: "period", label: "period", width: 24},
			{key: "created", label: "requested", width: 14},
		},
		requestValue, requestCell)
	m.empty = "No business requests."
	return m
}

func (m *AdminRequestsModel) source() paging.Source[model.BusinessRequest] {
	client, status := m.client, m.status
	return paging.SourceFunc[model.BusinessRequest](func(ctx context.Context, index, size int) (paging.Page[model.BusinessRequest], error) {
		list, err := client.AdminBusinessRequests(ctx, status, index, size)
		if err != nil {
			return paging.Page[model.BusinessRequest]{}, err
		}
		return list.Page(index), nil
	})
}

func requestValue(r model.BusinessRequest, key string) string {
	switch key {
	case "status":
		return string(r.Status)
	case "name":
		return r.Name
	case "member":
		return r.MemberEmail
	case "goal":
		return padAmount(r.FundingGoalAmount)
	case "period":
		return r.FundingStartDate + r.FundingEndDate
	case "created":
		return r.CreatedAt
	}
	return ""
}

func requestCell(r model.BusinessRequest, col tableColumn) string {
	switch col.key {
	case "status":
		return statusColor(string(r.Status)).Render(string(r.Status))
	case "goal":
		return util.FormatKRW(r.FundingGoalAmount)
	case "period":
		return util.FundingPeriod(r.FundingStartDate, r.FundingEndDate)
	case "created":
		return util.FormatDateHuman(r.CreatedAt)
	}
	return requestValue(r, col.key)
}

// Restart reloads from the first page with the current status filter.
func (m *AdminRequestsModel) Restart() {
	m.pager = paging.NewController(m.source(), m.size)
	m.SetRows(nil)
}

func (m *AdminRequestsModel) refresh() {
	m.SetRows(m.pager.Items())
}

// CycleStatus moves the server-side status filter through ALL and each status.
func (m *AdminRequestsModel) CycleStatus() string {
	m.status = model.RequestStatus(cycleValue(requestStatuses, string(m.status)))
	m.Restart()
	m.JumpToTop()
	if m.status == "" {
		return "Status: ALL"
	}
	return "Status: " + string(m.status)
}

// StartReview opens the comment input for the selected request. Only
// pending requests can be reviewed.
func (m *AdminRequestsModel) StartReview(decision model.RequestStatus) error {
	r, ok := m.Selected()
	if !ok {
		return fmt.Errorf("no request selected")
	}
	if !r.Status.CanTransition(decision) {
		return fmt.Errorf("request is already %s", r.Status)
	}
	m.reviewing = true
	m.decision = decision
	m.comment.SetValue("")
	m.comment.Focus()
	return nil
}

func (m *AdminRequestsModel) stopReview() {
	m.reviewing = false
	m.comment.Blur()
}

// ApplyReview replaces the reviewed row.
func (m *AdminRequestsModel) ApplyReview(r model.BusinessRequest) {
	if m.pager.Update(func(x model.BusinessRequest) bool { return x.ID == r.ID }, func(model.BusinessRequest) model.BusinessRequest { return r }) {
		m.refresh()
	}
}

// Update handles the review comment input.
func (m AdminRequestsModel) Update(msg tea.KeyMsg, timeout time.Duration) (AdminRequestsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopReview()
		return m, func() tea.Msg { return model.FormCancelledMsg{} }
	case "enter", "ctrl+s":
		r, ok := m.Selected()
		m.stopReview()
		if !ok {
			return m, nil
		}
		d := model.ReviewDecision{ID: r.ID, Status: m.decision, ReviewComment: strings.TrimSpace(m.comment.Value())}
		return m, reviewRequestCmd(m.client, d, timeout)
	}
	var cmd tea.Cmd
	m.comment, cmd = m.comment.Update(msg)
	return m, cmd
}

// View renders the queue.
func (m *AdminRequestsModel) View(width, height int) string {
	var top []string
	summary := LabelStyle.Render(fmt.Sprintf("%d pending", m.pending))
	if m.status != "" {
		summary += HelpDescStyle.Render("  ·  showing " + string(m.status))
	}
	top = append(top, StatusBarStyle.Render(summary))
	if m.reviewing {
		verb := "Approve"
		if m.decision == model.RequestRejected {
			verb = "Reject"
		}
		top = append(top, InputStyle.Width(width-2).Render(verb+" · "+m.comment.View()))
	}
	if m.pager.Err() != nil && m.pager.Len() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(top, retryPanel("business requests", m.pager.Err(), width))...)
	}

	detail := ""
	if r, ok := m.Selected(); ok && r.ReviewComment != "" {
		detail = HelpDescStyle.Render("review: " + r.ReviewComment)
	}
	tableHeight := height - blockHeight(top)
	if detail != "" {
		tableHeight--
	}
	blocks := append(top, m.dataTable.View(width, tableHeight, pagerStatus(m.pager)))
	if detail != "" {
		blocks = append(blocks, detail)
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func reviewRequestCmd(client *api.Client, d model.ReviewDecision, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		out, err := client.ReviewBusinessRequest(ctx, d)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to review request: %w", err)}
		}
		return model.BusinessRequestReviewedMsg{Request: out}
	}
}

func loadPendingCountCmd(client *api.Client, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n, err := client.PendingBusinessRequests(ctx)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load pending count: %w", err)}
		}
		return pendingCountMsg{count: n}
	}
}
