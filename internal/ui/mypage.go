package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/session"
	"localfund/internal/util"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
)

// My page sections
const (
	sectionFundings = iota
	sectionOrders
	sectionRequests
)

var sectionNames = []string{"Fundings", "Orders", "Business requests"}

// MyPageModel shows the member's profile and activity.
type MyPageModel struct {
	member  model.Member
	section int
	unread  int
	stats   model.OrderStatistics

	fundings *dataTable[model.FundingRecord]
	orders   *dataTable[model.SpecialtyOrder]
	requests *dataTable[model.BusinessRequest]
}

func NewMyPageModel(member model.Member) *MyPageModel {
	m := &MyPageModel{member: member}
	m.fundings = newDataTable("fundings",
		[]tableColumn{
			{key: "restaurant", label: "restaurant", width: 20},
			{key: "amount", label: "amount", width: 12},
			{key: "method", label: "method", width: 10},
			{key: "status", label: "status", width: 10},
			{key: "created", label: "paid", width: 14},
		},
		fundingValue, fundingCell)
	m.fundings.empty = "No fundings yet. Back a restaurant from the Restaurants tab."
	m.orders = newDataTable("orders",
		[]tableColumn{
			{key: "product", label: "product", width: 18},
			{key: "quantity", label: "qty", width: 5},
			{key: "amount", label: "amount", width: 12},
			{key: "status", label: "status", width: 10},
			{key: "created", label: "ordered", width: 14},
		},
		orderValue, orderCell)
	m.orders.empty = "No specialty orders yet."
	m.requests = newDataTable("requests",
		[]tableColumn{
			{key: "status", label: "status", width: 10},
			{key: "name", label: "restaurant", width: 20},
			{key: "goal", label: "goal", width: 14},
			{key: "period", label: "period", width: 24},
			{key: "created", label: "requested", width: 14},
		},
		requestValue, requestCell)
	m.requests.empty = "No business requests. Press B to request a funding page."
	return m
}

func fundingValue(f model.FundingRecord, key string) string {
	switch key {
	case "restaurant":
		return f.RestaurantName
	case "amount":
		return padAmount(f.TotalAmount)
	case "method":
		return f.PaymentMethod
	case "status":
		return string(f.Status)
	case "created":
		return f.CreatedAt
	}
	return ""
}

func fundingCell(f model.FundingRecord, col tableColumn) string {
	switch col.key {
	case "amount":
		return util.FormatKRW(f.TotalAmount)
	case "status":
		return statusColor(string(f.Status)).Render(string(f.Status))
	case "created":
		return util.FormatDateHuman(f.CreatedAt)
	}
	return fundingValue(f, col.key)
}

func orderValue(o model.SpecialtyOrder, key string) string {
	switch key {
	case "product":
		return o.SpecialtyName
	case "quantity":
		return fmt.Sprintf("%04d", o.Quantity)
	case "amount":
		return padAmount(o.TotalAmount)
	case "status":
		return string(o.Status)
	case "created":
		return o.CreatedAt
	}
	return ""
}

func orderCell(o model.SpecialtyOrder, col tableColumn) string {
	switch col.key {
	case "quantity":
		return fmt.Sprintf("%d", o.Quantity)
	case "amount":
		return util.FormatKRW(o.TotalAmount)
	case "status":
		return statusColor(string(o.Status)).Render(string(o.Status))
	case "created":
		return util.FormatDateHuman(o.CreatedAt)
	}
	return orderValue(o, col.key)
}

// ApplyPrefs restores the column layout of every section.
func (m *MyPageModel) ApplyPrefs(p UIPreferences) {
	m.fundings.ApplyPrefs(p.Fundings)
	m.orders.ApplyPrefs(p.Orders)
	m.requests.ApplyPrefs(p.MyRequests)
}

// StorePrefs copies the column layout of every section into p.
func (m *MyPageModel) StorePrefs(p *UIPreferences) {
	p.Fundings = m.fundings.Prefs()
	p.Orders = m.orders.Prefs()
	p.MyRequests = m.requests.Prefs()
}

// NextSection moves to the next activity table.
func (m *MyPageModel) NextSection() {
	m.section = (m.section + 1) % len(sectionNames)
}

// PrevSection moves to the previous activity table.
func (m *MyPageModel) PrevSection() {
	m.section = (m.section + len(sectionNames) - 1) % len(sectionNames)
}

// table returns the active section as a cursor and column controller.
func (m *MyPageModel) table() listTable {
	switch m.section {
	case sectionOrders:
		return m.orders
	case sectionRequests:
		return m.requests
	}
	return m.fundings
}

// SelectedFunding returns the funding under the cursor.
func (m *MyPageModel) SelectedFunding() (model.FundingRecord, bool) {
	if m.section != sectionFundings {
		return model.FundingRecord{}, false
	}
	return m.fundings.Selected()
}

// SelectedOrder returns the order under the cursor.
func (m *MyPageModel) SelectedOrder() (model.SpecialtyOrder, bool) {
	if m.section != sectionOrders {
		return model.SpecialtyOrder{}, false
	}
	return m.orders.Selected()
}

// ReplaceOrder swaps in an updated order.
func (m *MyPageModel) ReplaceOrder(o model.SpecialtyOrder) {
	rows := make([]model.SpecialtyOrder, len(m.orders.allRows))
	copy(rows, m.orders.allRows)
	for i := range rows {
		if rows[i].ID == o.ID {
			rows[i] = o
		}
	}
	m.orders.SetRows(rows)
}

// View renders the page.
func (m *MyPageModel) View(width, height int) string {
	role := "member"
	if m.member.IsAdmin() {
		role = "admin"
	}
	profile := LabelStyle.Render(m.member.DisplayName()) +
		HelpDescStyle.Render("  "+m.member.Email+"  ·  "+role)
	if m.unread > 0 {
		profile += AmountStyle.Render(fmt.Sprintf("  ·  %d unread", m.unread))
	}

	summary := HelpDescStyle.Render(fmt.Sprintf("%d orders · %d paid · %s spent on specialties",
		m.stats.TotalOrders, m.stats.PaidOrders, util.FormatKRW(m.stats.TotalAmount)))

	var tabs []string
	for i, name := range sectionNames {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(ColorMuted)
		if i == m.section {
			style = style.Foreground(ColorText).Bold(true).Underline(true)
		}
		tabs = append(tabs, style.Render(name))
	}

	keys := "[/] section  m notifications  L locations  B request listing"
	if m.member.IsAdmin() {
		keys += "  A review requests"
	}
	keys += "  O log out"

	top := []string{
		StatusBarStyle.Render(profile),
		StatusBarStyle.Render(summary),
		lipgloss.JoinHorizontal(lipgloss.Left, tabs...),
	}
	bottom := StatusBarStyle.Render(HelpDescStyle.Render(keys))
	tableHeight := height - blockHeight(top) - 1

	var table string
	switch m.section {
	case sectionOrders:
		table = m.orders.View(width, tableHeight, "x cancel order")
	case sectionRequests:
		table = m.requests.View(width, tableHeight, "")
	default:
		table = m.fundings.View(width, tableHeight, "enter receipt")
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(top, table, bottom)...)
}

// loadMyPageCmd loads every section concurrently. Failures of one section
// are reported without dropping the others.
func loadMyPageCmd(client *api.Client, member model.Member, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var (
			profile  model.Member
			fundings []model.FundingRecord
			orders   api.List[model.SpecialtyOrder]
			stats    model.OrderStatistics
			requests []model.BusinessRequest
			unread   int
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			profile, err = client.MyPage(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			fundings, err = client.MemberFundings(gctx, member.Email)
			return err
		})
		g.Go(func() error {
			var err error
			orders, err = client.MemberSpecialtyOrders(gctx, member.Email, 0, 50)
			return err
		})
		g.Go(func() error {
			var err error
			stats, err = client.SpecialtyOrderStatistics(gctx, member.Email)
			return err
		})
		g.Go(func() error {
			var err error
			requests, err = client.MemberBusinessRequests(gctx, member.Email)
			return err
		})
		g.Go(func() error {
			var err error
			unread, err = client.UnreadNotifications(gctx, member.Email)
			return err
		})
		if err := g.Wait(); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load my page: %w", err)}
		}
		return myPageLoadedMsg{
			member:   profile,
			fundings: model.FundingsLoadedMsg{Fundings: fundings},
			orders:   model.OrdersLoadedMsg{Orders: orders.Items, Stats: stats},
			requests: model.BusinessRequestsLoadedMsg{Requests: requests},
			unread:   unread,
		}
	}
}

// myPageLoadedMsg bundles the sections of the page.
type myPageLoadedMsg struct {
	member   model.Member
	fundings model.FundingsLoadedMsg
	orders   model.OrdersLoadedMsg
	requests model.BusinessRequestsLoadedMsg
	unread   int
}

// Apply loads a bundle into the tables.
func (m *MyPageModel) Apply(msg myPageLoadedMsg) {
	if msg.member.Email == m.member.Email {
		m.member = msg.member
	}
	m.fundings.SetRows(msg.fundings.Fundings)
	m.orders.SetRows(msg.orders.Orders)
	m.stats = msg.orders.Stats
	m.requests.SetRows(msg.requests.Requests)
	m.unread = msg.unread
}

func sameProfile(a, b model.Member) bool {
	return a.Email == b.Email && a.Nickname == b.Nickname &&
		a.SocialType == b.SocialType && slices.Equal(a.RoleNames, b.RoleNames)
}

// saveMemberCmd stores a refreshed profile in the session. A logout that
// raced the refresh is not an error.
func saveMemberCmd(store *session.Store, member model.Member) tea.Cmd {
	return func() tea.Msg {
		if err := store.UpdateMember(member); err != nil && !errors.Is(err, session.ErrLoggedOut) {
			return model.ErrorMsg{Err: fmt.Errorf("failed to save profile: %w", err)}
		}
		return nil
	}
}

func cancelOrderCmd(client *api.Client, o model.SpecialtyOrder, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := client.CancelSpecialtyOrder(ctx, o.ID); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to cancel order: %w", err)}
		}
		updated, err := client.SpecialtyOrder(ctx, o.ID)
		if err != nil {
			o.Status = model.OrderCancelled
			updated = o
		}
		return model.OrderCancelledMsg{Order: updated}
	}
}

// orderCancellable reports whether an order can still be cancelled.
func orderCancellable(o model.SpecialtyOrder) bool {
	return o.Status == model.OrderPaid || o.Status == model.OrderPending
}

// sectionName is used in banners.
func (m *MyPageModel) sectionName() string {
	return strings.ToLower(sectionNames[m.section])
}
