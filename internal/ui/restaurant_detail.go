package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/util"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
)

// maxMenuQuantity caps a single basket line.
const maxMenuQuantity = 99

// RestaurantDetailModel shows a restaurant with its menu basket.
type RestaurantDetailModel struct {
	restaurant model.Restaurant
	menus      []model.MenuItem
	quantities []int
	cursor     int
	preview    string
	backers    []model.FundingRecord
	wishlisted bool
}

// recentBackers is how many fundings the detail lists.
const recentBackers = 3

// NewRestaurantDetailModel creates a detail screen with an empty basket.
func NewRestaurantDetailModel(r model.Restaurant, menus []model.MenuItem, backers []model.FundingRecord) *RestaurantDetailModel {
	return &RestaurantDetailModel{
		restaurant: r,
		menus:      menus,
		quantities: make([]int, len(menus)),
		backers:    backers,
	}
}

func (m *RestaurantDetailModel) MoveDown() {
	if m.cursor < len(m.menus)-1 {
		m.cursor++
	}
}

func (m *RestaurantDetailModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

// Increase adds one of the selected menu to the basket.
func (m *RestaurantDetailModel) Increase() {
	if len(m.menus) > 0 && m.quantities[m.cursor] < maxMenuQuantity {
		m.quantities[m.cursor]++
	}
}

// Decrease removes one of the selected menu from the basket.
func (m *RestaurantDetailModel) Decrease() {
	if len(m.menus) > 0 && m.quantities[m.cursor] > 0 {
		m.quantities[m.cursor]--
	}
}

// Basket returns the lines with a positive quantity in menu order.
func (m *RestaurantDetailModel) Basket() []model.LineItem {
	var items []model.LineItem
	for i, q := range m.quantities {
		if q > 0 {
			items = append(items, model.LineItem{Name: m.menus[i].Name, Price: m.menus[i].Price, Quantity: q})
		}
	}
	return items
}

// Total returns the basket amount.
func (m *RestaurantDetailModel) Total() int64 {
	var total int64
	for _, it := range m.Basket() {
		total += it.Subtotal()
	}
	return total
}

// View renders the restaurant detail.
func (m *RestaurantDetailModel) View(width, height int) string {
	r := m.restaurant
	header := renderShortcuts("j/k menu  +/- quantity  p fund  w save  i photo  b back", width)

	var sections []string

	var fields []string
	name := r.Name
	if m.wishlisted {
		name += "  " + AmountStyle.Render("♥ On your wishlist")
	}
	fields = append(fields, renderField("Name", name))
	fields = append(fields, renderField("Category", shortCategory(r.CategoryName)))
	fields = append(fields, renderField("Address", r.RoadAddressName))
	fields = append(fields, renderField("Phone", r.Phone))
	if r.BusinessHours != "" {
		fields = append(fields, renderField("Hours", r.BusinessHours))
	}
	if r.PriceRange != "" {
		fields = append(fields, renderField("Price Range", r.PriceRange))
	}
	if r.Tags != "" {
		fields = append(fields, renderField("Tags", r.Tags))
	}
	if r.Description != "" {
		fields = append(fields, renderField("About", r.Description))
	}
	sections = append(sections, strings.Join(fields, "\n"))

	sections = append(sections, m.renderFunding())
	if len(m.backers) > 0 {
		sections = append(sections, m.renderBackers())
	}
	if r.Notice != "" {
		sections = append(sections, LabelStyle.Render("Notice: ")+AmountStyle.Render(r.Notice))
	}
	if m.preview != "" {
		sections = append(sections, m.preview)
	}

	sections = append(sections, renderDivider(width))
	sections = append(sections, m.renderMenu(width))

	info := PanelStyle.
		Width(width - 4).
		Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(lipgloss.Left, header, info)
}

func (m *RestaurantDetailModel) renderFunding() string {
	r := m.restaurant
	lines := []string{
		LabelStyle.Render("Funding: ") +
			AmountStyle.Render(util.FormatKRW(r.Raised())) +
			HelpDescStyle.Render(" of ") +
			NormalRowStyle.Render(util.FormatKRW(r.FundingGoalAmount)),
		ProgressStyle.Render(util.ProgressBar(r.Percent(), 30)) + " " + util.FormatPercent(r.Percent()),
	}
	line := HelpDescStyle.Render(util.FundingPeriod(r.FundingStartDate, r.FundingEndDate))
	if days := util.DaysLeft(r.FundingEndDate, time.Now()); days >= 0 {
		line += HelpDescStyle.Render(fmt.Sprintf("  ·  %d days left", days))
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func (m *RestaurantDetailModel) renderBackers() string {
	lines := []string{LabelStyle.Render(fmt.Sprintf("Backers (%d)", len(m.backers)))}
	for _, f := range m.backers[:min(recentBackers, len(m.backers))] {
		lines = append(lines, HelpDescStyle.Render(util.MaskEmail(f.MemberID))+"  "+
			AmountStyle.Render(util.FormatKRW(f.TotalAmount))+"  "+
			HelpDescStyle.Render(util.FormatDateHuman(f.CreatedAt)))
	}
	return strings.Join(lines, "\n")
}

func (m *RestaurantDetailModel) renderMenu(width int) string {
	if len(m.menus) == 0 {
		return HelpDescStyle.Render("This restaurant has no menu yet.")
	}

	nameWidth := max(width-44, 16)
	widths := []int{nameWidth, 10, 5, 12}
	lines := []string{
		LabelStyle.Render("Menu"),
		renderTableRow(
			[]string{formatHeaderLabel("item"), formatHeaderLabel("price"), formatHeaderLabel("qty"), formatHeaderLabel("subtotal")},
			widths, TableHeaderStyle),
		renderTableDivider(widths),
	}
	for i, it := range m.menus {
		style := NormalRowStyle
		if i == m.cursor {
			style = SelectedRowStyle
		}
		qty, sub := "", ""
		if q := m.quantities[i]; q > 0 {
			qty = fmt.Sprintf("%d", q)
			sub = util.FormatKRW(it.Price * int64(q))
		}
		cells := []string{util.TruncateString(it.Name, nameWidth), util.FormatKRW(it.Price), qty, sub}
		lines = append(lines, renderTableRow(cells, widths, style))
	}
	lines = append(lines, "", LabelStyle.Render("Basket total: ")+AmountStyle.Render(util.FormatKRW(m.Total())))
	return strings.Join(lines, "\n")
}

// loadRestaurantDetailCmd fetches the restaurant, its menus and its backers
// concurrently. Backers are optional; a failure there only hides the list.
func loadRestaurantDetailCmd(client *api.Client, id int64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var (
			restaurant model.Restaurant
			menus      []model.MenuItem
			backers    []model.FundingRecord
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			restaurant, err = client.Restaurant(gctx, id)
			return err
		})
		g.Go(func() error {
			var err error
			menus, err = client.Menus(gctx, id)
			return err
		})
		g.Go(func() error {
			if list, err := client.RestaurantFundings(gctx, id); err == nil {
				backers = list
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load restaurant: %w", err)}
		}
		return model.RestaurantDetailLoadedMsg{Restaurant: restaurant, Menus: menus, Backers: backers}
	}
}
