package ui

import (
	"strings"

	"localfund/internal/api"
	"localfund/internal/filter"
	"localfund/internal/model"
	"localfund/internal/paging"
	"localfund/internal/util"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// RestaurantsModel is the trending restaurant listing around a point.
type RestaurantsModel struct {
	*dataTable[model.Restaurant]

	pager  *paging.Controller[model.Restaurant]
	origin api.NearbyQuery
	place  string
	query  filter.RestaurantQuery
	find   textinput.Model
}

// NewRestaurantsModel creates the listing for origin. place names the origin
// in the status line.
func NewRestaurantsModel(client *api.Client, origin api.NearbyQuery, place string, pageSize int) *RestaurantsModel {
	find := textinput.New()
	find.Placeholder = "name, address or category"
	find.Prompt = "find: "
	find.CharLimit = 40

	m := &RestaurantsModel{
		pager:  paging.NewController(client.RestaurantSource(origin), pageSize),
		origin: origin,
		place:  place,
		query:  filter.RestaurantQuery{Sort: filter.SortPercentHigh},
		find:   find,
	}
	m.dataTable = newDataTable("restaurants",
		[]tableColumn{
			{key: "name", label: "name", width: 20},
			{key: "category", label: "category", width: 14},
			{key: "region", label: "region", width: 16},
			{key: "raised", label: "raised", width: 14},
			{key: "goal", label: "goal", width: 14},
			{key: "progress", label: "progress", width: 18},
			{key: "ends", label: "ends", width: 12},
		},
		restaurantValue, restaurantCell)
	m.empty = "No restaurants around " + place + " yet."
	return m
}

func restaurantValue(r model.Restaurant, key string) string {
	switch key {
	case "name":
		return r.Name
	case "category":
		return shortCategory(r.CategoryName)
	case "region":
		return strings.TrimSpace(r.SidoNm + " " + r.SigunguNm)
	case "raised":
		return padAmount(r.Raised())
	case "goal":
		return padAmount(r.FundingGoalAmount)
	case "progress":
		return padPercent(r.Percent())
	case "ends":
		return r.FundingEndDate
	}
	return ""
}

func restaurantCell(r model.Restaurant, col tableColumn) string {
	switch col.key {
	case "raised":
		return util.FormatKRW(r.Raised())
	case "goal":
		if r.FundingGoalAmount <= 0 {
			return "—"
		}
		return util.FormatKRW(r.FundingGoalAmount)
	case "progress":
		return util.ProgressBar(r.Percent(), 8) + " " + util.FormatPercent(r.Percent())
	case "ends":
		if r.FundingEndDate == "" {
			return "—"
		}
		return util.FormatDate(r.FundingEndDate)
	case "region":
		if v := restaurantValue(r, col.key); v != "" {
			return v
		}
		return "—"
	}
	return restaurantValue(r, col.key)
}

// shortCategory keeps the last segment of "음식점 > 한식 > 국밥".
func shortCategory(c string) string {
	if i := strings.LastIndex(c, ">"); i >= 0 {
		return strings.TrimSpace(c[i+1:])
	}
	return strings.TrimSpace(c)
}

// refresh copies the pager's items through the local filter into the table.
func (m *RestaurantsModel) refresh() {
	m.SetRows(filter.ApplyRestaurants(m.pager.Items(), m.query))
}

// CycleSort moves to the next funding sort and clears any column sort.
func (m *RestaurantsModel) CycleSort() string {
	m.query.Sort = m.query.Sort.Next()
	m.clearSort()
	m.refresh()
	return "Order: " + m.query.Sort.Label()
}

// SetText sets the local text filter.
func (m *RestaurantsModel) SetText(text string) {
	m.query.Text = text
	m.refresh()
	m.JumpToTop()
}

// ToggleCategory filters by the category of the selected row, or clears it.
func (m *RestaurantsModel) ToggleCategory() string {
	if m.query.Category != "" {
		m.query.Category = ""
		m.refresh()
		return "Category filter cleared"
	}
	r, ok := m.Selected()
	if !ok {
		return "No restaurant selected"
	}
	m.query.Category = shortCategory(r.CategoryName)
	m.refresh()
	m.JumpToTop()
	return "Category: " + m.query.Category
}

// View renders the listing.
func (m *RestaurantsModel) View(width, height int) string {
	var top []string
	if m.find.Focused() || m.query.Text != "" {
		top = append(top, InputStyle.Width(width-2).Render(m.find.View()))
	}
	if m.pager.Err() != nil && m.pager.Len() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(top, retryPanel("restaurants", m.pager.Err(), width))...)
	}
	if m.pager.Loading() && m.pager.Len() == 0 {
		top = append(top, EmptyStateStyle.Render("Loading restaurants around "+m.place+"…"))
		return lipgloss.JoinVertical(lipgloss.Left, top...)
	}

	var parts []string
	parts = append(parts, "near "+m.place, "order "+m.query.Sort.Label())
	if m.query.Category != "" {
		parts = append(parts, "category "+m.query.Category)
	}
	parts = append(parts, pagerStatus(m.pager))

	table := m.dataTable.View(width, height-blockHeight(top), strings.Join(parts, "  ·  "))
	return lipgloss.JoinVertical(lipgloss.Left, append(top, table)...)
}
