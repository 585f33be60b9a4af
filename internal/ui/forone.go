package ui

import (
	"fmt"

	"localfund/internal/api"
	"localfund/internal/checkout"
	"localfund/internal/model"
	"localfund/internal/paging"
	"localfund/internal/util"

	"github.com/charmbracelet/lipgloss"
)

// ForOneModel lists the single-serving fundings open around a point.
type ForOneModel struct {
	*dataTable[model.ForOneSlot]

	client *api.Client
	origin api.NearbyQuery
	place  string
	size   int
	pager  *paging.Controller[model.ForOneSlot]
}

// forOneRadius is how far single-serving slots are searched, in meters.
const forOneRadius = 3000

func NewForOneModel(client *api.Client, origin api.NearbyQuery, place string, pageSize int) *ForOneModel {
	origin.Radius = forOneRadius
	m := &ForOneModel{client: client, origin: origin, place: place, size: pageSize}
	m.pager = paging.NewController(client.ForOneSource(origin), pageSize)
	m.dataTable = newDataTable("single servings",
		[]tableColumn{
			{key: "menu", label: "menu", width: 18},
			{key: "restaurant", label: "restaurant", width: 18},
			{key: "price", label: "price", width: 10},
			{key: "discount", label: "off", width: 5},
			{key: "seats", label: "seats", width: 7},
			{key: "distance", label: "distance", width: 9},
			{key: "ends", label: "ends", width: 14},
			{key: "status", label: "status", width: 8},
		},
		forOneValue, forOneCell)
	m.empty = "No single-serving fundings around " + place + " right now."
	return m
}

func forOneValue(s model.ForOneSlot, key string) string {
	switch key {
	case "menu":
		return s.MenuName
	case "restaurant":
		return s.RestaurantName
	case "price":
		return padAmount(s.Price())
	case "discount":
		return fmt.Sprintf("%03d", s.DiscountPercent)
	case "seats":
		return fmt.Sprintf("%04d", s.MaxParticipants-s.CurrentParticipants)
	case "distance":
		return fmt.Sprintf("%08.0f", s.Distance)
	case "ends":
		return s.EndsAt
	case "status":
		return string(s.Status)
	}
	return ""
}

func forOneCell(s model.ForOneSlot, col tableColumn) string {
	switch col.key {
	case "price":
		return util.FormatKRW(s.Price())
	case "discount":
		if s.DiscountPercent == 0 {
			return ""
		}
		return fmt.Sprintf("%d%%", s.DiscountPercent)
	case "seats":
		return fmt.Sprintf("%d/%d", s.CurrentParticipants, s.MaxParticipants)
	case "distance":
		return formatDistance(s.Distance)
	case "ends":
		return util.FormatDateHuman(s.EndsAt)
	case "status":
		if s.Full() {
			return "FULL"
		}
		return string(s.Status)
	}
	return forOneValue(s, col.key)
}

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0fm", meters)
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}

// Restart reloads from the first page.
func (m *ForOneModel) Restart() {
	m.pager = paging.NewController(m.client.ForOneSource(m.origin), m.size)
	m.SetRows(nil)
}

func (m *ForOneModel) refresh() {
	m.SetRows(m.pager.Items())
}

// Order builds the checkout order for joining the selected slot. It returns
// the reason when the slot cannot be joined.
func (m *ForOneModel) Order() (checkout.Order, string) {
	s, ok := m.Selected()
	switch {
	case !ok:
		return checkout.Order{}, ""
	case s.Full():
		return checkout.Order{}, "This slot is full"
	case !s.Joinable():
		return checkout.Order{}, "This slot is " + string(s.Status) + ", not open to join"
	}
	return checkout.Order{
		Kind:       checkout.KindForOne,
		TargetID:   s.RestaurantID,
		TargetName: s.RestaurantName,
		SlotID:     s.SlotID,
		Items:      []model.LineItem{{Name: s.MenuName, Price: s.Price(), Quantity: 1}},
	}, ""
}

// View renders the list.
func (m *ForOneModel) View(width, height int) string {
	top := StatusBarStyle.Render(LabelStyle.Render("Single servings near "+m.place) +
		HelpDescStyle.Render("  ·  enter join  r refresh"))
	if m.pager.Err() != nil && m.pager.Len() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, top, retryPanel("single servings", m.pager.Err(), width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, m.dataTable.View(width, height-1, pagerStatus(m.pager)))
}
