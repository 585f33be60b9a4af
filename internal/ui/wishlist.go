package ui

import (
	"context"
	"fmt"
	"time"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/util"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// wishlistLoadedMsg carries the member's saved restaurants.
type wishlistLoadedMsg struct {
	items []model.WishlistItem
	err   error
}

// wishlistStateMsg reports whether the restaurant on the detail screen is
// saved. Sent after the detail loads.
type wishlistStateMsg struct {
	restaurantID int64
	on           bool
}

// WishlistModel lists the restaurants a member saved.
type WishlistModel struct {
	*dataTable[model.WishlistItem]

	err error
}

func NewWishlistModel() *WishlistModel {
	m := &WishlistModel{}
	m.dataTable = newDataTable("wishlist",
		[]tableColumn{
			{key: "name", label: "restaurant", width: 20},
			{key: "category", label: "category", width: 14},
			{key: "address", label: "address", width: 28},
			{key: "progress", label: "progress", width: 18},
			{key: "saved", label: "saved", width: 14},
		},
		wishlistValue, wishlistCell)
	m.empty = "Nothing saved yet. Press w on a restaurant to save it."
	return m
}

func wishlistValue(w model.WishlistItem, key string) string {
	switch key {
	case "name":
		return w.RestaurantName
	case "category":
		return shortCategory(w.CategoryName)
	case "address":
		return w.RoadAddressName
	case "progress":
		return padPercent(w.Percent())
	case "saved":
		return w.CreatedAt
	}
	return ""
}

func wishlistCell(w model.WishlistItem, col tableColumn) string {
	switch col.key {
	case "progress":
		return util.ProgressBar(w.Percent(), 10) + " " + util.FormatPercent(w.Percent())
	case "saved":
		return util.FormatDateHuman(w.CreatedAt)
	}
	return wishlistValue(w, col.key)
}

// Apply shows a loaded list, keeping the rows on a failed reload.
func (m *WishlistModel) Apply(msg wishlistLoadedMsg) {
	m.err = msg.err
	if msg.err == nil {
		m.SetRows(msg.items)
	}
}

// View renders the list.
func (m *WishlistModel) View(width, height int) string {
	top := StatusBarStyle.Render(LabelStyle.Render(fmt.Sprintf("%d saved", m.Len())) +
		HelpDescStyle.Render("  ·  enter open  d remove  r refresh"))
	if m.err != nil && m.Len() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, top, retryPanel("your wishlist", m.err, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, m.dataTable.View(width, height-1, ""))
}

func loadWishlistCmd(client *api.Client, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		items, err := client.Wishlist(ctx)
		return wishlistLoadedMsg{items: items, err: err}
	}
}

// wishlistStateCmd looks up whether the restaurant is saved. A failure only
// hides the marker.
func wishlistStateCmd(client *api.Client, restaurantID int64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		on, err := client.IsWishlisted(ctx, restaurantID)
		if err != nil {
			return nil
		}
		return wishlistStateMsg{restaurantID: restaurantID, on: on}
	}
}

func toggleWishlistCmd(client *api.Client, restaurantID int64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		on, err := client.ToggleWishlist(ctx, restaurantID)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to update wishlist: %w", err)}
		}
		return model.WishlistChangedMsg{RestaurantID: restaurantID, Wishlisted: on}
	}
}

func removeWishlistCmd(client *api.Client, restaurantID int64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := client.RemoveWishlist(ctx, restaurantID); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to remove from wishlist: %w", err)}
		}
		return model.WishlistChangedMsg{RestaurantID: restaurantID, Wishlisted: false}
	}
}
