package ui

import (
	"strings"

	"localfund/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// RenderHelp renders context-sensitive help footer.
func RenderHelp(keys KeyMap, formKeys FormKeyMap, screen model.Screen, mode model.Mode, width int) string {
	if mode == model.ModeInsert {
		return renderFormHelp(formKeys, screen, width)
	}

	var items []string
	switch screen {
	case model.ScreenRestaurants:
		items = []string{
			bindingHelp(keys.Down), bindingHelp(keys.Select), bindingHelp(keys.Find),
			bindingHelp(keys.CycleSort), helpKey("t", "category"), helpKey("L", "location"),
			helpKey("K", "search all"), helpKey("F", "single servings"), helpKey("←/→", "tabs"),
		}
	case model.ScreenSpecialties:
		items = []string{
			bindingHelp(keys.Down), bindingHelp(keys.Select), bindingHelp(keys.Find),
			helpKey("p/d", "region"), helpKey("K", "suggested"), helpKey("x", "clear"),
			helpKey("←/→", "tabs"),
		}
	case model.ScreenCommunity:
		items = []string{
			bindingHelp(keys.Down), bindingHelp(keys.Select), bindingHelp(keys.Find),
			helpKey("t", "category"), helpKey("a", "write"), helpKey("←/→", "tabs"),
		}
	case model.ScreenMyPage:
		items = []string{
			bindingHelp(keys.Down), helpKey("[/]", "section"), helpKey("enter", "receipt"),
			helpKey("x", "cancel order"), helpKey("m", "notifications"), helpKey("W", "wishlist"),
			helpKey("E", "edit profile"), helpKey("←/→", "tabs"),
		}
	case model.ScreenRestaurantDetail:
		items = []string{
			bindingHelp(keys.Down), bindingHelp(keys.Increase), bindingHelp(keys.Decrease),
			bindingHelp(keys.Fund), helpKey("w", "wishlist"), bindingHelp(keys.Preview), helpKey("h/esc", "back"),
		}
	case model.ScreenSpecialtyDetail:
		items = []string{
			bindingHelp(keys.Increase), bindingHelp(keys.Decrease), bindingHelp(keys.Fund),
			bindingHelp(keys.Preview), helpKey("h/esc", "back"),
		}
	case model.ScreenPostDetail:
		items = []string{
			bindingHelp(keys.Like), bindingHelp(keys.Comment), helpKey("x", "delete comment"),
			bindingHelp(keys.Edit), bindingHelp(keys.Delete), bindingHelp(keys.Share),
			helpKey("h/esc", "back"),
		}
	case model.ScreenFundingDetail:
		items = []string{helpKey("w", "save receipt"), helpKey("h/esc", "back")}
	case model.ScreenAdminRequests:
		items = []string{
			bindingHelp(keys.Down), helpKey("a", "approve"), helpKey("x", "reject"),
			helpKey("t", "status"), helpKey("h/esc", "back"),
		}
	case model.ScreenNotifications:
		items = []string{
			bindingHelp(keys.Down), helpKey("enter", "mark read"), helpKey("R", "read all"),
			bindingHelp(keys.Delete), helpKey("D", "delete read"), helpKey("h/esc", "back"),
		}
	case model.ScreenWishlist:
		items = []string{
			bindingHelp(keys.Down), helpKey("enter", "open"), helpKey("d", "remove"),
			bindingHelp(keys.Refresh), helpKey("h/esc", "back"),
		}
	case model.ScreenForOne:
		items = []string{
			bindingHelp(keys.Down), helpKey("enter", "join"), bindingHelp(keys.Refresh),
			helpKey("h/esc", "back"),
		}
	case model.ScreenSearchResults:
		items = []string{
			bindingHelp(keys.Down), helpKey("enter", "open"), helpKey("f", "new search"),
			helpKey("]", "related keyword"), helpKey("h/esc", "back"),
		}
	case model.ScreenLocations:
		items = []string{
			bindingHelp(keys.Down), helpKey("enter", "use"), bindingHelp(keys.Find),
			helpKey("e", "rename"), helpKey("d", "delete"), helpKey("x", "reset"), helpKey("h/esc", "back"),
		}
	default:
		items = []string{
			bindingHelp(keys.Down),
			helpKey("h/l", "back/select"),
			bindingHelp(keys.Quit),
		}
	}
	items = append(items, bindingHelp(keys.Help))
	return renderHelpLine(items, width)
}

func renderFormHelp(keys FormKeyMap, screen model.Screen, width int) string {
	var items []string
	switch screen {
	case model.ScreenRestaurants, model.ScreenSpecialties, model.ScreenCommunity:
		items = []string{helpKey("enter", "apply"), helpKey("esc", "clear")}
	case model.ScreenLocations:
		items = []string{helpKey("↑/↓", "results"), helpKey("enter", "use/rename"), helpKey("ctrl+s", "save"), bindingHelp(keys.Cancel)}
	case model.ScreenPostDetail:
		items = []string{helpKey("enter", "post comment"), bindingHelp(keys.Cancel)}
	case model.ScreenSearchResults:
		items = []string{helpKey("enter", "search"), bindingHelp(keys.Cancel)}
	case model.ScreenDeleteAccount:
		items = []string{helpKey("enter", "delete account"), bindingHelp(keys.Cancel)}
	case model.ScreenAdminRequests:
		items = []string{helpKey("enter", "confirm"), bindingHelp(keys.Cancel)}
	case model.ScreenCheckout:
		items = []string{bindingHelp(keys.NextField), bindingHelp(keys.PrevField), bindingHelp(keys.Toggle), bindingHelp(keys.Save), bindingHelp(keys.Cancel)}
	default:
		items = []string{bindingHelp(keys.NextField), bindingHelp(keys.PrevField), bindingHelp(keys.Save), bindingHelp(keys.Cancel)}
	}
	return renderHelpLine(items, width)
}

func bindingHelp(b key.Binding) string {
	h := b.Help()
	return helpKey(h.Key, h.Desc)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(keys KeyMap, width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Navigation (Nav Mode)"),
		helpSection([]helpItem{
			bindingItem(keys.Down, "Move down"),
			bindingItem(keys.Up, "Move up"),
			{"← / →", "Previous / next tab"},
			{"h / b / esc", "Go back"},
			{"l / enter", "Open / select"},
			{"tab / shift+tab", "Cycle active column"},
			{"/ then 1-9", "Jump to column"},
			{"s / S", "Sort active column asc/desc"},
			{"c / C", "Hide active column / show all"},
			{"n / N", "Filter by selected value / clear"},
			{"gg", "Jump to top"},
			bindingItem(keys.Bottom, "Jump to bottom (loads more)"),
			bindingItem(keys.HalfPageDown, "Half page down"),
			bindingItem(keys.HalfPageUp, "Half page up"),
			bindingItem(keys.Refresh, "Reload"),
			{"q", "Quit (from a tab)"},
			bindingItem(keys.Help, "Toggle help"),
		}),
		titleSection("Restaurants"),
		helpSection([]helpItem{
			bindingItem(keys.Find, "Find by name or address"),
			bindingItem(keys.CycleSort, "Order by distance, funding or name"),
			{"t", "Filter by category"},
			{"L", "Pick location"},
			{"K", "Search every restaurant"},
			{"F", "Single-serving fundings nearby"},
			{"p (detail)", "Fund the selected menu items"},
			{"w (detail)", "Save to / remove from wishlist"},
		}),
		titleSection("Specialties"),
		helpSection([]helpItem{
			{"p / d", "Cycle province / district"},
			{"K", "Search the suggested keyword"},
			{"x", "Clear filters"},
			{"p (detail)", "Buy"},
		}),
		titleSection("Community"),
		helpSection([]helpItem{
			{"t", "Cycle category"},
			bindingItem(keys.Add, "Write a post"),
			{"l / m / y (post)", "Like / comment / share"},
			{"e / d (post)", "Edit / delete your post"},
		}),
		titleSection("My Page"),
		helpSection([]helpItem{
			{"[ / ]", "Switch section"},
			{"enter", "Funding receipt"},
			{"x", "Cancel specialty order"},
			{"m", "Notifications"},
			{"L", "Saved locations"},
			{"W", "Wishlist"},
			{"B", "Request a funding page"},
			{"A", "Review requests (admin)"},
			{"E", "Edit profile or password"},
			{"X", "Delete account"},
			{"O", "Log out"},
		}),
		titleSection("Forms (Insert/Edit Mode)"),
		helpSection([]helpItem{
			{"tab", "Next field"},
			{"shift+tab", "Previous field"},
			{"ctrl+s", "Submit"},
			{"esc", "Cancel"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func bindingItem(b key.Binding, desc string) helpItem {
	return helpItem{key: b.Help().Key, desc: desc}
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
