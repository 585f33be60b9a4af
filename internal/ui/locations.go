package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"localfund/internal/api"
	"localfund/internal/location"
	"localfund/internal/model"
	"localfund/internal/search"
	"localfund/internal/session"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// locationSentMsg is sent when the opener acknowledged a picked address.
type locationSentMsg struct {
	address string
}

// locationClearedMsg is sent when the selection was reset to the default
// trending point.
type locationClearedMsg struct{}

// ApplySelection returns the opener side of the location bus: it stores the
// address as the selected location and notifies the UI.
func ApplySelection(store *session.Store, notify func(tea.Msg)) func(location.Address) error {
	return func(a location.Address) error {
		sel := model.SelectedLocation{
			LocationID: a.LocationID,
			Address:    a.Address,
			Lat:        a.Lat,
			Lng:        a.Lng,
			SelectedAt: time.Now(),
		}
		if err := store.SetSelectedLocation(sel); err != nil {
			return err
		}
		if notify != nil {
			notify(model.LocationSelectedMsg{Selected: sel})
		}
		return nil
	}
}

// LocationsModel picks the address used for nearby restaurants, from the
// member's saved locations or a Kakao search.
type LocationsModel struct {
	saved    []model.MemberLocation
	cursor   int
	current  string
	loaded   bool
	query    textinput.Model
	search   placeSearch
	editing  bool
	loggedIn bool

	rename   textinput.Model
	renaming bool
}

func NewLocationsModel(kakao *search.KakaoClient, debounce time.Duration, lat, lng float64, current string, loggedIn bool) *LocationsModel {
	q := textinput.New()
	q.Placeholder = "Search an address or place (e.g. 강남역)"
	q.Prompt = "search: "
	q.CharLimit = 80

	rename := textinput.New()
	rename.Prompt = "name: "
	rename.CharLimit = 20
	return &LocationsModel{
		current:  current,
		query:    q,
		rename:   rename,
		search:   newPlaceSearch(kakao, debounce, lat, lng),
		loggedIn: loggedIn,
	}
}

// SetSaved replaces the saved locations.
func (m *LocationsModel) SetSaved(locs []model.MemberLocation) {
	m.saved = locs
	m.loaded = true
	if m.cursor >= len(locs) {
		m.cursor = max(len(locs)-1, 0)
	}
}

func (m *LocationsModel) MoveDown() {
	if m.cursor < len(m.saved)-1 {
		m.cursor++
	}
}

func (m *LocationsModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

// Selected returns the saved location under the cursor.
func (m *LocationsModel) Selected() (model.MemberLocation, bool) {
	if len(m.saved) == 0 {
		return model.MemberLocation{}, false
	}
	return m.saved[m.cursor], true
}

// StartSearch focuses the search input.
func (m *LocationsModel) StartSearch() {
	m.editing = true
	m.query.Focus()
}

func (m *LocationsModel) stopSearch() {
	m.editing = false
	m.query.Blur()
	m.search.close()
}

// StartRename edits the name of the saved location under the cursor.
func (m *LocationsModel) StartRename() bool {
	saved, ok := m.Selected()
	if !ok {
		return false
	}
	m.renaming = true
	m.rename.SetValue(saved.Name)
	m.rename.CursorEnd()
	m.rename.Focus()
	return true
}

func (m *LocationsModel) stopRename() {
	m.renaming = false
	m.rename.Blur()
}

// Typing reports whether one of the inputs holds the keyboard.
func (m *LocationsModel) Typing() bool {
	return m.editing || m.renaming
}

// memberLocationAddress converts a saved location for the bus.
func memberLocationAddress(l model.MemberLocation) location.Address {
	addr := l.RoadAddress
	if addr == "" {
		addr = l.Address
	}
	return location.Address{
		Address:     addr,
		RoadAddress: l.RoadAddress,
		Lat:         l.Lat,
		Lng:         l.Lng,
		PlaceID:     l.KakaoPlaceID,
		LocationID:  l.ID,
	}
}

func placeAddress(p search.Place) location.Address {
	return location.Address{
		Address:     p.Label(),
		RoadAddress: p.RoadAddress,
		Lat:         p.Lat,
		Lng:         p.Lng,
		PlaceID:     p.PlaceID,
	}
}

func placeLocation(p search.Place) model.MemberLocation {
	name := p.Name
	if name == "" {
		name = p.Label()
	}
	return model.MemberLocation{
		Name:         name,
		Lat:          p.Lat,
		Lng:          p.Lng,
		Address:      p.Address,
		RoadAddress:  p.RoadAddress,
		KakaoPlaceID: p.PlaceID,
	}
}

// Update handles the search input.
func (m LocationsModel) Update(msg tea.Msg, client *api.Client, bus *location.Bus, timeout time.Duration) (LocationsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case debounceTick:
		return m, m.search.tick(msg, strings.TrimSpace(m.query.Value()))
	case autocompleteResultMsg:
		m.search.result(msg)
		return m, nil
	case spinner.TickMsg:
		return m, m.search.updateSpinner(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.renaming {
		return m.updateRename(keyMsg, client, timeout)
	}

	switch keyMsg.String() {
	case "esc":
		if m.search.showDropdown {
			m.search.close()
			return m, nil
		}
		m.stopSearch()
		return m, func() tea.Msg { return model.FormCancelledMsg{} }
	case "down", "ctrl+j":
		m.search.moveDown()
		return m, nil
	case "up", "ctrl+k":
		m.search.moveUp()
		return m, nil
	case "enter":
		p, ok := m.search.selected()
		if !ok {
			return m, nil
		}
		m.stopSearch()
		return m, selectLocationCmd(bus, placeAddress(p), timeout)
	case "ctrl+s":
		p, ok := m.search.selected()
		if !ok {
			return m, nil
		}
		if !m.loggedIn {
			return m, func() tea.Msg { return model.InfoMsg{Text: "Log in to save locations"} }
		}
		m.stopSearch()
		return m, saveLocationCmd(client, placeLocation(p), timeout)
	}

	before := m.query.Value()
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(keyMsg)
	cmds := []tea.Cmd{cmd}
	if m.query.Value() != before {
		cmds = append(cmds, m.search.changed(m.query.Value()))
	}
	return m, tea.Batch(cmds...)
}

func (m LocationsModel) updateRename(msg tea.KeyMsg, client *api.Client, timeout time.Duration) (LocationsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopRename()
		return m, func() tea.Msg { return model.FormCancelledMsg{} }
	case "enter":
		name := strings.TrimSpace(m.rename.Value())
		if name == "" {
			return m, func() tea.Msg { return model.InfoMsg{Text: "Name cannot be empty"} }
		}
		saved, ok := m.Selected()
		m.stopRename()
		if !ok || name == saved.Name {
			return m, nil
		}
		saved.Name = name
		return m, renameLocationCmd(client, saved, timeout)
	}
	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return m, cmd
}

// View renders the picker.
func (m *LocationsModel) View(width, height int) string {
	current := m.current
	if current == "" {
		current = "default trending area"
	}
	header := renderShortcuts("f search  enter use  e rename  d delete  x reset  b back", width)

	sections := []string{
		LabelStyle.Render("Current: ") + NormalRowStyle.Render(current),
	}

	searchBlock := InputStyle.Width(max(width-12, 20)).Render(m.query.View())
	if m.editing {
		if s := m.search.view(width - 12); s != "" {
			searchBlock = lipgloss.JoinVertical(lipgloss.Left, searchBlock, s)
		}
		searchBlock = lipgloss.JoinVertical(lipgloss.Left, searchBlock,
			HelpDescStyle.Render("↑/↓ move  enter use  ctrl+s save to my locations  esc close"))
	}
	sections = append(sections, searchBlock)

	sections = append(sections, renderDivider(width), m.renderSaved())
	if m.renaming {
		sections = append(sections, InputStyle.Width(max(width-12, 20)).Render(m.rename.View()),
			HelpDescStyle.Render("enter save  esc cancel"))
	}

	info := PanelStyle.
		Width(width - 4).
		Render(strings.Join(sections, "\n\n"))
	return lipgloss.JoinVertical(lipgloss.Left, header, info)
}

func (m *LocationsModel) renderSaved() string {
	title := LabelStyle.Render("My locations")
	switch {
	case !m.loggedIn:
		return title + "\n" + HelpDescStyle.Render("Log in to keep a list of saved locations.")
	case !m.loaded:
		return title + "\n" + HelpDescStyle.Render("Loading…")
	case len(m.saved) == 0:
		return title + "\n" + HelpDescStyle.Render("No saved locations. Search and press ctrl+s to save one.")
	}
	lines := []string{title}
	for i, l := range m.saved {
		addr := l.RoadAddress
		if addr == "" {
			addr = l.Address
		}
		style := NormalRowStyle
		if i == m.cursor && !m.editing {
			style = SelectedRowStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%-10s %s", l.Name, addr)))
	}
	return strings.Join(lines, "\n")
}

// selectLocationCmd hands addr to the opener and waits for its ack.
func selectLocationCmd(bus *location.Bus, addr location.Address, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := bus.Send(ctx, addr); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to select location: %w", err)}
		}
		return locationSentMsg{address: addr.Address}
	}
}

func clearLocationCmd(store *session.Store) tea.Cmd {
	return func() tea.Msg {
		if err := store.ClearSelectedLocation(); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to reset location: %w", err)}
		}
		return locationClearedMsg{}
	}
}

func loadLocationsCmd(client *api.Client, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		locs, err := client.Locations(ctx)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load locations: %w", err)}
		}
		return model.LocationsLoadedMsg{Locations: locs}
	}
}

func saveLocationCmd(client *api.Client, loc model.MemberLocation, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := client.CreateLocation(ctx, loc); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to save location: %w", err)}
		}
		locs, err := client.Locations(ctx)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load locations: %w", err)}
		}
		return model.LocationsLoadedMsg{Locations: locs}
	}
}

// renameLocationCmd stores the new name of a saved location and reloads the list.
func renameLocationCmd(client *api.Client, loc model.MemberLocation, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := client.UpdateLocation(ctx, loc); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to rename location: %w", err)}
		}
		locs, err := client.Locations(ctx)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load locations: %w", err)}
		}
		return model.LocationsLoadedMsg{Locations: locs}
	}
}

func deleteLocationCmd(client *api.Client, id int64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := client.DeleteLocation(ctx, id); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to delete location: %w", err)}
		}
		locs, err := client.Locations(ctx)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load locations: %w", err)}
		}
		return model.LocationsLoadedMsg{Locations: locs}
	}
}
