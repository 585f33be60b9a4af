package ui

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"localfund/internal/api"
	"localfund/internal/config"
	"localfund/internal/db"
	"localfund/internal/fixtures"
	"localfund/internal/location"
	"localfund/internal/model"
	"localfund/internal/payment"
	"localfund/internal/search"
	"localfund/internal/session"
	"localfund/internal/share"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

type harness struct {
	client   *api.Client
	store    *session.Store
	selected chan tea.Msg
}

// newTestApp starts a fixture backend and returns a sized root model with
// the three listings loaded.
func newTestApp(t *testing.T) (*harness, Model) {
	t.Helper()

	srv, err := fixtures.New(fixtures.Config{Secret: "test-secret"})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store := session.NewStore(database)
	client := api.New(api.Config{BaseURL: ts.URL, Timeout: testTimeout, MemberTimeout: testTimeout, Session: store})

	h := &harness{client: client, store: store, selected: make(chan tea.Msg, 4)}

	ctx, cancel := context.WithCancel(context.Background())
	bus := location.NewBus(time.Second, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Serve(ctx, ApplySelection(store, func(msg tea.Msg) { h.selected <- msg }))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	cfg := config.DefaultConfig()
	cfg.Backend.Mode = config.ModeFixtures
	cfg.UI.SearchDebounce = "10ms"

	m := New(Deps{
		Config:      cfg,
		Client:      client,
		Session:     store,
		Payments:    payment.NewSandbox(payment.Approve),
		Kakao:       search.NewKakaoClient("test", ts.URL),
		Bus:         bus,
		Sharer:      share.New(nil),
		ReceiptsDir: t.TempDir(),
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	m, _ = settle(t, m, tea.Batch(
		fetchPageCmd(m.restaurants.pager, testTimeout),
		loadSpecialtiesCmd(client, testTimeout),
		fetchPageCmd(m.posts.pager, testTimeout),
	))
	return h, m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends keys in order and returns the command of the last one.
func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

// typeText sends text one rune at a time.
func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// settle runs cmd, feeds every message it produced into m and returns the
// follow-up commands. Commands still running after a second, such as ticks,
// are dropped.
func settle(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	var next []tea.Cmd
	for _, msg := range collect(cmd, time.Second) {
		out, c := m.Update(msg)
		m = out.(Model)
		next = append(next, c)
	}
	return m, tea.Batch(next...)
}

func collect(cmd tea.Cmd, wait time.Duration) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg, ok := run(cmd, wait)
	if !ok {
		return nil
	}
	batch, isBatch := msg.(tea.BatchMsg)
	if !isBatch {
		return []tea.Msg{msg}
	}

	results := make([]chan tea.Msg, len(batch))
	for i, c := range batch {
		results[i] = make(chan tea.Msg, 1)
		if c == nil {
			close(results[i])
			continue
		}
		go func(c tea.Cmd, out chan tea.Msg) {
			out <- c()
		}(c, results[i])
	}

	deadline := time.After(wait)
	var msgs []tea.Msg
	for _, out := range results {
		select {
		case msg, ok := <-out:
			if ok && msg != nil {
				msgs = append(msgs, msg)
			}
		case <-deadline:
			return msgs
		}
	}
	return msgs
}

func run(cmd tea.Cmd, wait time.Duration) (tea.Msg, bool) {
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		return msg, msg != nil
	case <-time.After(wait):
		return nil, false
	}
}

// loginAs logs in through the login command and applies the result.
func loginAs(t *testing.T, h *harness, m Model, email, password string) Model {
	t.Helper()
	msg := loginCmd(h.client, h.store, api.Credentials{Email: email, Password: password}, nil)()
	require.IsType(t, model.LoggedInMsg{}, msg)
	out, cmd := m.Update(msg)
	m, _ = settle(t, out.(Model), cmd)
	return m
}

func TestNew_LoadsListings(t *testing.T) {
	_, m := newTestApp(t)

	assert.Equal(t, model.ScreenRestaurants, m.screen)
	assert.Equal(t, model.ModeNav, m.mode)
	assert.False(t, m.loggedIn)
	assert.Equal(t, "the trending area", m.place)
	assert.Equal(t, 5, m.restaurants.Len())
	assert.Equal(t, 10, m.specialties.Len())
	assert.Equal(t, 10, m.posts.Len())
	assert.True(t, m.posts.pager.HasMore())

	view := m.View()
	assert.Contains(t, view, "Restaurants")
	assert.Contains(t, view, "FIXTURES")
}

func TestTabs_SwitchAndQuit(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "right")
	assert.Equal(t, model.ScreenSpecialties, m.screen)
	m, _ = press(t, m, "right")
	assert.Equal(t, model.ScreenCommunity, m.screen)
	m, _ = press(t, m, "right")
	assert.Equal(t, model.ScreenMyPage, m.screen)
	m, _ = press(t, m, "right")
	assert.Equal(t, model.ScreenRestaurants, m.screen)
	m, _ = press(t, m, "left")
	assert.Equal(t, model.ScreenMyPage, m.screen)

	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHelpToggle(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "?")
	assert.True(t, m.showingHelp)
	assert.Contains(t, m.View(), "Navigation (Nav Mode)")

	// Keys other than esc and ? are swallowed while help is open.
	m, _ = press(t, m, "right")
	assert.Equal(t, model.ScreenRestaurants, m.screen)

	m, _ = press(t, m, "esc")
	assert.False(t, m.showingHelp)
}

func TestColumnControls(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "c")
	assert.Equal(t, "Column hidden", m.info)
	assert.True(t, m.restaurants.columns[0].hidden)
	assert.Contains(t, m.prefs.Restaurants.HiddenColumns, "name")

	m, _ = press(t, m, "C")
	assert.Equal(t, "All columns shown", m.info)
	assert.False(t, m.restaurants.columns[0].hidden)

	m, _ = press(t, m, "/", "3")
	assert.False(t, m.columnJump)
	assert.Equal(t, "Jumped to column 3", m.info)

	m, _ = press(t, m, "/", "9")
	assert.True(t, m.columnJump)
	assert.Equal(t, "Column 9 unavailable", m.info)
	m, _ = press(t, m, "esc")
	assert.False(t, m.columnJump)
}

func TestRestaurants_FindFiltersLocally(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "f")
	assert.Equal(t, model.ModeInsert, m.mode)
	m = typeText(t, m, "비빔")
	require.Equal(t, 1, m.restaurants.Len())
	r, ok := m.restaurants.Selected()
	require.True(t, ok)
	assert.Equal(t, "역삼 비빔밥집", r.Name)

	m, _ = press(t, m, "esc")
	assert.Equal(t, model.ModeNav, m.mode)
	assert.Equal(t, 5, m.restaurants.Len())
}

func TestRestaurantDetail_RequiresLoginToFund(t *testing.T) {
	h, m := newTestApp(t)

	m, _ = settle(t, m, loadRestaurantDetailCmd(h.client, 1, testTimeout))
	require.Equal(t, model.ScreenRestaurantDetail, m.screen)

	m, _ = press(t, m, "p")
	assert.Equal(t, "Add a menu item with + first", m.info)
	assert.Equal(t, model.ScreenRestaurantDetail, m.screen)

	m, _ = press(t, m, "+", "p")
	assert.Equal(t, model.ScreenLogin, m.screen)
	assert.Equal(t, model.ModeInsert, m.mode)

	m, cmd := press(t, m, "esc")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, model.ScreenRestaurantDetail, m.screen)
	assert.Equal(t, model.ModeNav, m.mode)

	m, _ = press(t, m, "b")
	assert.Equal(t, model.ScreenRestaurants, m.screen)
	assert.Nil(t, m.restaurantDetail)
}

func TestRestaurantDetail_OpensCheckout(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")

	m, _ = settle(t, m, loadRestaurantDetailCmd(h.client, 1, testTimeout))
	m, _ = press(t, m, "+", "+", "j", "+", "p")
	require.Equal(t, model.ScreenCheckout, m.screen)
	require.NotNil(t, m.checkout)
	assert.Equal(t, model.ModeInsert, m.mode)

	order := m.checkout.flow.Order()
	require.Len(t, order.Items, 2)
	assert.Equal(t, "순대국밥", order.Items[0].Name)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, "모둠순대", order.Items[1].Name)
	assert.Equal(t, 1, order.Items[1].Quantity)

	m, cmd := press(t, m, "esc")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, model.ScreenRestaurantDetail, m.screen)
	assert.Nil(t, m.checkout)
}

func TestRestaurantDetail_ListsBackers(t *testing.T) {
	h, m := newTestApp(t)

	m, _ = settle(t, m, loadRestaurantDetailCmd(h.client, 1, testTimeout))
	require.NotNil(t, m.restaurantDetail)
	assert.Empty(t, m.restaurantDetail.backers)
	assert.NotContains(t, m.View(), "Backers")

	m = loginAs(t, h, m, "user@localfund.kr", "user1234")
	_, err := h.client.CreateFunding(context.Background(), model.FundingRecord{
		RestaurantID:  1,
		MenuInfo:      "순대국밥 x1",
		TotalAmount:   9000,
		PaymentMethod: "card",
		ImpUID:        "imp_backer",
		MerchantUID:   "merchant_backer",
	})
	require.NoError(t, err)

	m, _ = settle(t, m, loadRestaurantDetailCmd(h.client, 1, testTimeout))
	require.Len(t, m.restaurantDetail.backers, 1)
	view := m.View()
	assert.Contains(t, view, "Backers (1)")
	assert.Contains(t, view, "us**@localfund.kr")
}

func TestLoginFromMyPage(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "left")
	require.Equal(t, model.ScreenMyPage, m.screen)
	assert.Contains(t, m.View(), "Log in")

	m, _ = press(t, m, "enter")
	require.Equal(t, model.ScreenLogin, m.screen)

	m = typeText(t, m, "user@localfund.kr")
	m, _ = press(t, m, "tab")
	m = typeText(t, m, "user1234")
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)

	m, cmd = settle(t, m, cmd)
	assert.True(t, m.loggedIn)
	assert.Equal(t, "user@localfund.kr", m.member.Email)
	assert.Equal(t, model.ScreenMyPage, m.screen)
	assert.Equal(t, model.ModeNav, m.mode)

	m, _ = settle(t, m, cmd)
	require.NotNil(t, m.myPage)
	assert.Equal(t, 1, m.unread)
	assert.Contains(t, m.View(), "1 unread")
}

func TestMyPage_RefreshesProfile(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")

	stale := m.member
	stale.Nickname = "옛닉네임"
	require.NoError(t, h.store.UpdateMember(stale))
	m.member = stale

	m, cmd := press(t, m, "left")
	require.Equal(t, model.ScreenMyPage, m.screen)
	m, cmd = settle(t, m, cmd)
	assert.Equal(t, "동네미식가", m.member.Nickname)
	assert.Equal(t, "동네미식가", m.myPage.member.Nickname)
	assert.Contains(t, m.View(), "동네미식가")

	m, _ = settle(t, m, cmd)
	assert.Empty(t, m.error)
	saved, ok := h.store.Member()
	require.True(t, ok)
	assert.Equal(t, "동네미식가", saved.Nickname)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "left", "enter")
	m = typeText(t, m, "user@localfund.kr")
	m, _ = press(t, m, "tab")
	m = typeText(t, m, "wrong")
	m, cmd := press(t, m, "enter")
	m, _ = settle(t, m, cmd)

	assert.False(t, m.loggedIn)
	assert.Equal(t, model.ScreenLogin, m.screen)
	assert.Equal(t, "invalid email or password", m.error)
}

func TestUnauthorized_RoutesToLogin(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")
	require.True(t, m.loggedIn)

	m = update(t, m, model.UnauthorizedMsg{})
	assert.False(t, m.loggedIn)
	assert.Nil(t, m.myPage)
	assert.Equal(t, model.ScreenLogin, m.screen)
	require.NotNil(t, m.login)
	assert.Contains(t, m.login.notice, "session expired")

	// A second 401 while the form is open is ignored.
	m = update(t, m, model.UnauthorizedMsg{})
	assert.Equal(t, model.ScreenLogin, m.screen)
}

func TestLogout(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")

	m, _ = press(t, m, "left")
	m, cmd := press(t, m, "O")
	m, _ = settle(t, m, cmd)

	assert.False(t, m.loggedIn)
	assert.Equal(t, "Logged out", m.info)
	_, ok := h.store.Member()
	assert.False(t, ok)
}

func TestLocations_SelectSavedAndReset(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")

	m, cmd := press(t, m, "L")
	require.Equal(t, model.ScreenLocations, m.screen)
	m, _ = settle(t, m, cmd)
	require.Len(t, m.locations.saved, 1)
	saved, ok := m.locations.Selected()
	require.True(t, ok)
	assert.Equal(t, "회사", saved.Name)

	m, cmd = press(t, m, "enter")
	m, _ = settle(t, m, cmd)
	want := memberLocationAddress(saved).Address
	assert.Equal(t, "Using "+want, m.info)

	var selected tea.Msg
	select {
	case selected = <-h.selected:
	case <-time.After(testTimeout):
		t.Fatal("opener never applied the selection")
	}
	out, cmd := m.Update(selected)
	m, _ = settle(t, out.(Model), cmd)
	assert.Equal(t, want, m.place)
	assert.Equal(t, want, m.locations.current)
	sel, ok, err := h.store.SelectedLocation()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), sel.LocationID)

	m, cmd = press(t, m, "x")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, "the trending area", m.place)
	_, ok, err = h.store.SelectedLocation()
	require.NoError(t, err)
	assert.False(t, ok)

	m, _ = press(t, m, "b")
	assert.Equal(t, model.ScreenRestaurants, m.screen)
}

func TestLocations_RenameSaved(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")

	m, cmd := press(t, m, "L")
	m, _ = settle(t, m, cmd)
	require.Len(t, m.locations.saved, 1)

	m, _ = press(t, m, "e")
	require.Equal(t, model.ModeInsert, m.mode)
	assert.Contains(t, m.View(), "enter save")
	for range []rune("회사") {
		m, _ = press(t, m, "backspace")
	}
	m = typeText(t, m, "본사")
	m, cmd = press(t, m, "enter")
	assert.Equal(t, model.ModeNav, m.mode)
	require.NotNil(t, cmd)
	m, _ = settle(t, m, cmd)
	assert.Empty(t, m.error)
	saved, ok := m.locations.Selected()
	require.True(t, ok)
	assert.Equal(t, "본사", saved.Name)

	locs, err := h.client.Locations(context.Background())
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "본사", locs[0].Name)

	m, cmd = press(t, m, "e", "esc")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, model.ModeNav, m.mode)
	assert.Equal(t, model.ScreenLocations, m.screen)
}

func TestView_RendersEveryTab(t *testing.T) {
	_, m := newTestApp(t)
	for range tabs {
		view := m.View()
		assert.NotEmpty(t, strings.TrimSpace(view))
		m, _ = press(t, m, "right")
	}
}
