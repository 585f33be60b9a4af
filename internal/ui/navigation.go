package ui

import (
	"context"
	"time"

	"localfund/internal/checkout"
	"localfund/internal/model"
	"localfund/internal/share"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// handleNavMode handles navigation mode input.
func (m Model) handleNavMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if t := m.currentTable(); t != nil {
		switch msg.String() {
		case "tab":
			t.NextColumn()
			m.persistCurrentTablePrefs()
			return m, nil
		case "shift+tab":
			t.PrevColumn()
			m.persistCurrentTablePrefs()
			return m, nil
		case "/":
			m.columnJump = true
			m.info = "Jump to column: press 1-9 (esc to cancel)"
			return m, nil
		case "s":
			t.SortActiveColumn(false)
			m.info = "Sorted ascending"
			m.persistCurrentTablePrefs()
			return m, nil
		case "S":
			t.SortActiveColumn(true)
			m.info = "Sorted descending"
			m.persistCurrentTablePrefs()
			return m, nil
		case "c":
			if t.HideActiveColumn() {
				m.info = "Column hidden"
				m.persistCurrentTablePrefs()
			} else {
				m.info = "Cannot hide last visible column"
			}
			return m, nil
		case "C":
			t.ShowAllColumns()
			m.info = "All columns shown"
			m.persistCurrentTablePrefs()
			return m, nil
		case "n":
			if t.FilterBySelectedValue() {
				m.info = "Filter applied from selected value"
				m.persistCurrentTablePrefs()
			} else {
				m.info = "No filterable value in selected cell"
			}
			return m, nil
		case "N":
			if t.ClearFilter() {
				m.info = "Filter cleared"
				m.persistCurrentTablePrefs()
			}
			return m, nil
		}
	}

	// Handle "gg" state machine
	if msg.String() == "g" {
		if m.gState == GStateIdle {
			m.gState = GStateFirstG
			return m, nil
		}
		m.gState = GStateIdle
		if t := m.currentTable(); t != nil {
			t.JumpToTop()
		}
		return m, nil
	}
	m.gState = GStateIdle

	if isTab(m.screen) {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Left):
			return m, m.switchTab(neighbourTab(m.screen, -1))
		case key.Matches(msg, m.keys.Right):
			return m, m.switchTab(neighbourTab(m.screen, 1))
		}
	}

	switch m.screen {
	case model.ScreenRestaurants:
		return m.handleRestaurantsNav(msg)
	case model.ScreenSpecialties:
		return m.handleSpecialtiesNav(msg)
	case model.ScreenCommunity:
		return m.handleCommunityNav(msg)
	case model.ScreenMyPage:
		return m.handleMyPageNav(msg)
	case model.ScreenRestaurantDetail:
		return m.handleRestaurantDetailNav(msg)
	case model.ScreenSpecialtyDetail:
		return m.handleSpecialtyDetailNav(msg)
	case model.ScreenPostDetail:
		return m.handlePostDetailNav(msg)
	case model.ScreenFundingDetail:
		return m.handleFundingDetailNav(msg)
	case model.ScreenAdminRequests:
		return m.handleAdminRequestsNav(msg)
	case model.ScreenNotifications:
		return m.handleNotificationsNav(msg)
	case model.ScreenLocations:
		return m.handleLocationsNav(msg)
	case model.ScreenWishlist:
		return m.handleWishlistNav(msg)
	case model.ScreenForOne:
		return m.handleForOneNav(msg)
	case model.ScreenSearchResults:
		return m.handleSearchResultsNav(msg)
	}

	if m.isBack(msg) {
		m.back()
	}
	return m, nil
}

func (m *Model) isBack(msg tea.KeyMsg) bool {
	return key.Matches(msg, m.keys.Back) || msg.String() == "h"
}

// moveCursor applies the cursor keys shared by list screens and loads the
// next page once the cursor reaches the end. It reports whether msg was a
// cursor key.
func (m *Model) moveCursor(t listTable, msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		t.MoveDown()
	case key.Matches(msg, m.keys.Up):
		t.MoveUp()
		return true, nil
	case key.Matches(msg, m.keys.Bottom):
		t.JumpToBottom()
	case key.Matches(msg, m.keys.HalfPageDown):
		t.HalfPageDown(m.height / 2)
	case key.Matches(msg, m.keys.HalfPageUp):
		t.HalfPageUp(m.height / 2)
		return true, nil
	default:
		return false, nil
	}
	if t.AtEnd() {
		return true, m.loadMore()
	}
	return true, nil
}

// loadMore fetches the next page of the current listing.
func (m *Model) loadMore() tea.Cmd {
	switch m.screen {
	case model.ScreenRestaurants:
		return fetchPageCmd(m.restaurants.pager, m.timeout)
	case model.ScreenSpecialties:
		m.specialties.LoadMore()
	case model.ScreenCommunity:
		return fetchPageCmd(m.posts.pager, m.timeout)
	case model.ScreenAdminRequests:
		return fetchPageCmd(m.adminRequests.pager, m.timeout)
	case model.ScreenNotifications:
		return fetchPageCmd(m.notifications.pager, m.timeout)
	case model.ScreenForOne:
		return fetchPageCmd(m.forOne.pager, m.timeout)
	case model.ScreenSearchResults:
		if m.searchResults.pager != nil {
			return fetchPageCmd(m.searchResults.pager, m.timeout)
		}
	}
	return nil
}

// startFind focuses the find input of a list screen.
func (m *Model) startFind(find *textinput.Model) tea.Cmd {
	m.mode = model.ModeInsert
	return find.Focus()
}

func (m Model) handleRestaurantsNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if ok, cmd := m.moveCursor(m.restaurants, msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Select) || msg.String() == "l":
		if r, ok := m.restaurants.Selected(); ok {
			return m, loadRestaurantDetailCmd(m.client, r.ID, m.timeout)
		}
	case key.Matches(msg, m.keys.Find):
		return m, m.startFind(&m.restaurants.find)
	case key.Matches(msg, m.keys.CycleSort):
		m.info = m.restaurants.CycleSort()
		m.persistCurrentTablePrefs()
	case msg.String() == "t":
		m.info = m.restaurants.ToggleCategory()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.resetRestaurants()
	case msg.String() == "L":
		return m, m.openLocations()
	case msg.String() == "F":
		origin, place := m.origin()
		m.forOne = NewForOneModel(m.client, origin, place, m.cfg.Paging.RestaurantSize)
		m.forOne.ApplyPrefs(m.prefs.ForOne)
		m.open(model.ScreenForOne)
		return m, fetchPageCmd(m.forOne.pager, m.timeout)
	case msg.String() == "K":
		m.searchResults = NewSearchResultsModel(m.client, m.cfg.Paging.RestaurantSize)
		m.searchResults.ApplyPrefs(m.prefs.SearchResults)
		m.open(model.ScreenSearchResults)
		m.mode = model.ModeInsert
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) handleSpecialtiesNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if ok, cmd := m.moveCursor(m.specialties, msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Select) || msg.String() == "l":
		if s, ok := m.specialties.Selected(); ok {
			return m, loadSpecialtyDetailCmd(m.client, s.ID, m.timeout)
		}
	case key.Matches(msg, m.keys.Find):
		return m, m.startFind(&m.specialties.find)
	case key.Matches(msg, m.keys.CycleSort):
		m.info = m.specialties.CycleSort()
		m.persistCurrentTablePrefs()
	case msg.String() == "p":
		m.info = m.specialties.CycleSido()
	case msg.String() == "d":
		m.info = m.specialties.CycleSigungu()
	case msg.String() == "K":
		if info := m.specialties.UseKeyword(); info != "" {
			m.info = info
		}
	case msg.String() == "x":
		m.specialties.ResetFilters()
		m.info = "Filters cleared"
	case key.Matches(msg, m.keys.Refresh):
		return m, refreshSpecialtiesCmd(m.client, m.specialties.query, m.timeout)
	}
	return m, nil
}

func (m Model) handleCommunityNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if ok, cmd := m.moveCursor(m.posts, msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Select) || msg.String() == "l":
		if p, ok := m.posts.Selected(); ok {
			return m, loadPostCmd(m.client, p.ID, m.timeout)
		}
	case key.Matches(msg, m.keys.Find):
		return m, m.startFind(&m.posts.find)
	case msg.String() == "t":
		m.info = m.posts.CycleCategory()
		return m, fetchPageCmd(m.posts.pager, m.timeout)
	case key.Matches(msg, m.keys.Add):
		if !m.loggedIn {
			m.requireLogin("Log in to write a post.")
			return m, nil
		}
		m.postForm = NewPostFormModel(m.client, m.member, m.timeout)
		m.open(model.ScreenPostForm)
		m.mode = model.ModeInsert
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Refresh):
		m.posts.restart()
		return m, fetchPageCmd(m.posts.pager, m.timeout)
	}
	return m, nil
}

func (m Model) handleMyPageNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.myPage == nil {
		if key.Matches(msg, m.keys.Select) {
			m.requireLogin("")
			return m, textinput.Blink
		}
		return m, nil
	}
	if ok, cmd := m.moveCursor(m.myPage.table(), msg); ok {
		return m, cmd
	}

	switch msg.String() {
	case "]":
		m.myPage.NextSection()
	case "[":
		m.myPage.PrevSection()
	case "enter":
		if f, ok := m.myPage.SelectedFunding(); ok {
			m.fundingDetail = NewFundingDetailModel(f)
			m.open(model.ScreenFundingDetail)
		}
	case "x":
		o, ok := m.myPage.SelectedOrder()
		if !ok {
			return m, nil
		}
		if !orderCancellable(o) {
			m.info = "Order is already " + string(o.Status)
			return m, nil
		}
		return m, cancelOrderCmd(m.client, o, m.timeout)
	case "m":
		m.notifications = NewNotificationsModel(m.client, m.member.Email, m.cfg.Paging.AdminSize)
		m.notifications.ApplyPrefs(m.prefs.Notifications)
		m.notifications.unread = m.unread
		m.open(model.ScreenNotifications)
		return m, tea.Batch(
			fetchPageCmd(m.notifications.pager, m.timeout),
			loadUnreadCountCmd(m.client, m.member.Email, m.timeout),
		)
	case "L":
		return m, m.openLocations()
	case "B":
		origin, _ := m.origin()
		m.businessForm = NewBusinessFormModel(m.client, m.deps.Kakao, m.member,
			m.cfg.SearchDebounce(), m.timeout, origin.Lat, origin.Lng)
		m.open(model.ScreenBusinessRequestForm)
		m.mode = model.ModeInsert
		return m, textinput.Blink
	case "A":
		if !m.member.IsAdmin() {
			m.error = "Only admins can review business requests"
			return m, nil
		}
		m.adminRequests = NewAdminRequestsModel(m.client, m.cfg.Paging.AdminSize)
		m.adminRequests.ApplyPrefs(m.prefs.Requests)
		m.open(model.ScreenAdminRequests)
		return m, tea.Batch(
			fetchPageCmd(m.adminRequests.pager, m.timeout),
			loadPendingCountCmd(m.client, m.timeout),
		)
	case "W":
		m.wishlist = NewWishlistModel()
		m.wishlist.ApplyPrefs(m.prefs.Wishlist)
		m.open(model.ScreenWishlist)
		return m, loadWishlistCmd(m.client, m.timeout)
	case "E":
		m.profileEdit = NewProfileEditModel(m.member)
		m.open(model.ScreenProfileEdit)
		m.mode = model.ModeInsert
		return m, textinput.Blink
	case "X":
		m.deleteAccount = NewDeleteAccountModel(m.member)
		m.open(model.ScreenDeleteAccount)
		m.mode = model.ModeInsert
		return m, textinput.Blink
	case "O":
		return m, logoutCmd(m.client, m.deps.Session)
	case "r":
		return m, loadMyPageCmd(m.client, m.member, m.timeout)
	}
	return m, nil
}

// openLocations opens the location picker.
func (m *Model) openLocations() tea.Cmd {
	origin, _ := m.origin()
	current := ""
	if sel, ok, err := m.deps.Session.SelectedLocation(); err == nil && ok {
		current = sel.Address
	}
	m.locations = NewLocationsModel(m.deps.Kakao, m.cfg.SearchDebounce(), origin.Lat, origin.Lng, current, m.loggedIn)
	m.open(model.ScreenLocations)
	if m.loggedIn {
		return loadLocationsCmd(m.client, m.timeout)
	}
	return nil
}

// startCheckout opens the checkout form for order. Paying needs a session.
func (m *Model) startCheckout(order checkout.Order) tea.Cmd {
	if !m.loggedIn {
		m.requireLogin("Log in to continue to payment.")
		return textinput.Blink
	}
	flow := checkout.NewFlow(order, checkout.Deps{
		Provider: m.deps.Payments,
		Recorder: m.client,
		Journal:  m.deps.Journal,
		Logger:   m.log,
		Member:   m.member,

		RecordTimeout: m.cfg.BackendTimeout(),
	})
	m.checkout = NewCheckoutModel(flow, m.member, m.cfg.PaymentTimeout())
	m.open(model.ScreenCheckout)
	m.mode = model.ModeInsert
	return textinput.Blink
}

func (m Model) handleRestaurantDetailNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.restaurantDetail
	if d == nil || m.isBack(msg) {
		m.restaurantDetail = nil
		m.back()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		d.MoveDown()
	case key.Matches(msg, m.keys.Up):
		d.MoveUp()
	case key.Matches(msg, m.keys.Increase):
		d.Increase()
	case key.Matches(msg, m.keys.Decrease):
		d.Decrease()
	case key.Matches(msg, m.keys.Fund):
		basket := d.Basket()
		if len(basket) == 0 {
			m.info = "Add a menu item with + first"
			return m, nil
		}
		return m, m.startCheckout(checkout.Order{
			Kind:       checkout.KindFunding,
			TargetID:   d.restaurant.ID,
			TargetName: d.restaurant.Name,
			Items:      basket,
			SidoNm:     d.restaurant.SidoNm,
			SigunguNm:  d.restaurant.SigunguNm,
		})
	case key.Matches(msg, m.keys.Preview):
		if d.restaurant.ImageURL == "" {
			m.info = "No photo for this restaurant"
			return m, nil
		}
		return m, m.deps.Previewer.PreviewCmd(d.restaurant.ImageURL)
	case msg.String() == "w":
		if !m.loggedIn {
			m.requireLogin("Log in to save restaurants.")
			return m, textinput.Blink
		}
		return m, toggleWishlistCmd(m.client, d.restaurant.ID, m.timeout)
	case key.Matches(msg, m.keys.Refresh):
		return m, loadRestaurantDetailCmd(m.client, d.restaurant.ID, m.timeout)
	}
	return m, nil
}

func (m Model) handleSpecialtyDetailNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.specialtyDetail
	if d == nil || m.isBack(msg) {
		m.specialtyDetail = nil
		m.back()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Increase):
		d.Increase()
	case key.Matches(msg, m.keys.Decrease):
		d.Decrease()
	case key.Matches(msg, m.keys.Fund):
		s := d.specialty
		return m, m.startCheckout(checkout.Order{
			Kind:       checkout.KindSpecialty,
			TargetID:   s.ID,
			TargetName: s.Title,
			Quantity:   d.quantity,
			UnitPrice:  s.Price,
			SidoNm:     s.SidoNm,
			SigunguNm:  s.SigunguNm,
		})
	case key.Matches(msg, m.keys.Preview):
		if d.specialty.ImgURL == "" {
			m.info = "No photo for this product"
			return m, nil
		}
		return m, m.deps.Previewer.PreviewCmd(d.specialty.ImgURL)
	}
	return m, nil
}

func (m Model) handlePostDetailNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.postDetail
	if d == nil || m.isBack(msg) {
		m.postDetail = nil
		m.back()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		d.MoveDown()
	case key.Matches(msg, m.keys.Up):
		d.MoveUp()
	case key.Matches(msg, m.keys.Like):
		if !m.loggedIn {
			m.requireLogin("Log in to like posts.")
			return m, textinput.Blink
		}
		if d.BeginLike() {
			return m, toggleLikeCmd(m.client, d.post.ID, m.timeout)
		}
	case key.Matches(msg, m.keys.Comment):
		if !m.loggedIn {
			m.requireLogin("Log in to comment.")
			return m, textinput.Blink
		}
		d.StartComment()
		m.mode = model.ModeInsert
		return m, textinput.Blink
	case msg.String() == "x":
		c, ok := d.SelectedComment()
		if !ok {
			return m, nil
		}
		if !canModify(m.member, c.AuthorEmail) {
			m.error = "You can only delete your own comments"
			return m, nil
		}
		return m, deleteCommentCmd(m.client, d.post.ID, c.ID, m.member.Email, m.timeout)
	case key.Matches(msg, m.keys.Edit):
		if !canModify(m.member, d.post.AuthorEmail) {
			m.error = "You can only edit your own posts"
			return m, nil
		}
		m.postForm = NewPostFormModel(m.client, m.member, m.timeout)
		m.postForm.LoadPost(d.post)
		m.open(model.ScreenPostForm)
		m.mode = model.ModeInsert
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Delete):
		if !canModify(m.member, d.post.AuthorEmail) {
			m.error = "You can only delete your own posts"
			return m, nil
		}
		return m, deletePostCmd(m.client, d.post.ID, m.timeout)
	case key.Matches(msg, m.keys.Share):
		_, banner := m.deps.Sharer.Share(share.PostURL(m.cfg.UI.ShareBaseURL, d.post.ID))
		m.info = banner
	case key.Matches(msg, m.keys.Refresh):
		return m, loadPostCmd(m.client, d.post.ID, m.timeout)
	}
	return m, nil
}

func (m Model) handleFundingDetailNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.fundingDetail == nil || m.isBack(msg) {
		m.fundingDetail = nil
		m.back()
		return m, nil
	}
	if msg.String() == "w" {
		return m, writeReceiptCmd(m.deps.ReceiptsDir, m.fundingDetail.funding)
	}
	return m, nil
}

func (m Model) handleAdminRequestsNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := m.adminRequests
	if a == nil || m.isBack(msg) {
		m.adminRequests = nil
		m.back()
		return m, nil
	}
	if ok, cmd := m.moveCursor(a, msg); ok {
		return m, cmd
	}

	switch {
	case msg.String() == "a" || msg.String() == "x":
		decision := model.RequestApproved
		if msg.String() == "x" {
			decision = model.RequestRejected
		}
		if err := a.StartReview(decision); err != nil {
			m.error = err.Error()
			return m, nil
		}
		m.error = ""
		m.mode = model.ModeInsert
		return m, textinput.Blink
	case msg.String() == "t":
		m.info = a.CycleStatus()
		return m, fetchPageCmd(a.pager, m.timeout)
	case key.Matches(msg, m.keys.Refresh):
		a.Restart()
		return m, tea.Batch(fetchPageCmd(a.pager, m.timeout), loadPendingCountCmd(m.client, m.timeout))
	}
	return m, nil
}

func (m Model) handleNotificationsNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.notifications
	if n == nil || m.isBack(msg) {
		m.notifications = nil
		m.back()
		return m, nil
	}
	if ok, cmd := m.moveCursor(n, msg); ok {
		return m, cmd
	}

	client, email := m.client, m.member.Email
	switch msg.String() {
	case "enter":
		sel, ok := n.Selected()
		if !ok || sel.Read {
			return m, nil
		}
		return m, notificationCmd(m.timeout, "mark notification read", "Marked as read", func(ctx context.Context) error {
			return client.MarkNotificationRead(ctx, sel.ID)
		})
	case "R":
		return m, notificationCmd(m.timeout, "mark notifications read", "All notifications marked as read", func(ctx context.Context) error {
			return client.MarkAllNotificationsRead(ctx, email)
		})
	case "d":
		sel, ok := n.Selected()
		if !ok {
			return m, nil
		}
		return m, notificationCmd(m.timeout, "delete notification", "Notification deleted", func(ctx context.Context) error {
			return client.DeleteNotification(ctx, sel.ID)
		})
	case "D":
		return m, notificationCmd(m.timeout, "delete read notifications", "Read notifications deleted", func(ctx context.Context) error {
			return client.DeleteReadNotifications(ctx, email)
		})
	case "r":
		n.Restart()
		return m, tea.Batch(fetchPageCmd(n.pager, m.timeout), loadUnreadCountCmd(client, email, m.timeout))
	}
	return m, nil
}

func (m Model) handleWishlistNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w := m.wishlist
	if w == nil || m.isBack(msg) {
		m.wishlist = nil
		m.back()
		return m, nil
	}
	if ok, cmd := m.moveCursor(w, msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Select) || msg.String() == "l":
		if sel, ok := w.Selected(); ok {
			return m, loadRestaurantDetailCmd(m.client, sel.RestaurantID, m.timeout)
		}
	case key.Matches(msg, m.keys.Delete):
		if sel, ok := w.Selected(); ok {
			return m, removeWishlistCmd(m.client, sel.RestaurantID, m.timeout)
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, loadWishlistCmd(m.client, m.timeout)
	}
	return m, nil
}

func (m Model) handleForOneNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.forOne
	if f == nil || m.isBack(msg) {
		m.forOne = nil
		m.back()
		return m, nil
	}
	if ok, cmd := m.moveCursor(f, msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Select):
		order, reason := f.Order()
		if reason != "" {
			m.info = reason
			return m, nil
		}
		if order.SlotID == 0 {
			return m, nil
		}
		return m, m.startCheckout(order)
	case key.Matches(msg, m.keys.Refresh):
		f.Restart()
		return m, fetchPageCmd(f.pager, m.timeout)
	}
	return m, nil
}

func (m Model) handleSearchResultsNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	r := m.searchResults
	if r == nil || m.isBack(msg) {
		m.searchResults = nil
		m.back()
		return m, nil
	}
	if ok, cmd := m.moveCursor(r, msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Select) || msg.String() == "l":
		if sel, ok := r.Selected(); ok {
			return m, loadRestaurantDetailCmd(m.client, sel.ID, m.timeout)
		}
	case key.Matches(msg, m.keys.Find):
		m.mode = model.ModeInsert
		return m, r.input.Focus()
	case msg.String() == "]":
		kw, ok := r.NextRelated()
		if !ok {
			m.info = "No related keywords"
			return m, nil
		}
		r.Search(kw)
		m.info = "Searching " + kw
		return m, fetchPageCmd(r.pager, m.timeout)
	case key.Matches(msg, m.keys.Refresh):
		if r.Search(r.keyword) {
			return m, fetchPageCmd(r.pager, m.timeout)
		}
	}
	return m, nil
}

func (m Model) handleLocationsNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := m.locations
	if l == nil || m.isBack(msg) {
		m.locations = nil
		m.back()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		l.MoveDown()
	case key.Matches(msg, m.keys.Up):
		l.MoveUp()
	case key.Matches(msg, m.keys.Select):
		if saved, ok := l.Selected(); ok {
			return m, selectLocationCmd(m.deps.Bus, memberLocationAddress(saved), m.timeout)
		}
	case key.Matches(msg, m.keys.Find):
		l.StartSearch()
		m.mode = model.ModeInsert
		return m, textinput.Blink
	case msg.String() == "e":
		if m.loggedIn && l.StartRename() {
			m.mode = model.ModeInsert
			return m, textinput.Blink
		}
	case msg.String() == "d":
		if saved, ok := l.Selected(); ok && m.loggedIn {
			return m, deleteLocationCmd(m.client, saved.ID, m.timeout)
		}
	case msg.String() == "x":
		return m, clearLocationCmd(m.deps.Session)
	}
	return m, nil
}

// handleInsertMode handles insert/edit mode input.
func (m Model) handleInsertMode(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case model.ScreenRestaurants, model.ScreenSpecialties, model.ScreenCommunity:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			return m.updateFind(keyMsg)
		}
	case model.ScreenCheckout:
		if m.checkout != nil {
			newCheckout, cmd := m.checkout.Update(msg)
			m.checkout = &newCheckout
			return m, cmd
		}
	case model.ScreenLogin:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && m.login != nil {
			newLogin, cmd := m.login.Update(keyMsg, m.client, m.deps.Session)
			m.login = &newLogin
			return m, cmd
		}
	case model.ScreenPostForm:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && m.postForm != nil {
			newForm, cmd := m.postForm.Update(keyMsg)
			m.postForm = &newForm
			return m, cmd
		}
	case model.ScreenBusinessRequestForm:
		if m.businessForm != nil {
			newForm, cmd := m.businessForm.Update(msg)
			m.businessForm = &newForm
			return m, cmd
		}
	case model.ScreenPostDetail:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && m.postDetail != nil {
			newDetail, cmd := m.postDetail.Update(keyMsg, m.client, m.member, m.timeout)
			m.postDetail = &newDetail
			return m, cmd
		}
	case model.ScreenAdminRequests:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && m.adminRequests != nil {
			newAdmin, cmd := m.adminRequests.Update(keyMsg, m.timeout)
			m.adminRequests = &newAdmin
			return m, cmd
		}
	case model.ScreenSearchResults:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && m.searchResults != nil {
			return m.updateSearchInput(keyMsg)
		}
	case model.ScreenProfileEdit:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && m.profileEdit != nil {
			newForm, cmd := m.profileEdit.Update(keyMsg, m.client, m.deps.Session, m.timeout)
			m.profileEdit = &newForm
			return m, cmd
		}
	case model.ScreenDeleteAccount:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && m.deleteAccount != nil {
			newForm, cmd := m.deleteAccount.Update(keyMsg, m.client, m.deps.Session, m.timeout)
			m.deleteAccount = &newForm
			return m, cmd
		}
	case model.ScreenLocations:
		if m.locations != nil {
			newLocations, cmd := m.locations.Update(msg, m.client, m.deps.Bus, m.timeout)
			m.locations = &newLocations
			if !m.locations.Typing() {
				m.mode = model.ModeNav
			}
			return m, cmd
		}
	}
	return m, nil
}

// updateSearchInput edits the keyword of the search screen. Leaving before
// the first search closes the screen.
func (m Model) updateSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	r := m.searchResults
	switch msg.String() {
	case "esc":
		r.input.Blur()
		m.mode = model.ModeNav
		if r.pager == nil {
			m.searchResults = nil
			m.back()
		}
		return m, nil
	case "enter":
		if !r.Search(r.input.Value()) {
			m.info = "Type a keyword first"
			return m, nil
		}
		m.mode = model.ModeNav
		return m, fetchPageCmd(r.pager, m.timeout)
	}
	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return m, cmd
}

// updateFind edits the find input of a list screen. Restaurants and
// specialties filter as you type; the community board searches the backend
// once typing pauses.
func (m Model) updateFind(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var find *textinput.Model
	switch m.screen {
	case model.ScreenRestaurants:
		find = &m.restaurants.find
	case model.ScreenSpecialties:
		find = &m.specialties.find
	default:
		find = &m.posts.find
	}

	switch msg.String() {
	case "esc":
		find.Blur()
		find.SetValue("")
		m.mode = model.ModeNav
		return m, m.applyFind("", true)
	case "enter":
		find.Blur()
		m.mode = model.ModeNav
		return m, m.applyFind(find.Value(), true)
	}

	var cmd tea.Cmd
	*find, cmd = find.Update(msg)
	return m, tea.Batch(cmd, m.applyFind(find.Value(), false))
}

func (m *Model) applyFind(text string, now bool) tea.Cmd {
	switch m.screen {
	case model.ScreenRestaurants:
		m.restaurants.SetText(text)
	case model.ScreenSpecialties:
		m.specialties.SetText(text)
	case model.ScreenCommunity:
		m.posts.seq++
		if now {
			if m.posts.SetKeyword(text) {
				return fetchPageCmd(m.posts.pager, m.timeout)
			}
			return nil
		}
		seq := m.posts.seq
		return tea.Tick(m.cfg.SearchDebounce(), func(time.Time) tea.Msg {
			return keywordSearchMsg{seq: seq}
		})
	}
	return nil
}
