package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"localfund/internal/api"
	"localfund/internal/checkout"
	"localfund/internal/config"
	"localfund/internal/location"
	"localfund/internal/logging"
	"localfund/internal/model"
	"localfund/internal/search"
	"localfund/internal/session"
	"localfund/internal/share"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Deps are the collaborators of the root model.
type Deps struct {
	Config    *config.Config
	Client    *api.Client
	Session   *session.Store
	Payments  checkout.Provider
	Journal   checkout.Journal
	Kakao     *search.KakaoClient
	Bus       *location.Bus
	Sharer    *share.Sharer
	Previewer *ImagePreviewer
	Logger    *zap.Logger

	// PrefsPath is where table layouts are saved. Empty disables saving.
	PrefsPath string
	// ReceiptsDir receives funding receipt PNGs.
	ReceiptsDir string
}

// Model is the root Bubble Tea model.
type Model struct {
	deps    Deps
	cfg     *config.Config
	client  *api.Client
	log     *zap.Logger
	timeout time.Duration

	screen  model.Screen
	history []model.Screen
	mode    model.Mode
	gState  GState

	width  int
	height int

	error       string
	info        string
	showingHelp bool
	columnJump  bool

	member   model.Member
	loggedIn bool
	unread   int
	place    string

	// Screen models
	restaurants      *RestaurantsModel
	specialties      *SpecialtiesModel
	posts            *PostsModel
	myPage           *MyPageModel
	restaurantDetail *RestaurantDetailModel
	specialtyDetail  *SpecialtyDetailModel
	postDetail       *PostDetailModel
	postForm         *PostFormModel
	checkout         *CheckoutModel
	fundingDetail    *FundingDetailModel
	businessForm     *BusinessFormModel
	adminRequests    *AdminRequestsModel
	locations        *LocationsModel
	notifications    *NotificationsModel
	login            *LoginModel
	wishlist         *WishlistModel
	forOne           *ForOneModel
	searchResults    *SearchResultsModel
	profileEdit      *ProfileEditModel
	deleteAccount    *DeleteAccountModel

	keys     KeyMap
	formKeys FormKeyMap
	prefs    UIPreferences
}

// New creates the root model on the restaurant tab.
func New(deps Deps) Model {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.ReceiptsDir == "" {
		deps.ReceiptsDir = filepath.Join(config.DefaultDir(), "receipts")
	}
	m := Model{
		deps:     deps,
		cfg:      cfg,
		client:   deps.Client,
		log:      logging.OrNop(deps.Logger),
		timeout:  cfg.BackendTimeout(),
		screen:   model.ScreenRestaurants,
		mode:     model.ModeNav,
		gState:   GStateIdle,
		keys:     DefaultKeyMap(),
		formKeys: DefaultFormKeyMap(),
		prefs:    loadUIPreferences(deps.PrefsPath),
	}
	if member, ok := deps.Session.Member(); ok {
		m.member = member
		m.loggedIn = true
		m.myPage = NewMyPageModel(member)
		m.myPage.ApplyPrefs(m.prefs)
	}
	m.newRestaurants()
	m.specialties = NewSpecialtiesModel(cfg.Paging.SpecialtySize, cfg.UI.Keywords)
	m.specialties.ApplyPrefs(m.prefs.Specialties)
	m.posts = NewPostsModel(deps.Client, cfg.Paging.CommunitySize)
	m.posts.ApplyPrefs(m.prefs.Posts)
	return m
}

// Init loads the tabs.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		fetchPageCmd(m.restaurants.pager, m.timeout),
		loadSpecialtiesCmd(m.client, m.timeout),
		fetchPageCmd(m.posts.pager, m.timeout),
		keywordTickCmd(m.cfg.KeywordInterval()),
	}
	if m.loggedIn {
		cmds = append(cmds, loadUnreadCountCmd(m.client, m.member.Email, m.timeout))
	}
	return tea.Batch(cmds...)
}

// origin returns the point the restaurant listing is centred on: the
// selected location when there is one, the trending point otherwise.
func (m *Model) origin() (api.NearbyQuery, string) {
	q := api.NearbyQuery{Lat: m.cfg.Trending.Lat, Lng: m.cfg.Trending.Lng, Radius: m.cfg.Trending.Radius}
	sel, ok, err := m.deps.Session.SelectedLocation()
	if err != nil {
		m.log.Warn("failed to read selected location", zap.Error(err))
	}
	if err != nil || !ok {
		return q, "the trending area"
	}
	q.Lat, q.Lng = sel.Lat, sel.Lng
	return q, sel.Address
}

// resetRestaurants rebuilds the listing around the current origin. Pages
// still in flight for the old listing are dropped on arrival.
func (m *Model) resetRestaurants() tea.Cmd {
	m.newRestaurants()
	return fetchPageCmd(m.restaurants.pager, m.timeout)
}

func (m *Model) newRestaurants() {
	origin, place := m.origin()
	m.place = place
	m.restaurants = NewRestaurantsModel(m.client, origin, place, m.cfg.Paging.RestaurantSize)
	m.restaurants.ApplyPrefs(m.prefs.Restaurants)
}

// open moves to screen and remembers where to go back to.
func (m *Model) open(screen model.Screen) {
	if m.screen != screen {
		m.history = append(m.history, m.screen)
	}
	m.screen = screen
}

// back returns to the previous screen, or the restaurant tab.
func (m *Model) back() {
	m.mode = model.ModeNav
	if n := len(m.history); n > 0 {
		m.screen = m.history[n-1]
		m.history = m.history[:n-1]
		return
	}
	m.screen = model.ScreenRestaurants
}

// switchTab moves to a top-level screen and forgets the back stack.
func (m *Model) switchTab(screen model.Screen) tea.Cmd {
	m.screen = screen
	m.history = nil
	m.info = ""
	if screen == model.ScreenMyPage && m.loggedIn {
		return loadMyPageCmd(m.client, m.member, m.timeout)
	}
	return nil
}

// requireLogin opens the login form. After logging in the user returns to
// the current screen.
func (m *Model) requireLogin(notice string) {
	m.login = NewLoginModel(notice)
	m.open(model.ScreenLogin)
	m.mode = model.ModeInsert
}

func (m *Model) forgetMember() {
	m.member = model.Member{}
	m.loggedIn = false
	m.unread = 0
	m.myPage = nil
	m.notifications = nil
	m.adminRequests = nil
	m.wishlist = nil
	m.profileEdit = nil
	m.deleteAccount = nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.mode == model.ModeNav && m.columnJump {
			switch msg.String() {
			case "esc":
				m.columnJump = false
				m.info = ""
				return m, nil
			}
			if n, err := strconv.Atoi(msg.String()); err == nil {
				table := m.currentTable()
				if table != nil && table.JumpToColumn(n) {
					m.columnJump = false
					m.info = fmt.Sprintf("Jumped to column %d", n)
					m.persistCurrentTablePrefs()
					return m, nil
				}
				m.info = fmt.Sprintf("Column %d unavailable", n)
				return m, nil
			}
		}

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if msg.String() == "?" && m.mode == model.ModeNav {
			m.showingHelp = !m.showingHelp
			return m, nil
		}

		if m.showingHelp {
			if msg.String() == "esc" || msg.String() == "?" {
				m.showingHelp = false
			}
			return m, nil
		}

		if m.mode == model.ModeNav {
			return m.handleNavMode(msg)
		}
		return m.handleInsertMode(msg)

	case model.ErrorMsg:
		if errors.Is(msg.Err, api.ErrUnauthorized) && m.screen != model.ScreenLogin {
			m.forgetMember()
			m.requireLogin("Your session expired. Log in again.")
			return m, nil
		}
		m.error = msg.Err.Error()
		return m, nil

	case model.InfoMsg:
		m.info = msg.Text
		m.error = ""
		return m, nil

	case model.UnauthorizedMsg:
		// A failed login answers 401 too.
		if m.screen == model.ScreenLogin {
			return m, nil
		}
		m.forgetMember()
		m.requireLogin("Your session expired. Log in again.")
		return m, nil

	case model.LoggedInMsg:
		m.member = msg.Member
		m.loggedIn = true
		m.myPage = NewMyPageModel(msg.Member)
		m.myPage.ApplyPrefs(m.prefs)
		m.login = nil
		m.back()
		m.error = ""
		m.info = "Welcome, " + msg.Member.DisplayName()
		m.log.Info("logged in", zap.String("email", msg.Member.Email))
		m.posts.restart()
		return m, tea.Batch(
			loadMyPageCmd(m.client, m.member, m.timeout),
			loadUnreadCountCmd(m.client, m.member.Email, m.timeout),
			fetchPageCmd(m.posts.pager, m.timeout),
		)

	case model.LoggedOutMsg:
		m.forgetMember()
		m.history = nil
		m.screen = model.ScreenRestaurants
		m.mode = model.ModeNav
		m.info = "Logged out"
		m.posts.restart()
		return m, fetchPageCmd(m.posts.pager, m.timeout)

	case model.FormCancelledMsg:
		m.mode = model.ModeNav
		switch m.screen {
		case model.ScreenCheckout:
			m.checkout = nil
			m.back()
		case model.ScreenLogin:
			m.login = nil
			m.back()
		case model.ScreenPostForm:
			m.postForm = nil
			m.back()
		case model.ScreenBusinessRequestForm:
			m.businessForm = nil
			m.back()
		case model.ScreenProfileEdit:
			m.profileEdit = nil
			m.back()
		case model.ScreenDeleteAccount:
			m.deleteAccount = nil
			m.back()
		}
		return m, nil

	case pageLoadedMsg[model.Restaurant]:
		switch {
		case m.restaurants != nil && msg.pager == m.restaurants.pager:
			if ok, err := applyPage(msg, "restaurants"); ok {
				m.restaurants.refresh()
				if err != nil {
					m.error = err.Error()
				}
			}
		case m.searchResults != nil && msg.pager == m.searchResults.pager:
			if ok, err := applyPage(msg, "search results"); ok {
				m.searchResults.refresh()
				if err != nil {
					m.error = err.Error()
				}
			}
		}
		return m, nil

	case pageLoadedMsg[model.ForOneSlot]:
		if m.forOne == nil || msg.pager != m.forOne.pager {
			return m, nil
		}
		if ok, err := applyPage(msg, "single servings"); ok {
			m.forOne.refresh()
			if err != nil {
				m.error = err.Error()
			}
		}
		return m, nil

	case pageLoadedMsg[model.Post]:
		if m.posts == nil || msg.pager != m.posts.pager {
			return m, nil
		}
		if ok, err := applyPage(msg, "posts"); ok {
			m.posts.refresh()
			if err != nil {
				m.error = err.Error()
			}
		}
		return m, nil

	case pageLoadedMsg[model.BusinessRequest]:
		if m.adminRequests == nil || msg.pager != m.adminRequests.pager {
			return m, nil
		}
		if ok, err := applyPage(msg, "business requests"); ok {
			m.adminRequests.refresh()
			if err != nil {
				m.error = err.Error()
			}
		}
		return m, nil

	case pageLoadedMsg[model.Notification]:
		if m.notifications == nil || msg.pager != m.notifications.pager {
			return m, nil
		}
		if ok, err := applyPage(msg, "notifications"); ok {
			m.notifications.refresh()
			if err != nil {
				m.error = err.Error()
			}
		}
		return m, nil

	case specialtiesLoadedMsg:
		if msg.err != nil {
			m.specialties.SetError(msg.err)
			m.error = fmt.Sprintf("failed to load specialties: %v", msg.err)
			return m, nil
		}
		m.specialties.SetAll(msg.items, msg.progress)
		return m, nil

	case specialtiesRefreshedMsg:
		if msg.err != nil {
			m.error = fmt.Sprintf("failed to refresh specialties: %v", msg.err)
			return m, nil
		}
		m.specialties.Merge(msg.items)
		m.info = fmt.Sprintf("Refreshed %d in %s", len(msg.items), msg.scope)
		return m, nil

	case keywordTickMsg:
		m.specialties.RotateKeyword()
		return m, keywordTickCmd(m.cfg.KeywordInterval())

	case keywordSearchMsg:
		if msg.seq != m.posts.seq {
			return m, nil
		}
		if m.posts.SetKeyword(m.posts.find.Value()) {
			return m, fetchPageCmd(m.posts.pager, m.timeout)
		}
		return m, nil

	case model.RestaurantDetailLoadedMsg:
		wishlisted := m.restaurantDetail != nil && m.restaurantDetail.restaurant.ID == msg.Restaurant.ID && m.restaurantDetail.wishlisted
		m.restaurantDetail = NewRestaurantDetailModel(msg.Restaurant, msg.Menus, msg.Backers)
		m.restaurantDetail.wishlisted = wishlisted
		if ascii, ok := m.deps.Previewer.Cached(msg.Restaurant.ImageURL); ok {
			m.restaurantDetail.preview = ascii
		}
		m.open(model.ScreenRestaurantDetail)
		m.error = ""
		if m.loggedIn {
			return m, wishlistStateCmd(m.client, msg.Restaurant.ID, m.timeout)
		}
		return m, nil

	case wishlistStateMsg:
		if m.restaurantDetail != nil && m.restaurantDetail.restaurant.ID == msg.restaurantID {
			m.restaurantDetail.wishlisted = msg.on
		}
		return m, nil

	case model.WishlistChangedMsg:
		if m.restaurantDetail != nil && m.restaurantDetail.restaurant.ID == msg.RestaurantID {
			m.restaurantDetail.wishlisted = msg.Wishlisted
		}
		if msg.Wishlisted {
			m.info = "Saved to your wishlist"
		} else {
			m.info = "Removed from your wishlist"
		}
		m.error = ""
		if m.wishlist != nil {
			return m, loadWishlistCmd(m.client, m.timeout)
		}
		return m, nil

	case wishlistLoadedMsg:
		if m.wishlist == nil {
			return m, nil
		}
		m.wishlist.Apply(msg)
		if msg.err != nil {
			m.error = fmt.Sprintf("failed to load wishlist: %v", msg.err)
		}
		return m, nil

	case model.ProfileUpdatedMsg:
		m.member = msg.Member
		if m.myPage != nil {
			m.myPage.member = msg.Member
		}
		m.profileEdit = nil
		m.back()
		m.error = ""
		m.info = "Profile updated"
		if msg.PasswordChanged {
			m.info = "Profile and password updated"
		}
		m.log.Info("profile updated", zap.String("email", msg.Member.Email), zap.Bool("password", msg.PasswordChanged))
		return m, nil

	case model.AccountDeletedMsg:
		m.log.Info("account deleted", zap.String("email", m.member.Email))
		m.forgetMember()
		m.history = nil
		m.screen = model.ScreenRestaurants
		m.mode = model.ModeNav
		m.error = ""
		m.info = "Account deleted"
		m.posts.restart()
		return m, fetchPageCmd(m.posts.pager, m.timeout)

	case model.SpecialtyDetailLoadedMsg:
		m.specialtyDetail = NewSpecialtyDetailModel(msg.Specialty)
		if ascii, ok := m.deps.Previewer.Cached(msg.Specialty.ImgURL); ok {
			m.specialtyDetail.preview = ascii
		}
		m.open(model.ScreenSpecialtyDetail)
		m.error = ""
		return m, nil

	case imagePreviewMsg:
		if msg.err != nil {
			m.error = msg.err.Error()
			return m, nil
		}
		m.deps.Previewer.Store(msg.url, msg.ascii)
		if m.restaurantDetail != nil && m.restaurantDetail.restaurant.ImageURL == msg.url {
			m.restaurantDetail.preview = msg.ascii
		}
		if m.specialtyDetail != nil && m.specialtyDetail.specialty.ImgURL == msg.url {
			m.specialtyDetail.preview = msg.ascii
		}
		return m, nil

	case model.PostLoadedMsg:
		if m.postDetail != nil && m.screen == model.ScreenPostDetail && m.postDetail.post.ID == msg.Post.ID {
			m.postDetail.post = msg.Post
			m.postDetail.SetComments(msg.Comments)
		} else {
			m.postDetail = NewPostDetailModel(msg.Post, msg.Comments)
			m.open(model.ScreenPostDetail)
		}
		m.posts.ReplacePost(msg.Post)
		m.error = ""
		return m, nil

	case model.LikeSettledMsg:
		if m.postDetail == nil || m.postDetail.post.ID != msg.PostID {
			return m, nil
		}
		m.postDetail.SettleLike(msg)
		if msg.Err != nil {
			m.error = msg.Err.Error()
			return m, nil
		}
		m.posts.ReplacePost(m.postDetail.post)
		return m, nil

	case model.CommentsChangedMsg:
		if m.postDetail != nil && m.postDetail.post.ID == msg.PostID {
			m.postDetail.SetComments(msg.Comments)
			m.posts.ReplacePost(m.postDetail.post)
		}
		m.mode = model.ModeNav
		m.info = "Comments updated"
		return m, nil

	case model.PostSavedMsg:
		m.postForm = nil
		m.back()
		m.error = ""
		m.posts.restart()
		cmds := []tea.Cmd{fetchPageCmd(m.posts.pager, m.timeout)}
		if msg.Operation == "update" {
			m.info = "Post updated"
			if m.screen == model.ScreenPostDetail {
				cmds = append(cmds, loadPostCmd(m.client, msg.Post.ID, m.timeout))
			}
		} else {
			m.info = "Post published"
		}
		return m, tea.Batch(cmds...)

	case model.PostDeletedMsg:
		if m.screen == model.ScreenPostDetail {
			m.back()
		}
		m.postDetail = nil
		m.info = "Post deleted"
		m.posts.restart()
		return m, fetchPageCmd(m.posts.pager, m.timeout)

	case checkoutDoneMsg:
		if m.checkout == nil {
			return m, nil
		}
		newCheckout, cmd := m.checkout.Update(msg)
		m.checkout = &newCheckout
		if msg.err != nil {
			m.error = msg.err.Error()
		} else {
			m.error = ""
		}
		return m, cmd

	case checkoutClosedMsg:
		var kind checkout.Kind
		if m.checkout != nil {
			kind = m.checkout.flow.Order().Kind
		}
		m.checkout = nil
		m.back()
		m.error = ""
		var cmds []tea.Cmd
		switch {
		case msg.result.Funding != nil && kind == checkout.KindForOne:
			m.info = "You joined a single serving at " + msg.result.Funding.RestaurantName
			if m.forOne != nil {
				m.forOne.Restart()
				cmds = append(cmds, fetchPageCmd(m.forOne.pager, m.timeout))
			}
		case msg.result.Funding != nil:
			m.info = "Thank you for backing " + msg.result.Funding.RestaurantName
			if m.restaurantDetail != nil {
				cmds = append(cmds, loadRestaurantDetailCmd(m.client, m.restaurantDetail.restaurant.ID, m.timeout))
			}
		case msg.result.Order != nil:
			m.info = "Order placed for " + msg.result.Order.SpecialtyName
			cmds = append(cmds, loadSpecialtiesCmd(m.client, m.timeout))
		default:
			m.info = "Payment received but not recorded. Keep the merchant id " + msg.result.MerchantUID
		}
		if m.loggedIn {
			cmds = append(cmds, loadMyPageCmd(m.client, m.member, m.timeout))
		}
		return m, tea.Batch(cmds...)

	case model.BusinessRequestSubmittedMsg:
		m.businessForm = nil
		m.back()
		m.error = ""
		m.info = fmt.Sprintf("Request for %s submitted, pending review", msg.Request.Name)
		return m, loadMyPageCmd(m.client, m.member, m.timeout)

	case model.BusinessRequestReviewedMsg:
		if m.adminRequests != nil {
			m.adminRequests.ApplyReview(msg.Request)
		}
		m.mode = model.ModeNav
		m.info = fmt.Sprintf("%s is now %s", msg.Request.Name, msg.Request.Status)
		return m, loadPendingCountCmd(m.client, m.timeout)

	case pendingCountMsg:
		if m.adminRequests != nil {
			m.adminRequests.pending = msg.count
		}
		return m, nil

	case model.LocationsLoadedMsg:
		if m.locations != nil {
			m.locations.SetSaved(msg.Locations)
		}
		return m, nil

	case locationSentMsg:
		m.info = "Using " + msg.address
		return m, nil

	case model.LocationSelectedMsg:
		cmd := m.resetRestaurants()
		if m.locations != nil {
			m.locations.current = m.place
		}
		m.info = "Showing restaurants near " + m.place
		return m, cmd

	case locationClearedMsg:
		cmd := m.resetRestaurants()
		if m.locations != nil {
			m.locations.current = ""
		}
		m.info = "Showing restaurants in the trending area"
		return m, cmd

	case notificationsChangedMsg:
		m.info = msg.info
		var cmds []tea.Cmd
		if m.notifications != nil {
			m.notifications.Restart()
			cmds = append(cmds, fetchPageCmd(m.notifications.pager, m.timeout))
		}
		cmds = append(cmds, loadUnreadCountCmd(m.client, m.member.Email, m.timeout))
		return m, tea.Batch(cmds...)

	case unreadCountMsg:
		m.unread = msg.count
		if m.myPage != nil {
			m.myPage.unread = msg.count
		}
		if m.notifications != nil {
			m.notifications.unread = msg.count
		}
		return m, nil

	case myPageLoadedMsg:
		if m.myPage != nil {
			m.myPage.Apply(msg)
			m.unread = msg.unread
		}
		if m.loggedIn && msg.member.Email == m.member.Email && !sameProfile(msg.member, m.member) {
			m.member = msg.member
			return m, saveMemberCmd(m.deps.Session, msg.member)
		}
		return m, nil

	case model.OrderCancelledMsg:
		if m.myPage != nil {
			m.myPage.ReplaceOrder(msg.Order)
		}
		m.info = "Order cancelled"
		return m, loadMyPageCmd(m.client, m.member, m.timeout)

	default:
		// Spinner ticks, debounce ticks and search results go to forms
		if m.mode == model.ModeInsert {
			return m.handleInsertMode(msg)
		}
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.keys, m.width, m.height)
	}

	showTabs := isTab(m.screen)

	// header + footer, plus the tab bar on top-level screens
	contentHeight := m.height - 4
	if showTabs {
		contentHeight -= 2
	}
	if m.error != "" {
		contentHeight--
	}
	if m.info != "" {
		contentHeight--
	}

	content, crumbs := m.renderScreen(contentHeight)

	var blocks []string
	blocks = append(blocks, m.renderHeader(crumbs, m.width))
	if showTabs {
		blocks = append(blocks, renderTabs(m.screen, m.width))
	}
	if m.error != "" {
		blocks = append(blocks, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.info != "" {
		blocks = append(blocks, SuccessStyle.Width(m.width).Render(m.info))
	}

	// Fill the available height so the footer stays at the bottom
	contentStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight)
	blocks = append(blocks,
		contentStyle.Render(content),
		RenderHelp(m.keys, m.formKeys, m.screen, m.mode, m.width))
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func (m Model) renderScreen(height int) (string, []string) {
	switch m.screen {
	case model.ScreenRestaurants:
		return m.restaurants.View(m.width, height), []string{"Restaurants"}
	case model.ScreenSpecialties:
		return m.specialties.View(m.width, height), []string{"Specialties"}
	case model.ScreenCommunity:
		return m.posts.View(m.width, height), []string{"Community"}
	case model.ScreenMyPage:
		if m.myPage == nil {
			return renderLoggedOut(m.width), []string{"My Page"}
		}
		return m.myPage.View(m.width, height), []string{"My Page"}
	case model.ScreenRestaurantDetail:
		if m.restaurantDetail != nil {
			return m.restaurantDetail.View(m.width, height), []string{"Restaurants", m.restaurantDetail.restaurant.Name}
		}
	case model.ScreenSpecialtyDetail:
		if m.specialtyDetail != nil {
			return m.specialtyDetail.View(m.width, height), []string{"Specialties", m.specialtyDetail.specialty.Title}
		}
	case model.ScreenPostDetail:
		if m.postDetail != nil {
			return m.postDetail.View(m.width, height), []string{"Community", m.postDetail.post.Title}
		}
	case model.ScreenPostForm:
		if m.postForm != nil {
			crumb := "New post"
			if m.postForm.post.ID > 0 {
				crumb = "Edit post"
			}
			return m.postForm.View(m.width, height), []string{"Community", crumb}
		}
	case model.ScreenCheckout:
		if m.checkout != nil {
			return m.checkout.View(m.width, height), []string{"Checkout", m.checkout.flow.Order().TargetName}
		}
	case model.ScreenFundingDetail:
		if m.fundingDetail != nil {
			return m.fundingDetail.View(m.width, height), []string{"My Page", "Funding receipt"}
		}
	case model.ScreenBusinessRequestForm:
		if m.businessForm != nil {
			return m.businessForm.View(m.width, height), []string{"My Page", "Request a funding page"}
		}
	case model.ScreenAdminRequests:
		if m.adminRequests != nil {
			return m.adminRequests.View(m.width, height), []string{"Admin", "Business requests"}
		}
	case model.ScreenLocations:
		if m.locations != nil {
			return m.locations.View(m.width, height), []string{"Location"}
		}
	case model.ScreenNotifications:
		if m.notifications != nil {
			return m.notifications.View(m.width, height), []string{"My Page", "Notifications"}
		}
	case model.ScreenLogin:
		if m.login != nil {
			return m.login.View(m.width, height), []string{"Log in"}
		}
	case model.ScreenWishlist:
		if m.wishlist != nil {
			return m.wishlist.View(m.width, height), []string{"My Page", "Wishlist"}
		}
	case model.ScreenForOne:
		if m.forOne != nil {
			return m.forOne.View(m.width, height), []string{"Restaurants", "Single servings"}
		}
	case model.ScreenSearchResults:
		if m.searchResults != nil {
			return m.searchResults.View(m.width, height), []string{"Restaurants", "Search"}
		}
	case model.ScreenProfileEdit:
		if m.profileEdit != nil {
			return m.profileEdit.View(m.width, height), []string{"My Page", "Edit profile"}
		}
	case model.ScreenDeleteAccount:
		if m.deleteAccount != nil {
			return m.deleteAccount.View(m.width, height), []string{"My Page", "Delete account"}
		}
	}
	return "", nil
}

func renderLoggedOut(width int) string {
	body := LabelStyle.Render("You are not logged in.") + "\n\n" +
		HelpDescStyle.Render("Log in to see your fundings, orders and notifications.") + "\n\n" +
		HelpKeyStyle.Render("enter") + HelpDescStyle.Render(" log in")
	return lipgloss.NewStyle().Padding(1, 2).Render(PanelStyle.Width(min(width-4, 60)).Render(body))
}

var tabs = []struct {
	name   string
	screen model.Screen
}{
	{"Restaurants", model.ScreenRestaurants},
	{"Specialties", model.ScreenSpecialties},
	{"Community", model.ScreenCommunity},
	{"My Page", model.ScreenMyPage},
}

func isTab(screen model.Screen) bool {
	for _, t := range tabs {
		if t.screen == screen {
			return true
		}
	}
	return false
}

// neighbourTab returns the tab delta steps away from screen, wrapping.
func neighbourTab(screen model.Screen, delta int) model.Screen {
	for i, t := range tabs {
		if t.screen == screen {
			return tabs[(i+delta+len(tabs))%len(tabs)].screen
		}
	}
	return tabs[0].screen
}

func renderTabs(screen model.Screen, width int) string {
	var tabStrings []string
	for _, tab := range tabs {
		tabStyle := lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorMuted)

		if screen == tab.screen {
			tabStyle = tabStyle.
				Foreground(ColorText).
				Bold(true).
				Underline(true)
		}

		tabStrings = append(tabStrings, tabStyle.Render(tab.name))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabStrings...)
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		Render(tabBar)
}

func (m Model) renderHeader(breadcrumbParts []string, width int) string {
	title := HeaderStyle.Render("localfund")
	if m.cfg.IsFixtures() {
		title += " " + BadgeStyle.Render("FIXTURES")
	}

	var breadcrumb string
	if len(breadcrumbParts) > 0 {
		separator := BreadcrumbStyle.Render(" › ")
		parts := make([]string, len(breadcrumbParts))
		for i, part := range breadcrumbParts {
			if i == len(breadcrumbParts)-1 {
				parts[i] = BreadcrumbActiveStyle.Render(part)
			} else {
				parts[i] = BreadcrumbStyle.Render(part)
			}
		}
		breadcrumb = separator + strings.Join(parts, separator)
	}

	left := "  " + title + breadcrumb

	var right []string
	if m.loggedIn {
		who := m.member.DisplayName()
		if m.unread > 0 {
			who += fmt.Sprintf(" ● %d", m.unread)
		}
		right = append(right, who)
	}
	right = append(right, time.Now().Format("Mon 02 Jan"))
	rightStr := BreadcrumbStyle.Render(strings.Join(right, "  ·  ")) + "  "

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(rightStr), 0)
	headerContent := left + strings.Repeat(" ", padding) + rightStr
	return TitleStyle.Width(width).Render(headerContent)
}

func (m *Model) currentTable() listTable {
	switch m.screen {
	case model.ScreenRestaurants:
		return m.restaurants
	case model.ScreenSpecialties:
		return m.specialties
	case model.ScreenCommunity:
		return m.posts
	case model.ScreenMyPage:
		if m.myPage != nil {
			return m.myPage.table()
		}
	case model.ScreenAdminRequests:
		if m.adminRequests != nil {
			return m.adminRequests
		}
	case model.ScreenNotifications:
		if m.notifications != nil {
			return m.notifications
		}
	case model.ScreenWishlist:
		if m.wishlist != nil {
			return m.wishlist
		}
	case model.ScreenForOne:
		if m.forOne != nil {
			return m.forOne
		}
	case model.ScreenSearchResults:
		if m.searchResults != nil {
			return m.searchResults
		}
	}
	return nil
}

func (m *Model) persistCurrentTablePrefs() {
	switch m.screen {
	case model.ScreenRestaurants:
		m.prefs.Restaurants = m.restaurants.Prefs()
	case model.ScreenSpecialties:
		m.prefs.Specialties = m.specialties.Prefs()
	case model.ScreenCommunity:
		m.prefs.Posts = m.posts.Prefs()
	case model.ScreenMyPage:
		if m.myPage != nil {
			m.myPage.StorePrefs(&m.prefs)
		}
	case model.ScreenAdminRequests:
		if m.adminRequests != nil {
			m.prefs.Requests = m.adminRequests.Prefs()
		}
	case model.ScreenNotifications:
		if m.notifications != nil {
			m.prefs.Notifications = m.notifications.Prefs()
		}
	case model.ScreenWishlist:
		if m.wishlist != nil {
			m.prefs.Wishlist = m.wishlist.Prefs()
		}
	case model.ScreenForOne:
		if m.forOne != nil {
			m.prefs.ForOne = m.forOne.Prefs()
		}
	case model.ScreenSearchResults:
		if m.searchResults != nil {
			m.prefs.SearchResults = m.searchResults.Prefs()
		}
	}
	if err := saveUIPreferences(m.deps.PrefsPath, m.prefs); err != nil {
		m.log.Warn("failed to save ui preferences", zap.Error(err))
	}
}
