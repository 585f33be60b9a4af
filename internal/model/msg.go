package model

// Bubble Tea message types

// ErrorMsg represents an error message.
type ErrorMsg struct {
	Err error
}

// InfoMsg carries a banner message.
type InfoMsg struct {
	Text string
}

// UnauthorizedMsg is sent when the backend rejected the session.
type UnauthorizedMsg struct{}

// LoggedInMsg is sent after a successful login.
type LoggedInMsg struct {
	Member Member
}

// LoggedOutMsg is sent after the session was cleared.
type LoggedOutMsg struct{}

// FormCancelledMsg is sent when a form is cancelled.
type FormCancelledMsg struct{}

// RestaurantDetailLoadedMsg is sent when a restaurant, its menus and its
// backers are loaded.
type RestaurantDetailLoadedMsg struct {
	Restaurant Restaurant
	Menus      []MenuItem
	Backers    []FundingRecord
}

// SpecialtyDetailLoadedMsg is sent when a specialty is loaded.
type SpecialtyDetailLoadedMsg struct {
	Specialty Specialty
}

// PostLoadedMsg is sent when a post with its comments is loaded.
type PostLoadedMsg struct {
	Post     Post
	Comments []Comment
}

// PostSavedMsg is sent when a post was created or updated.
type PostSavedMsg struct {
	Post      Post
	Operation string // insert, update
}

// PostDeletedMsg is sent when a post was deleted.
type PostDeletedMsg struct {
	ID int64
}

// LikeSettledMsg carries the authoritative like state after a toggle.
type LikeSettledMsg struct {
	PostID int64
	Result LikeResult
	Err    error
}

// CommentsChangedMsg is sent after a comment was added or removed.
type CommentsChangedMsg struct {
	PostID   int64
	Comments []Comment
}

// FundingsLoadedMsg is sent when the member's fundings are loaded.
type FundingsLoadedMsg struct {
	Fundings []FundingRecord
}

// OrdersLoadedMsg is sent when the member's specialty orders are loaded.
type OrdersLoadedMsg struct {
	Orders []SpecialtyOrder
	Stats  OrderStatistics
}

// OrderCancelledMsg is sent when a specialty order was cancelled.
type OrderCancelledMsg struct {
	Order SpecialtyOrder
}

// BusinessRequestSubmittedMsg is sent when a business request was accepted.
type BusinessRequestSubmittedMsg struct {
	Request BusinessRequest
}

// BusinessRequestsLoadedMsg is sent when the member's requests are loaded.
type BusinessRequestsLoadedMsg struct {
	Requests []BusinessRequest
}

// BusinessRequestReviewedMsg is sent after an admin review.
type BusinessRequestReviewedMsg struct {
	Request BusinessRequest
}

// LocationsLoadedMsg is sent when saved member locations are loaded.
type LocationsLoadedMsg struct {
	Locations []MemberLocation
}

// LocationSelectedMsg is sent when the opener acknowledged a picked address.
type LocationSelectedMsg struct {
	Selected SelectedLocation
}

// WishlistChangedMsg is sent after a restaurant was added to or removed
// from the wishlist.
type WishlistChangedMsg struct {
	RestaurantID int64
	Wishlisted   bool
}

// ProfileUpdatedMsg is sent after the profile or password was changed.
type ProfileUpdatedMsg struct {
	Member          Member
	PasswordChanged bool
}

// AccountDeletedMsg is sent after the account was closed and the session
// cleared.
type AccountDeletedMsg struct{}

// Screen represents different app screens.
type Screen int

const (
	ScreenRestaurants Screen = iota
	ScreenSpecialties
	ScreenCommunity
	ScreenMyPage
	ScreenRestaurantDetail
	ScreenSpecialtyDetail
	ScreenPostDetail
	ScreenPostForm
	ScreenCheckout
	ScreenFundingDetail
	ScreenBusinessRequestForm
	ScreenAdminRequests
	ScreenLocations
	ScreenNotifications
	ScreenLogin
	ScreenWishlist
	ScreenForOne
	ScreenSearchResults
	ScreenProfileEdit
	ScreenDeleteAccount
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNav Mode = iota
	ModeInsert
)
