package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Restaurant represents a fundable restaurant as returned by the backend.
type Restaurant struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	CategoryName       string  `json:"categoryName"`
	Phone              string  `json:"phone"`
	RoadAddressName    string  `json:"roadAddressName"`
	X                  float64 `json:"x"`
	Y                  float64 `json:"y"`
	PlaceURL           string  `json:"placeUrl"`
	FundingAmount      int64   `json:"fundingAmount"`
	TotalFundingAmount int64   `json:"totalFundingAmount"`
	FundingGoalAmount  int64   `json:"fundingGoalAmount"`
	FundingPercent     float64 `json:"fundingPercent"`
	ImageURL           string  `json:"imageUrl"`
	Description        string  `json:"description"`
	BusinessHours      string  `json:"businessHours"`
	PriceRange         string  `json:"priceRange"`
	Tags               string  `json:"tags"`
	HomepageURL        string  `json:"homepageUrl"`
	InstagramURL       string  `json:"instagramUrl"`
	Notice             string  `json:"notice"`
	SidoNm             string  `json:"sidoNm"`
	SigunguNm          string  `json:"sigunguNm"`
	FundingStartDate   string  `json:"fundingStartDate"`
	FundingEndDate     string  `json:"fundingEndDate"`
}

// Raised returns the amount funded so far.
func (r Restaurant) Raised() int64 {
	return r.FundingAmount + r.TotalFundingAmount
}

// Percent returns progress towards the funding goal, 0 when no goal is set.
func (r Restaurant) Percent() float64 {
	return FundingPercent(r.Raised(), r.FundingGoalAmount)
}

// MenuItem is a single item on a restaurant menu.
type MenuItem struct {
	ID           int64  `json:"id"`
	RestaurantID int64  `json:"restaurantId"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        int64  `json:"price"`
	ImageURL     string `json:"imageUrl"`
}

// LineItem is one entry of the menu basket sent with a funding.
type LineItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// Subtotal returns price times quantity.
func (l LineItem) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// EncodeLineItems encodes line items the way the backend stores menuInfo.
func EncodeLineItems(items []LineItem) (string, error) {
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeLineItems parses a menuInfo string. Malformed input yields nil.
func DecodeLineItems(menuInfo string) []LineItem {
	var items []LineItem
	if err := json.Unmarshal([]byte(menuInfo), &items); err != nil {
		return nil
	}
	return items
}

// FundingStatus is the lifecycle state of a funding record.
type FundingStatus string

const (
	FundingCompleted FundingStatus = "COMPLETED"
	FundingCancelled FundingStatus = "CANCELLED"
	FundingRefunded  FundingStatus = "REFUNDED"
)

// FundingRecord is a persisted restaurant funding.
type FundingRecord struct {
	ID             int64         `json:"id,omitempty"`
	MemberID       string        `json:"memberId"`
	RestaurantID   int64         `json:"restaurantId"`
	RestaurantName string        `json:"restaurantName"`
	MenuInfo       string        `json:"menuInfo"`
	TotalAmount    int64         `json:"totalAmount"`
	PaymentMethod  string        `json:"paymentMethod"`
	ImpUID         string        `json:"impUid"`
	MerchantUID    string        `json:"merchantUid"`
	AgreeSMS       bool          `json:"agreeSMS"`
	AgreeEmail     bool          `json:"agreeEmail"`
	Status         FundingStatus `json:"status"`
	CreatedAt      string        `json:"createdAt,omitempty"`
}

// Specialty is a regional product available for purchase.
type Specialty struct {
	ID                 int64  `json:"id"`
	CntntsNo           string `json:"cntntsNo"`
	Title              string `json:"cntntsSj"`
	AreaNm             string `json:"areaNm"`
	ImgURL             string `json:"imgUrl"`
	SvcDt              string `json:"svcDt"`
	LinkURL            string `json:"linkUrl"`
	AreaCode           string `json:"areaCode"`
	SidoNm             string `json:"sidoNm"`
	SigunguNm          string `json:"sigunguNm"`
	Price              int64  `json:"price"`
	FundingAmount      int64  `json:"fundingAmount"`
	TotalFundingAmount int64  `json:"totalFundingAmount"`
	FundingGoalAmount  int64  `json:"fundingGoalAmount"`
}

// Raised returns the amount funded so far.
func (s Specialty) Raised() int64 {
	return s.FundingAmount + s.TotalFundingAmount
}

// Percent returns progress towards the funding goal, 0 when no goal is set.
func (s Specialty) Percent() float64 {
	return FundingPercent(s.Raised(), s.FundingGoalAmount)
}

// FundingPercent computes raised*100/goal, 0 when goal is not positive.
func FundingPercent(raised, goal int64) float64 {
	if goal <= 0 {
		return 0
	}
	return float64(raised) * 100 / float64(goal)
}

// OrderStatus is the lifecycle state of a specialty order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

// SpecialtyOrder is a purchase of a regional specialty.
type SpecialtyOrder struct {
	ID            int64       `json:"id,omitempty"`
	MemberID      string      `json:"memberId"`
	SpecialtyID   int64       `json:"specialtyId"`
	SpecialtyName string      `json:"specialtyName"`
	Quantity      int         `json:"quantity"`
	UnitPrice     int64       `json:"unitPrice"`
	TotalAmount   int64       `json:"totalAmount"`
	BuyerName     string      `json:"buyerName"`
	BuyerPhone    string      `json:"buyerPhone"`
	BuyerEmail    string      `json:"buyerEmail"`
	ZipCode       string      `json:"zipCode"`
	Address       string      `json:"address"`
	DetailAddress string      `json:"detailAddress"`
	PaymentMethod string      `json:"paymentMethod"`
	ImpUID        string      `json:"impUid,omitempty"`
	MerchantUID   string      `json:"merchantUid"`
	AgreeSMS      bool        `json:"agreeSms"`
	AgreeEmail    bool        `json:"agreeEmail"`
	SidoNm        string      `json:"sidoNm"`
	SigunguNm     string      `json:"sigunguNm"`
	Status        OrderStatus `json:"status,omitempty"`
	CreatedAt     string      `json:"createdAt,omitempty"`
}

// OrderStatistics summarizes a member's specialty purchases.
type OrderStatistics struct {
	TotalOrders int   `json:"totalOrders"`
	TotalAmount int64 `json:"totalAmount"`
	PaidOrders  int   `json:"paidOrders"`
}

// Post is a community board post.
type Post struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Category     string    `json:"category"`
	Author       string    `json:"author"`
	AuthorEmail  string    `json:"authorEmail"`
	ImageURL     string    `json:"imageUrl"`
	Views        int       `json:"views"`
	Likes        int       `json:"likes"`
	Liked        bool      `json:"isLiked"`
	CommentCount int       `json:"commentCount"`
	Comments     []Comment `json:"comments"`
	CreatedAt    string    `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
}

// Comment belongs to a post.
type Comment struct {
	ID          int64  `json:"id"`
	PostID      int64  `json:"postId"`
	Content     string `json:"content"`
	Author      string `json:"author"`
	AuthorEmail string `json:"authorEmail"`
	CreatedAt   string `json:"createdAt"`
}

// PostCategories lists the categories offered by the board.
var PostCategories = []string{"FREE", "REVIEW", "QUESTION", "NOTICE"}

// LikeResult is the server's answer to a like toggle.
type LikeResult struct {
	PostID int64 `json:"postId"`
	Likes  int   `json:"likes"`
	Liked  bool  `json:"isLiked"`
}

// RequestStatus is the review state of a business request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// CanTransition reports whether a review may move a request from s to next.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	return s == RequestPending && (next == RequestApproved || next == RequestRejected)
}

// BusinessRequest is an owner's request to list a restaurant.
type BusinessRequest struct {
	ID                int64         `json:"id,omitempty"`
	Name              string        `json:"name"`
	CategoryName      string        `json:"categoryName"`
	Phone             string        `json:"phone"`
	RoadAddressName   string        `json:"roadAddressName"`
	X                 float64       `json:"x"`
	Y                 float64       `json:"y"`
	PlaceURL          string        `json:"placeUrl"`
	FundingGoalAmount int64         `json:"fundingGoalAmount"`
	FundingStartDate  string        `json:"fundingStartDate"`
	FundingEndDate    string        `json:"fundingEndDate"`
	ImageURL          string        `json:"imageUrl,omitempty"`
	Status            RequestStatus `json:"status,omitempty"`
	MemberEmail       string        `json:"memberEmail"`
	MemberName        string        `json:"memberName"`
	CreatedAt         string        `json:"createdAt,omitempty"`
	ReviewedAt        string        `json:"reviewedAt,omitempty"`
	ReviewComment     string        `json:"reviewComment,omitempty"`
}

// ReviewDecision is the admin payload for reviewing a request.
type ReviewDecision struct {
	ID            int64         `json:"id"`
	Status        RequestStatus `json:"status"`
	ReviewComment string        `json:"reviewComment"`
}

// Member is an authenticated account.
type Member struct {
	Email      string   `json:"email"`
	Nickname   string   `json:"nickname"`
	SocialType string   `json:"socialType"`
	RoleNames  []string `json:"roleNames"`
}

// IsAdmin reports whether the member carries the admin role.
func (m Member) IsAdmin() bool {
	for _, r := range m.RoleNames {
		if strings.EqualFold(r, "ADMIN") || strings.EqualFold(r, "ROLE_ADMIN") {
			return true
		}
	}
	return false
}

// DisplayName prefers the nickname.
func (m Member) DisplayName() string {
	if m.Nickname != "" {
		return m.Nickname
	}
	return m.Email
}

// Registration is the payload for creating an account.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"pw"`
	Nickname string `json:"nickname"`
}

// MemberLocation is a saved address.
type MemberLocation struct {
	ID           int64   `json:"id,omitempty"`
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Address      string  `json:"address"`
	RoadAddress  string  `json:"roadAddress"`
	KakaoPlaceID string  `json:"kakaoPlaceId"`
}

// SelectedLocation is the address currently used for proximity search.
type SelectedLocation struct {
	LocationID int64     `json:"locationId"`
	Address    string    `json:"address"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	SelectedAt time.Time `json:"selectedAt"`
}

// Notification is a message for the member.
type Notification struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Read      bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
}

// FundingProgress aggregates specialty funding totals.
type FundingProgress struct {
	TotalFundingAmount int64 `json:"totalFundingAmount"`
	TotalGoalAmount    int64 `json:"totalGoalAmount"`
	FundedCount        int   `json:"fundedCount"`
}

// WishlistItem is a restaurant the member saved for later, carrying the
// restaurant fields the list shows.
type WishlistItem struct {
	ID                 int64  `json:"id"`
	MemberEmail        string `json:"memberEmail"`
	RestaurantID       int64  `json:"restaurantId"`
	RestaurantName     string `json:"restaurantName"`
	CategoryName       string `json:"categoryName"`
	RoadAddressName    string `json:"roadAddressName"`
	FundingAmount      int64  `json:"fundingAmount"`
	TotalFundingAmount int64  `json:"totalFundingAmount"`
	FundingGoalAmount  int64  `json:"fundingGoalAmount"`
	CreatedAt          string `json:"createdAt,omitempty"`
}

// Raised returns the amount funded so far.
func (w WishlistItem) Raised() int64 {
	return w.FundingAmount + w.TotalFundingAmount
}

// Percent returns progress towards the funding goal.
func (w WishlistItem) Percent() float64 {
	return FundingPercent(w.Raised(), w.FundingGoalAmount)
}

// SlotStatus is the lifecycle of a single-serving funding slot.
type SlotStatus string

const (
	SlotPlanned SlotStatus = "PLANNED"
	SlotActive  SlotStatus = "ACTIVE"
	SlotSuccess SlotStatus = "SUCCESS"
	SlotFailed  SlotStatus = "FAILED"
	SlotPaused  SlotStatus = "PAUSED"
)

// ForOneSlot is a single-serving funding: one menu item sold at a discount
// once enough people join before the slot ends.
type ForOneSlot struct {
	SlotID              int64      `json:"slotId"`
	MenuID              int64      `json:"menuId"`
	MenuName            string     `json:"menuName"`
	OriginalPrice       int64      `json:"originalPrice"`
	FundingPrice        int64      `json:"fundingPrice"`
	DiscountPercent     int        `json:"discountPercent"`
	CurrentParticipants int        `json:"currentParticipants"`
	MinParticipants     int        `json:"minParticipants"`
	MaxParticipants     int        `json:"maxParticipants"`
	EndsAt              string     `json:"endsAt"`
	Status              SlotStatus `json:"status"`
	RestaurantID        int64      `json:"restaurantId"`
	RestaurantName      string     `json:"restaurantName"`
	RoadAddressName     string     `json:"roadAddressName"`
	Distance            float64    `json:"distance"`
	ImageURL            string     `json:"imageUrl"`
}

// Price is what one participant pays. Slots without an explicit funding
// price take the discount off the original price.
func (s ForOneSlot) Price() int64 {
	if s.FundingPrice > 0 {
		return s.FundingPrice
	}
	if s.DiscountPercent > 0 && s.DiscountPercent < 100 {
		return s.OriginalPrice * int64(100-s.DiscountPercent) / 100
	}
	return s.OriginalPrice
}

// Full reports whether every seat is taken.
func (s ForOneSlot) Full() bool {
	return s.MaxParticipants > 0 && s.CurrentParticipants >= s.MaxParticipants
}

// Joinable reports whether a new participant can pay into the slot.
func (s ForOneSlot) Joinable() bool {
	return s.Status == SlotActive && !s.Full()
}

// ForOneFundingRequest joins a slot. The funding part is recorded like a
// regular restaurant funding.
type ForOneFundingRequest struct {
	SlotID int64 `json:"slotId"`
	FundingRecord
}

// ProfileUpdate changes the public profile.
type ProfileUpdate struct {
	Nickname string `json:"nickname"`
}

// PasswordChange replaces the password of a local account.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AccountDeletion confirms closing an account by repeating its email.
type AccountDeletion struct {
	ConfirmEmail string `json:"confirmEmail"`
}
