package fixtures

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"localfund/internal/model"
)

var (
	errNotFound  = errors.New("not found")
	errForbidden = errors.New("forbidden")
	errConflict  = errors.New("conflict")
	errInvalid   = errors.New("invalid request")
)

const timeLayout = "2006-01-02T15:04:05"

// store keeps the fixture data in memory. Every method takes the lock.
type store struct {
	mu sync.Mutex

	members       map[string]SeedMember
	restaurants   []model.Restaurant
	menus         []model.MenuItem
	specialties   []model.Specialty
	posts         []model.Post
	comments      []model.Comment
	likes         map[int64]map[string]bool
	notifications []SeedNotification
	locations     []SeedLocation
	fundings      []model.FundingRecord
	orders        []model.SpecialtyOrder
	requests      []model.BusinessRequest
	wishlist      []model.WishlistItem
	slots         []model.ForOneSlot

	nextID int64
	now    func() time.Time
}

func newStore(seed Seed) *store {
	s := &store{
		members:       make(map[string]SeedMember),
		restaurants:   append([]model.Restaurant(nil), seed.Restaurants...),
		menus:         append([]model.MenuItem(nil), seed.Menus...),
		specialties:   append([]model.Specialty(nil), seed.Specialties...),
		posts:         append([]model.Post(nil), seed.Posts...),
		comments:      append([]model.Comment(nil), seed.Comments...),
		likes:         make(map[int64]map[string]bool),
		notifications: append([]SeedNotification(nil), seed.Notifications...),
		locations:     append([]SeedLocation(nil), seed.Locations...),
		requests:      append([]model.BusinessRequest(nil), seed.BusinessRequests...),
		wishlist:      append([]model.WishlistItem(nil), seed.Wishlist...),
		slots:         append([]model.ForOneSlot(nil), seed.ForOneSlots...),
		nextID:        1000,
		now:           time.Now,
	}
	for _, m := range seed.Members {
		s.members[strings.ToLower(m.Email)] = m
	}
	return s
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) stamp() string {
	return s.now().Format(timeLayout)
}

// Members

func (s *store) authenticate(email, password string) (model.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[strings.ToLower(email)]
	if !ok || m.Password != password {
		return model.Member{}, false
	}
	return m.Member, true
}

func (s *store) member(email string) (model.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[strings.ToLower(email)]
	return m.Member, ok
}

func (s *store) register(r model.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(r.Email))
	if key == "" || r.Password == "" {
		return errInvalid
	}
	if _, ok := s.members[key]; ok {
		return errConflict
	}
	nickname := r.Nickname
	if nickname == "" {
		nickname = strings.SplitN(key, "@", 2)[0]
	}
	s.members[key] = SeedMember{
		Member:   model.Member{Email: key, Nickname: nickname, SocialType: "LOCAL", RoleNames: []string{"USER"}},
		Password: r.Password,
	}
	return nil
}

func (s *store) updateNickname(email, nickname string) (model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	m, ok := s.members[key]
	if !ok {
		return model.Member{}, errNotFound
	}
	m.Nickname = nickname
	s.members[key] = m
	return m.Member, nil
}

func (s *store) changePassword(email, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	m, ok := s.members[key]
	if !ok {
		return errNotFound
	}
	if m.Password != current {
		return errForbidden
	}
	m.Password = next
	s.members[key] = m
	return nil
}

// deleteMember removes the account with its saved locations and wishlist.
// Fundings and posts stay, as the backend keeps them for the restaurants.
func (s *store) deleteMember(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := s.members[key]; !ok {
		return errNotFound
	}
	delete(s.members, key)
	s.locations = slices.DeleteFunc(s.locations, func(l SeedLocation) bool {
		return strings.EqualFold(l.MemberEmail, email)
	})
	s.wishlist = slices.DeleteFunc(s.wishlist, func(w model.WishlistItem) bool {
		return strings.EqualFold(w.MemberEmail, email)
	})
	return nil
}

func (s *store) locationsOf(email string) []model.MemberLocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.MemberLocation{}
	for _, l := range s.locations {
		if strings.EqualFold(l.MemberEmail, email) {
			out = append(out, l.MemberLocation)
		}
	}
	return out
}

func (s *store) saveLocation(email string, loc model.MemberLocation) (model.MemberLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loc.ID == 0 {
		loc.ID = s.id()
		s.locations = append(s.locations, SeedLocation{MemberLocation: loc, MemberEmail: email})
		return loc, nil
	}
	for i, l := range s.locations {
		if l.ID != loc.ID {
			continue
		}
		if !strings.EqualFold(l.MemberEmail, email) {
			return model.MemberLocation{}, errForbidden
		}
		s.locations[i].MemberLocation = loc
		return loc, nil
	}
	return model.MemberLocation{}, errNotFound
}

func (s *store) deleteLocation(email string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.locations {
		if l.ID != id {
			continue
		}
		if !strings.EqualFold(l.MemberEmail, email) {
			return errForbidden
		}
		s.locations = append(s.locations[:i], s.locations[i+1:]...)
		return nil
	}
	return errNotFound
}

// Restaurants

func (s *store) allRestaurants() []model.Restaurant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Restaurant, len(s.restaurants))
	for i, r := range s.restaurants {
		r.FundingPercent = r.Percent()
		out[i] = r
	}
	return out
}

func (s *store) restaurant(id int64) (model.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.restaurants {
		if r.ID == id {
			r.FundingPercent = r.Percent()
			return r, nil
		}
	}
	return model.Restaurant{}, errNotFound
}

func (s *store) menusOf(id int64) []model.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.MenuItem{}
	for _, m := range s.menus {
		if m.RestaurantID == id {
			out = append(out, m)
		}
	}
	return out
}

// Specialties

func (s *store) allSpecialties() []model.Specialty {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Specialty(nil), s.specialties...)
}

func (s *store) specialty(id int64) (model.Specialty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range s.specialties {
		if sp.ID == id {
			return sp, nil
		}
	}
	return model.Specialty{}, errNotFound
}

func (s *store) fundingProgress() model.FundingProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	var p model.FundingProgress
	for _, sp := range s.specialties {
		p.TotalFundingAmount += sp.Raised()
		p.TotalGoalAmount += sp.FundingGoalAmount
		if sp.FundingGoalAmount > 0 && sp.Raised() >= sp.FundingGoalAmount {
			p.FundedCount++
		}
	}
	return p
}

// Fundings

func (s *store) createFunding(rec model.FundingRecord) (model.FundingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createFundingLocked(rec)
}

func (s *store) createFundingLocked(rec model.FundingRecord) (model.FundingRecord, error) {
	if rec.TotalAmount <= 0 || rec.MerchantUID == "" {
		return model.FundingRecord{}, errInvalid
	}
	idx := -1
	for i, r := range s.restaurants {
		if r.ID == rec.RestaurantID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.FundingRecord{}, errNotFound
	}
	for _, f := range s.fundings {
		if f.MerchantUID == rec.MerchantUID {
			return model.FundingRecord{}, errConflict
		}
	}
	rec.ID = s.id()
	rec.CreatedAt = s.stamp()
	if rec.Status == "" {
		rec.Status = model.FundingCompleted
	}
	if rec.RestaurantName == "" {
		rec.RestaurantName = s.restaurants[idx].Name
	}
	s.restaurants[idx].TotalFundingAmount += rec.TotalAmount
	s.fundings = append(s.fundings, rec)
	return rec, nil
}

func (s *store) fundingsWhere(match func(model.FundingRecord) bool) []model.FundingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.FundingRecord{}
	for i := len(s.fundings) - 1; i >= 0; i-- {
		if match(s.fundings[i]) {
			out = append(out, s.fundings[i])
		}
	}
	return out
}

func (s *store) funding(id int64) (model.FundingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.fundings {
		if f.ID == id {
			return f, nil
		}
	}
	return model.FundingRecord{}, errNotFound
}

// Specialty orders

func (s *store) createOrder(o model.SpecialtyOrder) (model.SpecialtyOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Quantity <= 0 || o.MerchantUID == "" {
		return model.SpecialtyOrder{}, errInvalid
	}
	found := false
	for _, sp := range s.specialties {
		if sp.ID == o.SpecialtyID {
			found = true
			if o.SpecialtyName == "" {
				o.SpecialtyName = sp.Title
			}
			break
		}
	}
	if !found {
		return model.SpecialtyOrder{}, errNotFound
	}
	o.ID = s.id()
	o.TotalAmount = o.UnitPrice * int64(o.Quantity)
	o.Status = model.OrderPending
	o.CreatedAt = s.stamp()
	s.orders = append(s.orders, o)
	return o, nil
}

func (s *store) completeOrder(impUID, merchantUID string) (model.SpecialtyOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.orders {
		if o.MerchantUID != merchantUID {
			continue
		}
		if o.Status != model.OrderPending {
			return model.SpecialtyOrder{}, errConflict
		}
		s.orders[i].ImpUID = impUID
		s.orders[i].Status = model.OrderPaid
		for j, sp := range s.specialties {
			if sp.ID == o.SpecialtyID {
				s.specialties[j].TotalFundingAmount += o.TotalAmount
			}
		}
		return s.orders[i], nil
	}
	return model.SpecialtyOrder{}, errNotFound
}

func (s *store) ordersOf(memberID string) []model.SpecialtyOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.SpecialtyOrder{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		if strings.EqualFold(s.orders[i].MemberID, memberID) {
			out = append(out, s.orders[i])
		}
	}
	return out
}

func (s *store) order(id int64) (model.SpecialtyOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.SpecialtyOrder{}, errNotFound
}

func (s *store) cancelOrder(email string, id int64) (model.SpecialtyOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.orders {
		if o.ID != id {
			continue
		}
		if !strings.EqualFold(o.MemberID, email) {
			return model.SpecialtyOrder{}, errForbidden
		}
		if o.Status == model.OrderCancelled {
			return model.SpecialtyOrder{}, errConflict
		}
		if o.Status == model.OrderPaid {
			for j, sp := range s.specialties {
				if sp.ID == o.SpecialtyID {
					s.specialties[j].TotalFundingAmount -= o.TotalAmount
				}
			}
		}
		s.orders[i].Status = model.OrderCancelled
		return s.orders[i], nil
	}
	return model.SpecialtyOrder{}, errNotFound
}

func (s *store) orderStatistics(memberID string) model.OrderStatistics {
	var st model.OrderStatistics
	for _, o := range s.ordersOf(memberID) {
		st.TotalOrders++
		if o.Status == model.OrderPaid {
			st.PaidOrders++
			st.TotalAmount += o.TotalAmount
		}
	}
	return st
}

// Community

// postView decorates p for viewer. Caller holds the lock.
func (s *store) postView(p model.Post, viewer string) model.Post {
	p.Likes += len(s.likes[p.ID])
	p.Liked = viewer != "" && s.likes[p.ID][strings.ToLower(viewer)]
	p.CommentCount = 0
	for _, c := range s.comments {
		if c.PostID == p.ID {
			p.CommentCount++
		}
	}
	return p
}

func (s *store) postsWhere(viewer string, match func(model.Post) bool) []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Post{}
	for _, p := range s.posts {
		if match(p) {
			out = append(out, s.postView(p, viewer))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

func (s *store) viewPost(id int64, viewer string) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID == id {
			s.posts[i].Views++
			return s.postView(s.posts[i], viewer), nil
		}
	}
	return model.Post{}, errNotFound
}

func (s *store) createPost(author model.Member, p model.Post) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Content) == "" {
		return model.Post{}, errInvalid
	}
	p.ID = s.id()
	p.Author = author.DisplayName()
	p.AuthorEmail = author.Email
	p.Views, p.Likes = 0, 0
	if p.Category == "" {
		p.Category = "FREE"
	}
	p.CreatedAt = s.stamp()
	p.UpdatedAt = p.CreatedAt
	s.posts = append(s.posts, p)
	return s.postView(p, author.Email), nil
}

func (s *store) updatePost(editor model.Member, p model.Post) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.posts {
		if cur.ID != p.ID {
			continue
		}
		if !strings.EqualFold(cur.AuthorEmail, editor.Email) {
			return model.Post{}, errForbidden
		}
		if p.Title != "" {
			s.posts[i].Title = p.Title
		}
		if p.Content != "" {
			s.posts[i].Content = p.Content
		}
		if p.Category != "" {
			s.posts[i].Category = p.Category
		}
		s.posts[i].ImageURL = p.ImageURL
		s.posts[i].UpdatedAt = s.stamp()
		return s.postView(s.posts[i], editor.Email), nil
	}
	return model.Post{}, errNotFound
}

func (s *store) deletePost(m model.Member, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID != id {
			continue
		}
		if !strings.EqualFold(p.AuthorEmail, m.Email) && !m.IsAdmin() {
			return errForbidden
		}
		s.posts = append(s.posts[:i], s.posts[i+1:]...)
		kept := s.comments[:0]
		for _, c := range s.comments {
			if c.PostID != id {
				kept = append(kept, c)
			}
		}
		s.comments = kept
		delete(s.likes, id)
		return nil
	}
	return errNotFound
}

func (s *store) toggleLike(id int64, email string) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID != id {
			continue
		}
		key := strings.ToLower(email)
		if s.likes[id] == nil {
			s.likes[id] = make(map[string]bool)
		}
		if s.likes[id][key] {
			delete(s.likes[id], key)
		} else {
			s.likes[id][key] = true
		}
		return s.postView(p, email), nil
	}
	return model.Post{}, errNotFound
}

func (s *store) commentsOf(postID int64) ([]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasPost(postID) {
		return nil, errNotFound
	}
	out := []model.Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *store) hasPost(id int64) bool {
	for _, p := range s.posts {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s *store) addComment(c model.Comment) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasPost(c.PostID) {
		return model.Comment{}, errNotFound
	}
	if strings.TrimSpace(c.Content) == "" {
		return model.Comment{}, errInvalid
	}
	c.ID = s.id()
	c.CreatedAt = s.stamp()
	s.comments = append(s.comments, c)
	return c, nil
}

func (s *store) deleteComment(postID, commentID int64, authorEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.comments {
		if c.PostID != postID || c.ID != commentID {
			continue
		}
		if !strings.EqualFold(c.AuthorEmail, authorEmail) {
			return errForbidden
		}
		s.comments = append(s.comments[:i], s.comments[i+1:]...)
		return nil
	}
	return errNotFound
}

// Business requests

func (s *store) submitRequest(m model.Member, r model.BusinessRequest) (model.BusinessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(r.Name) == "" || r.FundingGoalAmount <= 0 {
		return model.BusinessRequest{}, errInvalid
	}
	r.ID = s.id()
	r.Status = model.RequestPending
	r.MemberEmail = m.Email
	if r.MemberName == "" {
		r.MemberName = m.DisplayName()
	}
	r.CreatedAt = s.stamp()
	r.ReviewedAt, r.ReviewComment = "", ""
	s.requests = append(s.requests, r)
	return r, nil
}

func (s *store) requestsWhere(match func(model.BusinessRequest) bool) []model.BusinessRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.BusinessRequest{}
	for i := len(s.requests) - 1; i >= 0; i-- {
		if match(s.requests[i]) {
			out = append(out, s.requests[i])
		}
	}
	return out
}

func (s *store) request(id int64) (model.BusinessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return model.BusinessRequest{}, errNotFound
}

// review applies d. Approving lists the restaurant and both outcomes notify
// the requester.
func (s *store) review(d model.ReviewDecision) (model.BusinessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.requests {
		if r.ID != d.ID {
			continue
		}
		if !r.Status.CanTransition(d.Status) {
			return model.BusinessRequest{}, errConflict
		}
		r.Status = d.Status
		r.ReviewComment = d.ReviewComment
		r.ReviewedAt = s.stamp()
		s.requests[i] = r

		title := "가게 등록 거절"
		if d.Status == model.RequestApproved {
			title = "가게 등록 승인"
			s.restaurants = append(s.restaurants, model.Restaurant{
				ID:                s.id(),
				Name:              r.Name,
				CategoryName:      r.CategoryName,
				Phone:             r.Phone,
				RoadAddressName:   r.RoadAddressName,
				X:                 r.X,
				Y:                 r.Y,
				PlaceURL:          r.PlaceURL,
				FundingGoalAmount: r.FundingGoalAmount,
				FundingStartDate:  r.FundingStartDate,
				FundingEndDate:    r.FundingEndDate,
				ImageURL:          r.ImageURL,
			})
		}
		s.notifications = append(s.notifications, SeedNotification{
			Notification: model.Notification{
				ID:        s.id(),
				Title:     title,
				Message:   r.Name + ": " + r.ReviewComment,
				Type:      "BUSINESS",
				CreatedAt: r.ReviewedAt,
			},
			MemberEmail: r.MemberEmail,
		})
		return r, nil
	}
	return model.BusinessRequest{}, errNotFound
}

// Notifications

func (s *store) notificationsOf(email string) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Notification{}
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if strings.EqualFold(s.notifications[i].MemberEmail, email) {
			out = append(out, s.notifications[i].Notification)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

func (s *store) unreadCount(email string) int {
	n := 0
	for _, nt := range s.notificationsOf(email) {
		if !nt.Read {
			n++
		}
	}
	return n
}

func (s *store) markRead(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications[i].Read = true
			return nil
		}
	}
	return errNotFound
}

func (s *store) markAllRead(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if strings.EqualFold(n.MemberEmail, email) {
			s.notifications[i].Read = true
		}
	}
}

func (s *store) deleteNotifications(match func(SeedNotification) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notifications[:0]
	removed := 0
	for _, n := range s.notifications {
		if match(n) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return removed
}
