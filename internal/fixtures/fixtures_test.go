package fixtures

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"localfund/internal/api"
	"localfund/internal/checkout"
	"localfund/internal/model"
	"localfund/internal/payment"
	"localfund/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSession struct {
	mu    sync.Mutex
	token string
}

func (s *memSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *memSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func (s *memSession) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

type harness struct {
	url     string
	client  *api.Client
	session *memSession
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv, err := New(Config{Secret: "test-secret"})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	sess := &memSession{}
	return &harness{
		url:     ts.URL,
		client:  api.New(api.Config{BaseURL: ts.URL, Timeout: 5 * time.Second, Session: sess}),
		session: sess,
	}
}

func (h *harness) login(t *testing.T, email, password string) model.Member {
	t.Helper()
	res, err := h.client.Login(context.Background(), api.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	h.session.set(res.AccessToken)
	return res.Member
}

func TestDefaultSeedParses(t *testing.T) {
	seed, err := DefaultSeed()
	require.NoError(t, err)
	assert.Len(t, seed.Members, 3)
	assert.NotEmpty(t, seed.Restaurants)
	assert.Len(t, seed.Specialties, 10)
	assert.Len(t, seed.Posts, 12)
	assert.Equal(t, "user@localfund.kr", seed.Notifications[0].MemberEmail)
	assert.Equal(t, []string{"USER", "ADMIN"}, seed.Members[0].RoleNames)
	assert.Equal(t, "07:00-21:00", seed.Restaurants[0].BusinessHours)
	assert.Equal(t, "역삼역 근처에서 혼밥하기 좋은 곳 있을까요?", seed.Posts[1].Content)
}

func TestNewWithDefaultSeed(t *testing.T) {
	srv, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, srv.Handler())
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Login(ctx, api.Credentials{Email: "user@localfund.kr", Password: "wrong"})
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	m := h.login(t, "user@localfund.kr", "user1234")
	assert.Equal(t, "동네미식가", m.Nickname)

	me, err := h.client.MyPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user@localfund.kr", me.Email)
}

func TestBadTokenIsRejected(t *testing.T) {
	h := newHarness(t)
	h.session.set("not-a-jwt")

	_, err := h.client.MyPage(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Empty(t, h.session.Token(), "a 401 clears the session")
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.CreatePost(context.Background(), model.Post{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestRegisterThenLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.client.Register(ctx, model.Registration{Email: "new@localfund.kr", Password: "pw", Nickname: "새내기"}))
	err := h.client.Register(ctx, model.Registration{Email: "new@localfund.kr", Password: "pw"})
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Code)

	m := h.login(t, "new@localfund.kr", "pw")
	assert.Equal(t, "새내기", m.Nickname)
}

func TestNearbyRestaurantsPageWithinRadius(t *testing.T) {
	h := newHarness(t)
	q := api.NearbyQuery{Lat: 37.5027, Lng: 127.0352, Radius: 10000}

	first, err := h.client.NearbyRestaurants(context.Background(), q, 0, 2)
	require.NoError(t, err)
	assert.Len(t, first.Items, 2)
	assert.False(t, first.Last)
	assert.Equal(t, 5, first.Total, "Busan is out of range")
	assert.Equal(t, "역삼 비빔밥집", first.Items[0].Name, "nearest first")

	last, err := h.client.NearbyRestaurants(context.Background(), q, 2, 2)
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)
	assert.True(t, last.Last)
}

func TestRestaurantDetailAndMenus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	r, err := h.client.Restaurant(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, r.FundingPercent, 0.01)

	menus, err := h.client.Menus(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, menus, 3)

	_, err = h.client.Restaurant(ctx, 999)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestSpecialtyQueries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	all, err := h.client.Specialties(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	gb, err := h.client.SpecialtiesBySido(ctx, "경상북도", "")
	require.NoError(t, err)
	assert.Len(t, gb, 3)

	andong, err := h.client.SpecialtiesBySido(ctx, "경상북도", "안동시")
	require.NoError(t, err)
	require.Len(t, andong, 1)
	assert.Equal(t, "안동 간고등어", andong[0].Title)

	found, err := h.client.SearchSpecialties(ctx, "감귤")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	progress, err := h.client.SpecialtyFundingProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.FundedCount)
}

func TestFundingCheckoutEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	member := h.login(t, "user@localfund.kr", "user1234")

	before, err := h.client.Restaurant(ctx, 2)
	require.NoError(t, err)

	flow := checkout.NewFlow(checkout.Order{
		Kind:       checkout.KindFunding,
		TargetID:   2,
		TargetName: before.Name,
		Items:      []model.LineItem{{Name: "산채비빔밥", Price: 11000, Quantity: 2}},
	}, checkout.Deps{
		Provider: payment.NewGateway(h.url, 5*time.Second, nil),
		Recorder: h.client,
		Member:   member,
	})
	require.NoError(t, flow.Submit(checkout.Buyer{Name: "김민수", Phone: "010-1111-2222", Email: "user@localfund.kr"}, checkout.Consent{Terms: true}))

	res, err := flow.Pay(ctx, checkout.KakaoPay)
	require.NoError(t, err)
	require.NotNil(t, res.Funding)
	assert.NotZero(t, res.Funding.ID)
	assert.True(t, strings.HasPrefix(res.ImpUID, "imp_"))
	assert.Equal(t, checkout.StateSuccess, flow.State())

	after, err := h.client.Restaurant(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, before.Raised()+22000, after.Raised())

	mine, err := h.client.MemberFundings(ctx, member.Email)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, res.MerchantUID, mine[0].MerchantUID)

	got, err := h.client.Funding(ctx, res.Funding.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ImpUID, got.ImpUID)
}

func TestGatewayDeclinesAndCancels(t *testing.T) {
	h := newHarness(t)
	gw := payment.NewGateway(h.url, 5*time.Second, nil)
	ctx := context.Background()

	res, err := gw.RequestPay(ctx, payment.Request{PG: "kakaopay", MerchantUID: "m1", Amount: PaymentLimit + 1, BuyerName: "a"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "card limit exceeded", res.ErrorMsg)

	res, err = gw.RequestPay(ctx, payment.Request{PG: "kakaopay", MerchantUID: "m2", Amount: 1000, BuyerName: CancelBuyerName})
	require.NoError(t, err)
	assert.Equal(t, payment.ErrCancelled.Error(), res.ErrorMsg)
}

func TestSpecialtyOrderLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	member := h.login(t, "user@localfund.kr", "user1234")

	flow := checkout.NewFlow(checkout.Order{
		Kind:       checkout.KindSpecialty,
		TargetID:   1,
		TargetName: "제주 감귤",
		Quantity:   2,
		UnitPrice:  25000,
	}, checkout.Deps{
		Provider: payment.NewGateway(h.url, 5*time.Second, nil),
		Recorder: h.client,
		Member:   member,
	})
	require.NoError(t, flow.Submit(checkout.Buyer{
		Name: "김민수", Phone: "010-1111-2222", Email: "user@localfund.kr",
		ZipCode: "06236", Address: "서울 강남구 테헤란로 152", DetailAddress: "10층",
	}, checkout.Consent{Terms: true, SMS: true}))
	res, err := flow.Pay(ctx, checkout.Card)
	require.NoError(t, err)
	require.NotNil(t, res.Order)

	page, err := h.client.MemberSpecialtyOrders(ctx, member.Email, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, model.OrderPaid, page.Items[0].Status)
	assert.Equal(t, res.ImpUID, page.Items[0].ImpUID)

	stats, err := h.client.SpecialtyOrderStatistics(ctx, member.Email)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatistics{TotalOrders: 1, TotalAmount: 50000, PaidOrders: 1}, stats)

	require.NoError(t, h.client.CancelSpecialtyOrder(ctx, res.Order.ID))
	o, err := h.client.SpecialtyOrder(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, o.Status)

	err = h.client.CancelSpecialtyOrder(ctx, res.Order.ID)
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Code)
}

func TestCommunityPostsAndLikes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.client.Posts(ctx, api.PostQuery{}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.False(t, page.Last)
	assert.Equal(t, "보성 녹차 펀딩 시작", page.Items[0].Title, "newest first")

	notices, err := h.client.Posts(ctx, api.PostQuery{Category: "NOTICE"}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, notices.Items, 2)

	found, err := h.client.Posts(ctx, api.PostQuery{Keyword: "감귤"}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, found.Items, 1)

	h.login(t, "user@localfund.kr", "user1234")
	liked, err := h.client.ToggleLike(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.LikeResult{PostID: 1, Likes: 6, Liked: true}, liked)

	unliked, err := h.client.ToggleLike(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.LikeResult{PostID: 1, Likes: 5, Liked: false}, unliked)

	p, err := h.client.Post(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 43, p.Views, "viewing counts")
}

func TestPostEditingIsAuthorOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.login(t, "owner@localfund.kr", "owner1234")
	p, err := h.client.CreatePost(ctx, model.Post{Title: "새 글", Content: "내용", Category: "FREE"})
	require.NoError(t, err)
	assert.Equal(t, "을지로사장", p.Author)

	h.login(t, "user@localfund.kr", "user1234")
	_, err = h.client.UpdatePost(ctx, model.Post{ID: p.ID, Title: "탈취"})
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)

	h.login(t, "owner@localfund.kr", "owner1234")
	updated, err := h.client.UpdatePost(ctx, model.Post{ID: p.ID, Title: "고친 글"})
	require.NoError(t, err)
	assert.Equal(t, "고친 글", updated.Title)
	assert.Equal(t, "내용", updated.Content)

	require.NoError(t, h.client.DeletePost(ctx, p.ID))
	_, err = h.client.Post(ctx, p.ID)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestComments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	member := h.login(t, "user@localfund.kr", "user1234")

	c, err := h.client.AddComment(ctx, 3, "확인했습니다", member)
	require.NoError(t, err)
	assert.Equal(t, member.Email, c.AuthorEmail)

	comments, err := h.client.Comments(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	err = h.client.DeleteComment(ctx, 3, c.ID, "someone@else.kr")
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)

	require.NoError(t, h.client.DeleteComment(ctx, 3, c.ID, member.Email))
	comments, err = h.client.Comments(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestBusinessRequestReview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.login(t, "owner@localfund.kr", "owner1234")
	submitted, err := h.client.SubmitBusinessRequest(ctx, model.BusinessRequest{
		Name:              "연남 파스타",
		CategoryName:      "음식점 > 양식",
		FundingGoalAmount: 900000,
		FundingStartDate:  "2026-11-01",
		FundingEndDate:    "2026-12-31",
	}, &api.Image{Filename: "front.jpg", Data: bytes.NewReader([]byte("jpeg"))})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, submitted.Status)
	assert.Contains(t, submitted.ImageURL, "front.jpg")

	mine, err := h.client.MemberBusinessRequests(ctx, "owner@localfund.kr")
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	_, err = h.client.PendingBusinessRequests(ctx)
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)

	h.login(t, "admin@localfund.kr", "admin1234")
	n, err := h.client.PendingBusinessRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := h.client.AdminBusinessRequests(ctx, model.RequestPending, 0, 20)
	require.NoError(t, err)
	assert.Len(t, pending.Items, 2)

	reviewed, err := h.client.ReviewBusinessRequest(ctx, model.ReviewDecision{ID: submitted.ID, Status: model.RequestApproved, ReviewComment: "환영합니다"})
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, reviewed.Status)
	assert.NotEmpty(t, reviewed.ReviewedAt)

	_, err = h.client.ReviewBusinessRequest(ctx, model.ReviewDecision{ID: submitted.ID, Status: model.RequestRejected})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Code)

	all, err := h.client.AdminBusinessRequests(ctx, "", 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)
}

func TestNotifications(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t, "user@localfund.kr", "user1234")
	email := "user@localfund.kr"

	list, err := h.client.Notifications(ctx, email, 0, 10)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	unread, err := h.client.UnreadNotifications(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, h.client.MarkAllNotificationsRead(ctx, email))
	unread, err = h.client.UnreadNotifications(ctx, email)
	require.NoError(t, err)
	assert.Zero(t, unread)

	require.NoError(t, h.client.DeleteReadNotifications(ctx, email))
	list, err = h.client.Notifications(ctx, email, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	assert.ErrorIs(t, h.client.DeleteNotification(ctx, 1), api.ErrNotFound)
}

func TestLocations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t, "user@localfund.kr", "user1234")

	locs, err := h.client.Locations(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 1)

	created, err := h.client.CreateLocation(ctx, model.MemberLocation{Name: "집", Address: "서울 마포구", Lat: 37.55, Lng: 126.91})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	created.Name = "우리집"
	updated, err := h.client.UpdateLocation(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "우리집", updated.Name)

	require.NoError(t, h.client.DeleteLocation(ctx, created.ID))
	locs, err = h.client.Locations(ctx)
	require.NoError(t, err)
	assert.Len(t, locs, 1)
}

func TestStartAndClose(t *testing.T) {
	srv, err := New(Config{})
	require.NoError(t, err)
	run, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)

	resp, err := http.Get(run.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, run.Close(ctx))
}

func TestKakaoKeywordSearch(t *testing.T) {
	h := newHarness(t)
	kakao := search.NewKakaoClient("fixtures", h.url)

	places, err := kakao.SearchKeyword(context.Background(), "역삼", 0, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, places)
	assert.Equal(t, "역삼 비빔밥집", places[0].Name)
	assert.NotZero(t, places[0].Lat)

	places, err = kakao.SearchKeyword(context.Background(), "해운대해수욕장", 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "L4", places[0].PlaceID)
}

func TestKakaoKeyIsNotABearerToken(t *testing.T) {
	h := newHarness(t)

	do := func(path, auth string) int {
		req, err := http.NewRequest(http.MethodGet, h.url+path, nil)
		require.NoError(t, err)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, do("/v2/local/search/keyword.json?query=gangnam", "KakaoAK fixtures"))
	assert.Equal(t, http.StatusUnauthorized, do("/v2/local/search/keyword.json?query=gangnam", ""))
	assert.Equal(t, http.StatusUnauthorized, do("/v2/local/search/keyword.json?query=gangnam", "Bearer x"))
	assert.Equal(t, http.StatusUnauthorized, do("/api/member/mypage", "KakaoAK fixtures"))
}

func TestWishlist(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	on, err := h.client.IsWishlisted(ctx, 3)
	require.NoError(t, err)
	assert.False(t, on, "anonymous visitors have nothing saved")

	h.login(t, "user@localfund.kr", "user1234")
	on, err = h.client.IsWishlisted(ctx, 3)
	require.NoError(t, err)
	assert.True(t, on)

	items, err := h.client.Wishlist(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].RestaurantID)
	assert.Equal(t, "선릉 수제버거", items[0].RestaurantName)
	assert.Positive(t, items[0].FundingGoalAmount)

	on, err = h.client.ToggleWishlist(ctx, 2)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = h.client.ToggleWishlist(ctx, 2)
	require.NoError(t, err)
	assert.False(t, on)

	_, err = h.client.ToggleWishlist(ctx, 999)
	assert.ErrorIs(t, err, api.ErrNotFound)

	require.NoError(t, h.client.RemoveWishlist(ctx, 6))
	assert.ErrorIs(t, h.client.RemoveWishlist(ctx, 6), api.ErrNotFound)
	items, err = h.client.Wishlist(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestForOneNearbySkipsFinishedAndFarSlots(t *testing.T) {
	h := newHarness(t)

	page, err := h.client.NearbyForOne(context.Background(), api.NearbyQuery{Lat: 37.5027, Lng: 127.0352, Radius: 3000}, 0, 10)
	require.NoError(t, err)
	var ids []int64
	for _, s := range page.Items {
		ids = append(ids, s.SlotID)
	}
	assert.Equal(t, []int64{1, 3, 2, 4}, ids)

	first := page.Items[0]
	assert.Equal(t, "산채비빔밥", first.MenuName)
	assert.Equal(t, "역삼 비빔밥집", first.RestaurantName)
	assert.Equal(t, int64(11000), first.OriginalPrice)
	assert.Equal(t, int64(8800), first.Price())
	assert.Equal(t, int64(9000), page.Items[2].Price(), "25% off a 12,000 menu")
}

func TestForOneCheckoutTakesASeat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	member := h.login(t, "user@localfund.kr", "user1234")
	origin := api.NearbyQuery{Lat: 37.5027, Lng: 127.0352, Radius: 3000}

	before, err := h.client.Restaurant(ctx, 2)
	require.NoError(t, err)

	flow := checkout.NewFlow(checkout.Order{
		Kind:       checkout.KindForOne,
		TargetID:   2,
		TargetName: before.Name,
		SlotID:     1,
		Items:      []model.LineItem{{Name: "산채비빔밥", Price: 8800, Quantity: 1}},
	}, checkout.Deps{
		Provider: payment.NewGateway(h.url, 5*time.Second, nil),
		Recorder: h.client,
		Member:   member,
	})
	require.NoError(t, flow.Submit(checkout.Buyer{Name: "김민수", Phone: "010-1111-2222", Email: "user@localfund.kr"}, checkout.Consent{Terms: true}))
	res, err := flow.Pay(ctx, checkout.KakaoPay)
	require.NoError(t, err)
	require.NotNil(t, res.Funding)
	assert.NotZero(t, res.Funding.ID)
	assert.Equal(t, int64(8800), res.Funding.TotalAmount)

	after, err := h.client.Restaurant(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, before.Raised()+8800, after.Raised())

	page, err := h.client.NearbyForOne(ctx, origin, 0, 10)
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)
	assert.Equal(t, int64(1), page.Items[0].SlotID)
	assert.Equal(t, 4, page.Items[0].CurrentParticipants)
}

func TestForOneFundingRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	join := func(slot, restaurant, amount int64) error {
		_, err := h.client.CreateForOneFunding(ctx, model.ForOneFundingRequest{
			SlotID: slot,
			FundingRecord: model.FundingRecord{
				RestaurantID:  restaurant,
				TotalAmount:   amount,
				PaymentMethod: "card",
				MerchantUID:   "merchant_slot",
				ImpUID:        "imp_slot",
			},
		})
		return err
	}

	assert.ErrorIs(t, join(1, 2, 8800), api.ErrUnauthorized)

	h.login(t, "user@localfund.kr", "user1234")
	cases := []struct {
		name               string
		slot, rest, amount int64
		code               int
	}{
		{"full", 3, 5, 4000, http.StatusConflict},
		{"not open yet", 4, 4, 7200, http.StatusBadRequest},
		{"wrong amount", 1, 2, 11000, http.StatusBadRequest},
		{"wrong restaurant", 1, 3, 8800, http.StatusBadRequest},
		{"unknown slot", 99, 2, 8800, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var se *api.StatusError
			require.ErrorAs(t, join(tc.slot, tc.rest, tc.amount), &se)
			assert.Equal(t, tc.code, se.Code)
		})
	}
}

func TestRestaurantSearch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.client.SearchRestaurants(ctx, "강남구", 0, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)

	page, err = h.client.SearchRestaurants(ctx, "강남구 떡볶이", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "논현 떡볶이", page.Items[0].Name)

	page, err = h.client.SearchRestaurants(ctx, "  ", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestProfilePasswordAndAccountDeletion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t, "user@localfund.kr", "user1234")

	var se *api.StatusError
	_, err := h.client.UpdateProfile(ctx, model.ProfileUpdate{Nickname: "a"})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)

	updated, err := h.client.UpdateProfile(ctx, model.ProfileUpdate{Nickname: "골목미식가"})
	require.NoError(t, err)
	assert.Equal(t, "골목미식가", updated.Nickname)
	me, err := h.client.MyPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "골목미식가", me.Nickname)

	err = h.client.ChangePassword(ctx, model.PasswordChange{CurrentPassword: "wrong", NewPassword: "newpass1"})
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Body, "current password is incorrect")
	require.NoError(t, h.client.ChangePassword(ctx, model.PasswordChange{CurrentPassword: "user1234", NewPassword: "newpass1"}))

	_, err = h.client.Login(ctx, api.Credentials{Email: "user@localfund.kr", Password: "user1234"})
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	h.login(t, "user@localfund.kr", "newpass1")

	err = h.client.DeleteAccount(ctx, "someone@else.kr")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	require.NoError(t, h.client.DeleteAccount(ctx, "USER@localfund.kr"))

	_, err = h.client.Login(ctx, api.Credentials{Email: "user@localfund.kr", Password: "newpass1"})
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}
