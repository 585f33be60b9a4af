package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"localfund/internal/api"
	"localfund/internal/checkout"
	"localfund/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunity_LoadsNextPageAtBottom(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "right", "right")
	require.Equal(t, model.ScreenCommunity, m.screen)
	require.Equal(t, 10, m.posts.Len())

	m, cmd := press(t, m, "G")
	require.NotNil(t, cmd)
	m, _ = settle(t, m, cmd)
	assert.Equal(t, 12, m.posts.Len())
	assert.False(t, m.posts.pager.HasMore())

	// Nothing left to fetch.
	_, cmd = press(t, m, "G")
	assert.Nil(t, cmd)
}

func TestCommunity_KeywordSearch(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "right", "right", "f")
	require.Equal(t, model.ModeInsert, m.mode)
	m = typeText(t, m, "후기")
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	m, _ = settle(t, m, cmd)

	assert.Equal(t, model.ModeNav, m.mode)
	items := m.posts.pager.Items()
	require.NotEmpty(t, items)
	assert.Less(t, len(items), 12)
	for _, p := range items {
		assert.True(t, strings.Contains(p.Title, "후기") || strings.Contains(p.Content, "후기"), p.Title)
	}

	m, _ = press(t, m, "f")
	m, cmd = press(t, m, "esc")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, 10, m.posts.Len())
}

func TestPostDetail_LikeIsOptimistic(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")

	m, _ = settle(t, m, loadPostCmd(h.client, 1, testTimeout))
	require.Equal(t, model.ScreenPostDetail, m.screen)
	liked, likes := m.postDetail.Liked()
	require.False(t, liked)

	m, cmd := press(t, m, "l")
	require.NotNil(t, cmd)
	pending, pendingLikes := m.postDetail.Liked()
	assert.True(t, pending)
	assert.Equal(t, likes+1, pendingLikes)

	// A second press while the first is in flight is ignored.
	_, again := press(t, m, "l")
	assert.Nil(t, again)

	m, _ = settle(t, m, cmd)
	settled, settledLikes := m.postDetail.Liked()
	assert.True(t, settled)
	assert.Equal(t, likes+1, settledLikes)

	m, _ = press(t, m, "b")
	assert.Equal(t, model.ScreenRestaurants, m.screen)
	assert.Nil(t, m.postDetail)
}

func TestPostDetail_LikeRequiresLogin(t *testing.T) {
	h, m := newTestApp(t)

	m, _ = settle(t, m, loadPostCmd(h.client, 1, testTimeout))
	m, _ = press(t, m, "l")
	assert.Equal(t, model.ScreenLogin, m.screen)
	require.NotNil(t, m.login)
	assert.Equal(t, "Log in to like posts.", m.login.notice)
}

func TestNotifications_MarkAllRead(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")

	m, cmd := press(t, m, "left")
	m, _ = settle(t, m, cmd)
	m, cmd = press(t, m, "m")
	require.Equal(t, model.ScreenNotifications, m.screen)
	m, _ = settle(t, m, cmd)
	assert.Equal(t, 2, m.notifications.Len())
	assert.Equal(t, 1, m.notifications.unread)

	m, cmd = press(t, m, "R")
	m, cmd = settle(t, m, cmd)
	assert.Equal(t, "All notifications marked as read", m.info)
	m, _ = settle(t, m, cmd)
	assert.Equal(t, 0, m.unread)
	assert.Equal(t, 0, m.notifications.unread)
	assert.Equal(t, 2, m.notifications.Len())

	m, cmd = press(t, m, "D")
	m, cmd = settle(t, m, cmd)
	m, _ = settle(t, m, cmd)
	assert.Equal(t, 0, m.notifications.Len())

	m, _ = press(t, m, "b")
	assert.Equal(t, model.ScreenMyPage, m.screen)
	assert.Nil(t, m.notifications)
}

func TestAdminRequests_RequiresAdmin(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")

	m, cmd := press(t, m, "left")
	m, _ = settle(t, m, cmd)
	m, _ = press(t, m, "A")
	assert.Equal(t, model.ScreenMyPage, m.screen)
	assert.Equal(t, "Only admins can review business requests", m.error)
}

func TestAdminRequests_ApprovePending(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "admin@localfund.kr", "admin1234")

	m, cmd := press(t, m, "left")
	m, _ = settle(t, m, cmd)
	m, cmd = press(t, m, "A")
	require.Equal(t, model.ScreenAdminRequests, m.screen)
	m, _ = settle(t, m, cmd)
	assert.Equal(t, 3, m.adminRequests.Len())
	assert.Equal(t, 1, m.adminRequests.pending)

	m, cmd = press(t, m, "t")
	assert.Equal(t, "Status: PENDING", m.info)
	m, _ = settle(t, m, cmd)
	require.Equal(t, 1, m.adminRequests.Len())

	m, _ = press(t, m, "a")
	require.Equal(t, model.ModeInsert, m.mode)
	m = typeText(t, m, "ok")
	m, cmd = press(t, m, "enter")
	m, cmd = settle(t, m, cmd)
	assert.Equal(t, model.ModeNav, m.mode)
	assert.Equal(t, "성수 베이글 is now APPROVED", m.info)
	r, ok := m.adminRequests.Selected()
	require.True(t, ok)
	assert.Equal(t, model.RequestApproved, r.Status)
	assert.Equal(t, "ok", r.ReviewComment)

	m, _ = settle(t, m, cmd)
	assert.Equal(t, 0, m.adminRequests.pending)

	m, _ = press(t, m, "x")
	assert.Equal(t, "request is already APPROVED", m.error)
	assert.Equal(t, model.ModeNav, m.mode)
}

func TestSpecialties_FiltersAndReset(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "right")
	require.Equal(t, model.ScreenSpecialties, m.screen)
	all := m.specialties.Len()
	require.Positive(t, all)

	m, _ = press(t, m, "d")
	assert.Equal(t, "Pick a province first (p)", m.info)

	m, _ = press(t, m, "p")
	assert.True(t, strings.HasPrefix(m.info, "Region: "))
	assert.LessOrEqual(t, m.specialties.Len(), all)

	m, _ = press(t, m, "x")
	assert.Equal(t, "Filters cleared", m.info)
	assert.Equal(t, all, m.specialties.Len())
}

func TestSpecialties_RefreshFetchesOnlyTheRegion(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "right", "p")
	sido := m.specialties.query.Sido
	require.NotEmpty(t, sido)
	before := m.specialties.src.Len()
	total := len(m.specialties.all)

	m, cmd := press(t, m, "r")
	require.NotNil(t, cmd)
	m, _ = settle(t, m, cmd)
	assert.Empty(t, m.error)
	assert.Equal(t, fmt.Sprintf("Refreshed %d in %s", before, sido), m.info)
	assert.Equal(t, before, m.specialties.src.Len())
	assert.Len(t, m.specialties.all, total)
}

func TestSpecialties_RefreshSearchesTheBackend(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "right")
	total := len(m.specialties.all)
	m.specialties.SetText("사과")
	m, cmd := press(t, m, "r")
	m, _ = settle(t, m, cmd)
	assert.Empty(t, m.error)
	assert.True(t, strings.HasPrefix(m.info, "Refreshed "), m.info)
	assert.Contains(t, m.info, `"사과"`)
	assert.Len(t, m.specialties.all, total)
}

func TestWishlist_SaveFromDetailAndRemove(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")

	m, cmd := settle(t, m, loadRestaurantDetailCmd(h.client, 2, testTimeout))
	m, _ = settle(t, m, cmd)
	require.Equal(t, model.ScreenRestaurantDetail, m.screen)
	assert.False(t, m.restaurantDetail.wishlisted)

	m, cmd = press(t, m, "w")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, "Saved to your wishlist", m.info)
	assert.True(t, m.restaurantDetail.wishlisted)
	assert.Contains(t, m.View(), "On your wishlist")

	// A reload keeps the marker.
	m, cmd = press(t, m, "r")
	m, cmd = settle(t, m, cmd)
	assert.True(t, m.restaurantDetail.wishlisted)
	m, _ = settle(t, m, cmd)
	assert.True(t, m.restaurantDetail.wishlisted)

	m, _ = press(t, m, "b", "left")
	require.Equal(t, model.ScreenMyPage, m.screen)
	m, cmd = press(t, m, "W")
	require.Equal(t, model.ScreenWishlist, m.screen)
	m, _ = settle(t, m, cmd)
	require.Equal(t, 3, m.wishlist.Len())

	sel, ok := m.wishlist.Selected()
	require.True(t, ok)
	m, cmd = press(t, m, "d")
	m, cmd = settle(t, m, cmd)
	assert.Equal(t, "Removed from your wishlist", m.info)
	m, _ = settle(t, m, cmd)
	assert.Equal(t, 2, m.wishlist.Len())
	on, err := h.client.IsWishlisted(context.Background(), sel.RestaurantID)
	require.NoError(t, err)
	assert.False(t, on)

	m, cmd = press(t, m, "enter")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, model.ScreenRestaurantDetail, m.screen)

	m, _ = press(t, m, "b", "b")
	assert.Equal(t, model.ScreenMyPage, m.screen)
	assert.Nil(t, m.wishlist)
}

func TestWishlist_SaveRequiresLogin(t *testing.T) {
	h, m := newTestApp(t)

	m, _ = settle(t, m, loadRestaurantDetailCmd(h.client, 2, testTimeout))
	m, _ = press(t, m, "w")
	assert.Equal(t, model.ScreenLogin, m.screen)
	require.NotNil(t, m.login)
	assert.Equal(t, "Log in to save restaurants.", m.login.notice)
}

func TestForOne_JoinOpensSingleServingCheckout(t *testing.T) {
	h, m := newTestApp(t)
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")

	m, cmd := press(t, m, "F")
	require.Equal(t, model.ScreenForOne, m.screen)
	m, _ = settle(t, m, cmd)
	require.Equal(t, 4, m.forOne.Len())
	assert.Contains(t, m.View(), "Single servings near the trending area")

	// The second nearest slot is full.
	m, _ = press(t, m, "down", "enter")
	assert.Equal(t, "This slot is full", m.info)
	assert.Equal(t, model.ScreenForOne, m.screen)

	m, _ = press(t, m, "down", "enter")
	require.Equal(t, model.ScreenCheckout, m.screen)
	order := m.checkout.flow.Order()
	assert.Equal(t, checkout.KindForOne, order.Kind)
	assert.Equal(t, int64(2), order.SlotID)
	assert.Equal(t, int64(3), order.TargetID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(9000), order.Items[0].Price)
	assert.Equal(t, 1, order.Items[0].Quantity)

	m, cmd = press(t, m, "esc")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, model.ScreenForOne, m.screen)

	m, _ = press(t, m, "down", "enter")
	assert.Equal(t, "This slot is PLANNED, not open to join", m.info)

	m, _ = press(t, m, "b")
	assert.Equal(t, model.ScreenRestaurants, m.screen)
	assert.Nil(t, m.forOne)
}

func TestSearchResults_KeywordAndRelated(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "K")
	require.Equal(t, model.ScreenSearchResults, m.screen)
	require.Equal(t, model.ModeInsert, m.mode)

	m, _ = press(t, m, "enter")
	assert.Equal(t, "Type a keyword first", m.info)

	m = typeText(t, m, "강남구")
	m, cmd := press(t, m, "enter")
	assert.Equal(t, model.ModeNav, m.mode)
	m, _ = settle(t, m, cmd)
	require.Equal(t, 4, m.searchResults.Len())
	require.NotEmpty(t, m.searchResults.related)
	assert.NotContains(t, m.searchResults.related, "강남구")

	kw := m.searchResults.related[0]
	m, cmd = press(t, m, "]")
	assert.Equal(t, "Searching "+kw, m.info)
	m, _ = settle(t, m, cmd)
	require.Positive(t, m.searchResults.Len())
	for _, r := range m.searchResults.pager.Items() {
		assert.Contains(t, r.Tags, kw)
	}

	m, cmd = press(t, m, "enter")
	m, _ = settle(t, m, cmd)
	require.Equal(t, model.ScreenRestaurantDetail, m.screen)
	m, _ = press(t, m, "b")
	assert.Equal(t, model.ScreenSearchResults, m.screen)
	m, _ = press(t, m, "b")
	assert.Equal(t, model.ScreenRestaurants, m.screen)
}

func TestSearchResults_EscBeforeSearchingCloses(t *testing.T) {
	_, m := newTestApp(t)

	m, _ = press(t, m, "K", "esc")
	assert.Equal(t, model.ScreenRestaurants, m.screen)
	assert.Equal(t, model.ModeNav, m.mode)
	assert.Nil(t, m.searchResults)
}

func openMyPage(t *testing.T, h *harness, m Model) Model {
	t.Helper()
	m = loginAs(t, h, m, "user@localfund.kr", "user1234")
	m, cmd := press(t, m, "left")
	m, _ = settle(t, m, cmd)
	require.Equal(t, model.ScreenMyPage, m.screen)
	return m
}

func TestProfileEdit_Nickname(t *testing.T) {
	h, m := newTestApp(t)
	m = openMyPage(t, h, m)

	m, _ = press(t, m, "E")
	require.Equal(t, model.ScreenProfileEdit, m.screen)
	require.Equal(t, model.ModeInsert, m.mode)

	m, _ = press(t, m, "ctrl+s")
	assert.Equal(t, "Nothing to change", m.profileEdit.error)

	m, _ = press(t, m, "backspace", "backspace", "backspace", "backspace", "backspace")
	m = typeText(t, m, "a")
	m, _ = press(t, m, "ctrl+s")
	assert.Equal(t, "Nickname must be 2 to 20 characters", m.profileEdit.error)

	m, _ = press(t, m, "backspace")
	m = typeText(t, m, "골목미식가")
	m, cmd := press(t, m, "ctrl+s")
	require.NotNil(t, cmd)
	m, _ = settle(t, m, cmd)
	assert.Equal(t, model.ScreenMyPage, m.screen)
	assert.Equal(t, model.ModeNav, m.mode)
	assert.Nil(t, m.profileEdit)
	assert.Equal(t, "Profile updated", m.info)
	assert.Equal(t, "골목미식가", m.member.Nickname)
	assert.Equal(t, "골목미식가", m.myPage.member.Nickname)

	saved, ok := h.store.Member()
	require.True(t, ok)
	assert.Equal(t, "골목미식가", saved.Nickname)
}

func TestProfileEdit_Password(t *testing.T) {
	h, m := newTestApp(t)
	m = openMyPage(t, h, m)

	m, _ = press(t, m, "E", "tab")
	m, _ = press(t, m, "ctrl+s")
	assert.Equal(t, "Nothing to change", m.profileEdit.error)

	m = typeText(t, m, "user1234")
	m, _ = press(t, m, "tab")
	m = typeText(t, m, "abc")
	m, _ = press(t, m, "ctrl+s")
	assert.Equal(t, "New password must be at least 4 characters", m.profileEdit.error)

	m = typeText(t, m, "d")
	m, _ = press(t, m, "tab")
	m = typeText(t, m, "abce")
	m, _ = press(t, m, "ctrl+s")
	assert.Equal(t, "New passwords do not match", m.profileEdit.error)

	m, _ = press(t, m, "backspace")
	m = typeText(t, m, "d")
	m, cmd := press(t, m, "enter")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, "Profile and password updated", m.info)
	assert.Equal(t, model.ScreenMyPage, m.screen)

	msg := loginCmd(h.client, h.store, api.Credentials{Email: "user@localfund.kr", Password: "abcd"}, nil)()
	assert.IsType(t, model.LoggedInMsg{}, msg)
}

func TestProfileEdit_WrongCurrentPasswordStays(t *testing.T) {
	h, m := newTestApp(t)
	m = openMyPage(t, h, m)

	m, _ = press(t, m, "E", "tab")
	m = typeText(t, m, "nope")
	m, _ = press(t, m, "tab")
	m = typeText(t, m, "abcd")
	m, _ = press(t, m, "tab")
	m = typeText(t, m, "abcd")
	m, cmd := press(t, m, "ctrl+s")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, model.ScreenProfileEdit, m.screen)
	assert.Contains(t, m.error, "current password is incorrect")

	m, cmd = press(t, m, "esc")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, model.ScreenMyPage, m.screen)
	assert.Nil(t, m.profileEdit)
}

func TestDeleteAccount(t *testing.T) {
	h, m := newTestApp(t)
	m = openMyPage(t, h, m)

	m, _ = press(t, m, "X")
	require.Equal(t, model.ScreenDeleteAccount, m.screen)
	m = typeText(t, m, "someone@else.kr")
	m, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, "Type user@localfund.kr to confirm", m.deleteAccount.error)

	m, cmd = press(t, m, "esc")
	m, _ = settle(t, m, cmd)
	assert.Equal(t, model.ScreenMyPage, m.screen)
	assert.Nil(t, m.deleteAccount)
	assert.True(t, m.loggedIn)

	m, _ = press(t, m, "X")
	m = typeText(t, m, "user@localfund.kr")
	m, cmd = press(t, m, "enter")
	m, _ = settle(t, m, cmd)
	assert.False(t, m.loggedIn)
	assert.Nil(t, m.myPage)
	assert.Equal(t, model.ScreenRestaurants, m.screen)
	assert.Equal(t, "Account deleted", m.info)
	_, ok := h.store.Member()
	assert.False(t, ok)

	msg := loginCmd(h.client, h.store, api.Credentials{Email: "user@localfund.kr", Password: "user1234"}, nil)()
	assert.IsType(t, model.ErrorMsg{}, msg)
}
