package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"localfund/internal/model"
	"localfund/internal/paging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeSession struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (s *fakeSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *fakeSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.cleared++
	return nil
}

func newTestClient(t *testing.T, h http.Handler, sess Session) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Session: sess})
}

func TestClient_InjectsBearerToken(t *testing.T) {
	var auth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"id":7,"name":"Gukbap"}`))
	}), &fakeSession{token: "tok-1"})

	r, err := c.Restaurant(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", auth)
	assert.Equal(t, "Gukbap", r.Name)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var hasAuth bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`[]`))
	}), &fakeSession{})

	_, err := c.Specialties(context.Background())
	require.NoError(t, err)
	assert.False(t, hasAuth)
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	sess := &fakeSession{token: "expired"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	called := 0
	c := New(Config{BaseURL: srv.URL, Session: sess, OnUnauthorized: func() { called++ }})

	_, err := c.MyPage(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrNotFound)

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusUnauthorized, serr.Code)
	assert.Equal(t, "token expired", serr.Body)

	assert.Equal(t, 1, sess.cleared)
	assert.Empty(t, sess.Token())
	assert.Equal(t, 1, called)
}

func TestClient_NotFound(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), nil)

	_, err := c.Post(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeList_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantLen int
		last    bool
		total   int
		known   bool
	}{
		{"bare array", `[{"id":1},{"id":2}]`, 2, true, 2, true},
		{"spring page", `{"content":[{"id":1}],"last":false,"number":0,"totalElements":30}`, 1, false, 30, true},
		{"page without total", `{"content":[],"last":true}`, 0, true, paging.UnknownTotal, true},
		{"page without last", `{"content":[{"id":1}],"number":0}`, 1, true, paging.UnknownTotal, false},
		{"error object", `{"message":"boom"}`, 0, true, 0, false},
		{"not json", `<html>`, 0, true, 0, false},
		{"null", `null`, 0, true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}), nil)

			list, err := c.Posts(context.Background(), PostQuery{}, 0, 10)
			require.NoError(t, err)
			assert.Len(t, list.Items, tt.wantLen)
			assert.NotNil(t, list.Items)
			assert.Equal(t, tt.last, list.Last)
			assert.Equal(t, tt.total, list.Total)
			assert.Equal(t, tt.known, list.Known)
		})
	}
}

func TestRestaurantSource_PagesUntilLast(t *testing.T) {
	const total = 5
	var queries []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/restaurants/nearby", r.URL.Path)
		queries = append(queries, r.URL.RawQuery)

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		var content []model.Restaurant
		for i := page * size; i < min((page+1)*size, total); i++ {
			content = append(content, model.Restaurant{ID: int64(i + 1)})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content":       content,
			"number":        page,
			"last":          (page+1)*size >= total,
			"totalElements": total,
		})
	}), nil)

	src := c.RestaurantSource(NearbyQuery{Lat: 37.5027, Lng: 127.0352, Radius: 10000})
	ctl := paging.NewController(src, 2)
	ctx := context.Background()
	for ctl.HasMore() {
		require.NoError(t, ctl.Fetch(ctx))
	}

	assert.Equal(t, total, ctl.Len())
	require.Len(t, queries, 3)
	assert.Contains(t, queries[0], "lat=37.5027")
	assert.Contains(t, queries[0], "radius=10000")
	assert.Contains(t, queries[2], "page=2")
}

func TestRestaurantSource_ServerCapsPageSize(t *testing.T) {
	const total, maxSize = 7, 3
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		var content []model.Restaurant
		for i := page * maxSize; i < min((page+1)*maxSize, total); i++ {
			content = append(content, model.Restaurant{ID: int64(i + 1)})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content": content,
			"number":  page,
			"last":    (page+1)*maxSize >= total,
		})
	}), nil)

	ctl := paging.NewController(c.RestaurantSource(NearbyQuery{Radius: 1000}), 48)
	ctx := context.Background()
	fetches := 0
	for ctl.HasMore() {
		require.NoError(t, ctl.Fetch(ctx))
		fetches++
	}

	assert.Equal(t, total, ctl.Len())
	assert.Equal(t, 3, fetches)
}

func TestPosts_PathSelection(t *testing.T) {
	var got []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Path+"?"+r.URL.RawQuery)
		w.Write([]byte(`{"content":[],"last":true}`))
	}), nil)
	ctx := context.Background()

	_, err := c.Posts(ctx, PostQuery{}, 0, 10)
	require.NoError(t, err)
	_, err = c.Posts(ctx, PostQuery{Category: "REVIEW"}, 1, 10)
	require.NoError(t, err)
	_, err = c.Posts(ctx, PostQuery{Category: "REVIEW", Keyword: " 국밥 "}, 0, 10)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Contains(t, got[0], "/api/community/posts?")
	assert.Contains(t, got[0], "sort=createdAt%2Cdesc")
	assert.Contains(t, got[1], "/api/community/posts/category/REVIEW?")
	assert.Contains(t, got[2], "/api/community/posts/search?")
	assert.Contains(t, got[2], "keyword=%EA%B5%AD%EB%B0%A5")
}

func TestToggleLike_ReturnsServerState(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/community/posts/3/like", r.URL.Path)
		w.Write([]byte(`{"id":3,"likes":12,"isLiked":true}`))
	}), &fakeSession{token: "t"})

	res, err := c.ToggleLike(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, model.LikeResult{PostID: 3, Likes: 12, Liked: true}, res)
}

func TestDeleteComment_PassesAuthorEmail(t *testing.T) {
	var email, method string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		email = r.URL.Query().Get("authorEmail")
		w.WriteHeader(http.StatusNoContent)
	}), nil)

	require.NoError(t, c.DeleteComment(context.Background(), 1, 2, "kim@example.kr"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "kim@example.kr", email)
}

func TestSubmitBusinessRequest_Multipart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var req model.BusinessRequest
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("data")), &req))
		assert.Equal(t, "을지로 국밥", req.Name)

		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "front.png", hdr.Filename)
		assert.Equal(t, "png-bytes", string(data))

		req.ID = 41
		req.Status = model.RequestPending
		json.NewEncoder(w).Encode(req)
	}), &fakeSession{token: "t"})

	out, err := c.SubmitBusinessRequest(context.Background(),
		model.BusinessRequest{Name: "을지로 국밥", FundingGoalAmount: 1_000_000},
		&Image{Filename: "/tmp/front.png", Data: strings.NewReader("png-bytes")},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(41), out.ID)
	assert.Equal(t, model.RequestPending, out.Status)
}

func TestReviewBusinessRequest_RejectsNonTerminalStatus(t *testing.T) {
	hit := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}), nil)

	_, err := c.ReviewBusinessRequest(context.Background(), model.ReviewDecision{ID: 1, Status: model.RequestPending})
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCompleteSpecialtyPayment(t *testing.T) {
	var body map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/funding-specialty/payment/complete", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&body)
	}), nil)

	require.NoError(t, c.CompleteSpecialtyPayment(context.Background(), "imp_1", "specialty_x"))
	assert.Equal(t, map[string]string{"impUid": "imp_1", "merchantUid": "specialty_x"}, body)
}

func TestMemberCallsUseShortTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, MemberTimeout: 50 * time.Millisecond, Timeout: 5 * time.Second})

	start := time.Now()
	_, err := c.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/member/login", r.URL.Path)
		var cred map[string]string
		json.NewDecoder(r.Body).Decode(&cred)
		assert.Equal(t, "pw1234", cred["pw"])
		w.Write([]byte(`{"accessToken":"jwt","member":{"email":"a@b.c","nickname":"a","roleNames":["USER"]}}`))
	}), nil)

	res, err := c.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw1234"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.AccessToken)
	assert.Equal(t, "a", res.Member.Nickname)
	assert.False(t, res.Member.IsAdmin())
}

func TestRateLimiterHonorsContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}), nil)
	c.limiter = rate.NewLimiter(0.001, 1)

	ctx := context.Background()
	_, err := c.Specialties(ctx)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = c.Specialties(ctx)
	assert.Error(t, err)
}
