package fixtures

import (
	"net/http"
	"sort"
	"strings"

	"localfund/internal/model"

	"github.com/go-chi/chi/v5"
)

type wishlistToggle struct {
	RestaurantID int64 `json:"restaurantId"`
}

type wishlistState struct {
	IsWishlisted bool   `json:"isWishlisted"`
	Message      string `json:"message,omitempty"`
}

func (s *Server) wishlistRoutes(r chi.Router) {
	// Anonymous visitors have an empty wishlist.
	r.Get("/check/{restaurantID}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "restaurantID")
		if !ok {
			return
		}
		m, ok := memberFrom(r.Context())
		s.writeJSON(w, http.StatusOK, wishlistState{IsWishlisted: ok && s.store.wishlisted(m.Email, id)})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireMember)
		r.Get("/with-details", func(w http.ResponseWriter, r *http.Request) {
			m, _ := memberFrom(r.Context())
			s.writeJSON(w, http.StatusOK, s.store.wishlistOf(m.Email))
		})
		r.Post("/toggle", func(w http.ResponseWriter, r *http.Request) {
			m, _ := memberFrom(r.Context())
			var req wishlistToggle
			if !s.decode(w, r, &req) {
				return
			}
			on, err := s.store.toggleWishlist(m.Email, req.RestaurantID)
			if err != nil {
				s.writeStoreError(w, err)
				return
			}
			msg := "removed from wishlist"
			if on {
				msg = "added to wishlist"
			}
			s.writeJSON(w, http.StatusOK, wishlistState{IsWishlisted: on, Message: msg})
		})
		r.Delete("/{restaurantID}", func(w http.ResponseWriter, r *http.Request) {
			m, _ := memberFrom(r.Context())
			id, ok := s.pathID(w, r, "restaurantID")
			if !ok {
				return
			}
			if err := s.store.removeWishlist(m.Email, id); err != nil {
				s.writeStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

func (s *store) wishlisted(email string, restaurantID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlistIndex(email, restaurantID) >= 0
}

func (s *store) wishlistIndex(email string, restaurantID int64) int {
	for i, w := range s.wishlist {
		if w.RestaurantID == restaurantID && strings.EqualFold(w.MemberEmail, email) {
			return i
		}
	}
	return -1
}

// wishlistOf returns the member's wishlist, newest first, with the current
// restaurant fields filled in.
func (s *store) wishlistOf(email string) []model.WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.WishlistItem{}
	for _, w := range s.wishlist {
		if !strings.EqualFold(w.MemberEmail, email) {
			continue
		}
		for _, r := range s.restaurants {
			if r.ID == w.RestaurantID {
				w.RestaurantName = r.Name
				w.CategoryName = r.CategoryName
				w.RoadAddressName = r.RoadAddressName
				w.FundingAmount = r.FundingAmount
				w.TotalFundingAmount = r.TotalFundingAmount
				w.FundingGoalAmount = r.FundingGoalAmount
				break
			}
		}
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

// toggleWishlist adds or removes the restaurant and reports whether it is
// now on the wishlist.
func (s *store) toggleWishlist(email string, restaurantID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.wishlistIndex(email, restaurantID); i >= 0 {
		s.wishlist = append(s.wishlist[:i], s.wishlist[i+1:]...)
		return false, nil
	}
	found := false
	for _, r := range s.restaurants {
		if r.ID == restaurantID {
			found = true
			break
		}
	}
	if !found {
		return false, errNotFound
	}
	s.wishlist = append(s.wishlist, model.WishlistItem{
		ID:           s.id(),
		MemberEmail:  email,
		RestaurantID: restaurantID,
		CreatedAt:    s.stamp(),
	})
	return true, nil
}

func (s *store) removeWishlist(email string, restaurantID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.wishlistIndex(email, restaurantID)
	if i < 0 {
		return errNotFound
	}
	s.wishlist = append(s.wishlist[:i], s.wishlist[i+1:]...)
	return nil
}
