package fixtures

import (
	"errors"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"localfund/internal/model"

	"github.com/go-chi/chi/v5"
)

// Member

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"pw"`
}

func (s *Server) memberRoutes(r chi.Router) {
	r.Post("/login", s.handleLogin)
	r.Post("/register", s.handleRegister)
	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireMember)
		r.Get("/mypage", func(w http.ResponseWriter, r *http.Request) {
			m, _ := memberFrom(r.Context())
			s.writeJSON(w, http.StatusOK, m)
		})
		r.Get("/locations", func(w http.ResponseWriter, r *http.Request) {
			m, _ := memberFrom(r.Context())
			s.writeJSON(w, http.StatusOK, s.store.locationsOf(m.Email))
		})
		r.Put("/profile", s.handleUpdateProfile)
		r.Put("/password", s.handleChangePassword)
		r.Delete("/", s.handleDeleteAccount)
		r.Post("/locations", s.handleSaveLocation)
		r.Put("/locations/{id}", s.handleSaveLocation)
		r.Delete("/locations/{id}", func(w http.ResponseWriter, r *http.Request) {
			m, _ := memberFrom(r.Context())
			id, ok := s.pathID(w, r, "id")
			if !ok {
				return
			}
			if err := s.store.deleteLocation(m.Email, id); err != nil {
				s.writeStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, ok := s.store.authenticate(req.Email, req.Password)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	token, err := s.issueToken(m)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"accessToken": token, "member": m})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if !s.decode(w, r, &reg) {
		return
	}
	if err := s.store.register(reg); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"result": "ok"})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	m, _ := memberFrom(r.Context())
	var req model.ProfileUpdate
	if !s.decode(w, r, &req) {
		return
	}
	nickname := strings.TrimSpace(req.Nickname)
	if n := utf8.RuneCountInString(nickname); n < 2 || n > 20 {
		s.writeError(w, http.StatusBadRequest, "nickname must be 2 to 20 characters")
		return
	}
	updated, err := s.store.updateNickname(m.Email, nickname)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	m, _ := memberFrom(r.Context())
	var req model.PasswordChange
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.NewPassword) < 4 {
		s.writeError(w, http.StatusBadRequest, "new password must be at least 4 characters")
		return
	}
	if err := s.store.changePassword(m.Email, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, errForbidden) {
			s.writeError(w, http.StatusBadRequest, "current password is incorrect")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	m, _ := memberFrom(r.Context())
	var req model.AccountDeletion
	if !s.decode(w, r, &req) {
		return
	}
	if !strings.EqualFold(strings.TrimSpace(req.ConfirmEmail), m.Email) {
		s.writeError(w, http.StatusBadRequest, "confirmation email does not match")
		return
	}
	if err := s.store.deleteMember(m.Email); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveLocation(w http.ResponseWriter, r *http.Request) {
	m, _ := memberFrom(r.Context())
	var loc model.MemberLocation
	if !s.decode(w, r, &loc) {
		return
	}
	if chi.URLParam(r, "id") != "" {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		loc.ID = id
	}
	saved, err := s.store.saveLocation(m.Email, loc)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

// Restaurants

func (s *Server) restaurantRoutes(r chi.Router) {
	r.Get("/nearby", s.handleNearby)
	r.Get("/search", s.handleRestaurantSearch)
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		rest, err := s.store.restaurant(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, rest)
	})
	r.Get("/{id}/menus", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		if _, err := s.store.restaurant(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, s.store.menusOf(id))
	})
}

// handleNearby pages the restaurants within radius meters of lat/lng, nearest
// first. Missing coordinates return everything.
func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	radius := queryInt(r, "radius", 0)

	all := s.store.allRestaurants()
	if errLat != nil || errLng != nil || radius <= 0 {
		s.writeJSON(w, http.StatusOK, pageOf(r, all))
		return
	}

	type ranked struct {
		r    model.Restaurant
		dist float64
	}
	var in []ranked
	for _, rest := range all {
		d := distanceMeters(lat, lng, rest.Y, rest.X)
		if d <= float64(radius) {
			in = append(in, ranked{rest, d})
		}
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].dist < in[j].dist })

	out := make([]model.Restaurant, len(in))
	for i, rk := range in {
		out[i] = rk.r
	}
	s.writeJSON(w, http.StatusOK, pageOf(r, out))
}

// handleRestaurantSearch pages the restaurants whose name, category, tags or
// address contain every word of the keyword.
func (s *Server) handleRestaurantSearch(w http.ResponseWriter, r *http.Request) {
	words := strings.Fields(strings.ToLower(r.URL.Query().Get("keyword")))
	out := []model.Restaurant{}
	for _, rest := range s.store.allRestaurants() {
		haystack := strings.ToLower(strings.Join([]string{
			rest.Name, rest.CategoryName, rest.Tags, rest.RoadAddressName,
		}, " "))
		matched := len(words) > 0
		for _, word := range words {
			if !strings.Contains(haystack, word) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, rest)
		}
	}
	s.writeJSON(w, http.StatusOK, pageOf(r, out))
}

// distanceMeters is the haversine distance between two coordinates.
func distanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(a))
}

// Local specialties

func (s *Server) specialtyRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.store.allSpecialties())
	})
	r.Get("/search", func(w http.ResponseWriter, r *http.Request) {
		needle := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
		s.writeJSON(w, http.StatusOK, s.specialtiesWhere(func(sp model.Specialty) bool {
			return needle == "" ||
				strings.Contains(strings.ToLower(sp.Title), needle) ||
				strings.Contains(strings.ToLower(sp.AreaNm), needle)
		}))
	})
	r.Get("/sido/{sido}", func(w http.ResponseWriter, r *http.Request) {
		sido := chi.URLParam(r, "sido")
		s.writeJSON(w, http.StatusOK, s.specialtiesWhere(func(sp model.Specialty) bool {
			return sp.SidoNm == sido
		}))
	})
	r.Get("/sido/{sido}/sigungu/{sigungu}", func(w http.ResponseWriter, r *http.Request) {
		sido, sigungu := chi.URLParam(r, "sido"), chi.URLParam(r, "sigungu")
		s.writeJSON(w, http.StatusOK, s.specialtiesWhere(func(sp model.Specialty) bool {
			return sp.SidoNm == sido && sp.SigunguNm == sigungu
		}))
	})
	r.Get("/funding/progress", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.store.fundingProgress())
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		sp, err := s.store.specialty(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, sp)
	})
}

func (s *Server) specialtiesWhere(match func(model.Specialty) bool) []model.Specialty {
	out := []model.Specialty{}
	for _, sp := range s.store.allSpecialties() {
		if match(sp) {
			out = append(out, sp)
		}
	}
	return out
}

// Fundings

func (s *Server) fundingRoutes(r chi.Router) {
	r.With(s.requireMember).Post("/", func(w http.ResponseWriter, r *http.Request) {
		m, _ := memberFrom(r.Context())
		var rec model.FundingRecord
		if !s.decode(w, r, &rec) {
			return
		}
		rec.MemberID = m.Email
		saved, err := s.store.createFunding(rec)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, saved)
	})
	r.Get("/member/{memberID}", func(w http.ResponseWriter, r *http.Request) {
		memberID := chi.URLParam(r, "memberID")
		s.writeJSON(w, http.StatusOK, s.store.fundingsWhere(func(f model.FundingRecord) bool {
			return strings.EqualFold(f.MemberID, memberID)
		}))
	})
	r.Get("/restaurant/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		s.writeJSON(w, http.StatusOK, s.store.fundingsWhere(func(f model.FundingRecord) bool {
			return f.RestaurantID == id
		}))
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		f, err := s.store.funding(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, f)
	})
}

// Specialty orders

type paymentCompletion struct {
	ImpUID      string `json:"impUid"`
	MerchantUID string `json:"merchantUid"`
}

func (s *Server) orderRoutes(r chi.Router) {
	r.Use(s.requireMember)
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		m, _ := memberFrom(r.Context())
		var o model.SpecialtyOrder
		if !s.decode(w, r, &o) {
			return
		}
		o.MemberID = m.Email
		saved, err := s.store.createOrder(o)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, saved)
	})
	r.Put("/payment/complete", func(w http.ResponseWriter, r *http.Request) {
		var body paymentCompletion
		if !s.decode(w, r, &body) {
			return
		}
		if body.ImpUID == "" || body.MerchantUID == "" {
			s.writeError(w, http.StatusBadRequest, "impUid and merchantUid are required")
			return
		}
		o, err := s.store.completeOrder(body.ImpUID, body.MerchantUID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, o)
	})
	r.Get("/member/{memberID}/page", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, pageOf(r, s.store.ordersOf(chi.URLParam(r, "memberID"))))
	})
	r.Get("/statistics/member/{memberID}", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.store.orderStatistics(chi.URLParam(r, "memberID")))
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		o, err := s.store.order(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, o)
	})
	r.Put("/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		m, _ := memberFrom(r.Context())
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		o, err := s.store.cancelOrder(m.Email, id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, o)
	})
}
