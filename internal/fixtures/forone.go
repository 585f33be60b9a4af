package fixtures

import (
	"net/http"
	"sort"
	"strconv"

	"localfund/internal/model"

	"github.com/go-chi/chi/v5"
)

const defaultSlotRadius = 3000

func (s *Server) forOneRoutes(r chi.Router) {
	r.Get("/nearby", s.handleNearbySlots)
	r.With(s.requireMember).Post("/funding", func(w http.ResponseWriter, r *http.Request) {
		m, _ := memberFrom(r.Context())
		var req model.ForOneFundingRequest
		if !s.decode(w, r, &req) {
			return
		}
		req.MemberID = m.Email
		rec, err := s.store.joinSlot(req)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, rec)
	})
}

// handleNearbySlots pages the open slots within radius meters of lat/lng,
// nearest first. Missing coordinates return every open slot.
func (s *Server) handleNearbySlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	radius := queryInt(r, "radius", defaultSlotRadius)
	located := errLat == nil && errLng == nil

	var out []model.ForOneSlot
	for _, slot := range s.store.openSlots() {
		if located {
			slot.Distance = distanceMeters(lat, lng, slot.restaurantY, slot.restaurantX)
			if slot.Distance > float64(radius) {
				continue
			}
		}
		out = append(out, slot.ForOneSlot)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	s.writeJSON(w, http.StatusOK, pageOf(r, out))
}

type locatedSlot struct {
	model.ForOneSlot
	restaurantX, restaurantY float64
}

// openSlots returns the slots that have not finished, with menu and
// restaurant fields filled in.
func (s *store) openSlots() []locatedSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []locatedSlot
	for _, slot := range s.slots {
		if slot.Status == model.SlotSuccess || slot.Status == model.SlotFailed {
			continue
		}
		out = append(out, s.describeSlot(slot))
	}
	return out
}

func (s *store) describeSlot(slot model.ForOneSlot) locatedSlot {
	out := locatedSlot{ForOneSlot: slot}
	for _, m := range s.menus {
		if m.ID == slot.MenuID {
			if out.MenuName == "" {
				out.MenuName = m.Name
			}
			if out.OriginalPrice == 0 {
				out.OriginalPrice = m.Price
			}
			break
		}
	}
	for _, r := range s.restaurants {
		if r.ID == slot.RestaurantID {
			out.RestaurantName = r.Name
			out.RoadAddressName = r.RoadAddressName
			if out.ImageURL == "" {
				out.ImageURL = r.ImageURL
			}
			out.restaurantX, out.restaurantY = r.X, r.Y
			break
		}
	}
	return out
}

// joinSlot takes a seat and records the payment as a funding of the slot's
// restaurant. The amount must be the slot price for a single serving.
func (s *store) joinSlot(req model.ForOneFundingRequest) (model.FundingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, slot := range s.slots {
		if slot.SlotID == req.SlotID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.FundingRecord{}, errNotFound
	}
	slot := s.describeSlot(s.slots[idx]).ForOneSlot
	switch {
	case slot.Full():
		return model.FundingRecord{}, errConflict
	case !slot.Joinable(), req.TotalAmount != slot.Price(), req.RestaurantID != slot.RestaurantID:
		return model.FundingRecord{}, errInvalid
	}
	rec, err := s.createFundingLocked(req.FundingRecord)
	if err != nil {
		return model.FundingRecord{}, err
	}
	s.slots[idx].CurrentParticipants++
	return rec, nil
}
