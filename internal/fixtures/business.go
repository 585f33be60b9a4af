package fixtures

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"localfund/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUpload = 10 << 20

func (s *Server) businessRoutes(r chi.Router) {
	r.Use(s.requireMember)
	r.Post("/", s.handleSubmitRequest)
	r.Get("/member/{email}", func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		s.writeJSON(w, http.StatusOK, s.store.requestsWhere(func(br model.BusinessRequest) bool {
			return strings.EqualFold(br.MemberEmail, email)
		}))
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		br, err := s.store.request(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		m, _ := memberFrom(r.Context())
		if !m.IsAdmin() && !strings.EqualFold(br.MemberEmail, m.Email) {
			s.writeError(w, http.StatusForbidden, "not your request")
			return
		}
		s.writeJSON(w, http.StatusOK, br)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			all := s.store.requestsWhere(func(model.BusinessRequest) bool { return true })
			s.writeJSON(w, http.StatusOK, pageOf(r, all))
		})
		r.Get("/status/{status}", func(w http.ResponseWriter, r *http.Request) {
			status := model.RequestStatus(strings.ToUpper(chi.URLParam(r, "status")))
			s.writeJSON(w, http.StatusOK, pageOf(r, s.store.requestsWhere(func(br model.BusinessRequest) bool {
				return br.Status == status
			})))
		})
		r.Get("/pending-count", func(w http.ResponseWriter, r *http.Request) {
			n := len(s.store.requestsWhere(func(br model.BusinessRequest) bool {
				return br.Status == model.RequestPending
			}))
			s.writeJSON(w, http.StatusOK, n)
		})
		r.Put("/review", s.handleReview)
	})
}

// handleSubmitRequest accepts multipart form data with a JSON "data" part and
// an optional "image" part.
func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	m, _ := memberFrom(r.Context())
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		s.writeError(w, http.StatusBadRequest, "multipart form expected")
		return
	}
	var req model.BusinessRequest
	if err := json.Unmarshal([]byte(r.FormValue("data")), &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid data part")
		return
	}

	if file, header, err := r.FormFile("image"); err == nil {
		n, _ := io.Copy(io.Discard, file)
		file.Close()
		req.ImageURL = "/uploads/" + uuid.NewString() + "-" + header.Filename
		s.log.Debug("stored business request image",
			zap.String("filename", header.Filename),
			zap.Int64("bytes", n),
		)
	}

	saved, err := s.store.submitRequest(m, req)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var d model.ReviewDecision
	if !s.decode(w, r, &d) {
		return
	}
	if d.Status != model.RequestApproved && d.Status != model.RequestRejected {
		s.writeError(w, http.StatusBadRequest, "status must be APPROVED or REJECTED")
		return
	}
	br, err := s.store.review(d)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, br)
}
