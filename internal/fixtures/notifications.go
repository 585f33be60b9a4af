package fixtures

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) notificationRoutes(r chi.Router) {
	r.Use(s.requireMember)
	r.Get("/member/{email}", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, pageOf(r, s.store.notificationsOf(chi.URLParam(r, "email"))))
	})
	r.Get("/member/{email}/unread-count", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.store.unreadCount(chi.URLParam(r, "email")))
	})
	r.Put("/member/{email}/read-all", func(w http.ResponseWriter, r *http.Request) {
		s.store.markAllRead(chi.URLParam(r, "email"))
		w.WriteHeader(http.StatusNoContent)
	})
	r.Delete("/member/{email}/read-delete-all", func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		n := s.store.deleteNotifications(func(sn SeedNotification) bool {
			return sn.Read && strings.EqualFold(sn.MemberEmail, email)
		})
		s.writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
	})
	r.Put("/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		if err := s.store.markRead(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		if s.store.deleteNotifications(func(sn SeedNotification) bool { return sn.ID == id }) == 0 {
			s.writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
