package fixtures

import (
	"net/http"
	"strings"

	"localfund/internal/model"

	"github.com/go-chi/chi/v5"
)

func viewer(r *http.Request) string {
	m, _ := memberFrom(r.Context())
	return m.Email
}

func (s *Server) communityRoutes(r chi.Router) {
	r.Get("/posts", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, pageOf(r, s.store.postsWhere(viewer(r), func(model.Post) bool { return true })))
	})
	r.Get("/posts/category/{category}", func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		s.writeJSON(w, http.StatusOK, pageOf(r, s.store.postsWhere(viewer(r), func(p model.Post) bool {
			return strings.EqualFold(p.Category, category)
		})))
	})
	r.Get("/posts/search", func(w http.ResponseWriter, r *http.Request) {
		needle := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("keyword")))
		s.writeJSON(w, http.StatusOK, pageOf(r, s.store.postsWhere(viewer(r), func(p model.Post) bool {
			return strings.Contains(strings.ToLower(p.Title), needle) ||
				strings.Contains(strings.ToLower(p.Content), needle)
		})))
	})
	r.Get("/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		p, err := s.store.viewPost(id, viewer(r))
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, p)
	})
	r.Get("/posts/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		comments, err := s.store.commentsOf(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, comments)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireMember)
		r.Post("/posts", s.handleCreatePost)
		r.Put("/posts/{id}", s.handleUpdatePost)
		r.Delete("/posts/{id}", s.handleDeletePost)
		r.Post("/posts/{id}/like", s.handleLike)
		r.Post("/posts/{id}/comments", s.handleAddComment)
		r.Delete("/posts/{id}/comments/{commentID}", s.handleDeleteComment)
	})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	m, _ := memberFrom(r.Context())
	var p model.Post
	if !s.decode(w, r, &p) {
		return
	}
	saved, err := s.store.createPost(m, p)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	m, _ := memberFrom(r.Context())
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var p model.Post
	if !s.decode(w, r, &p) {
		return
	}
	p.ID = id
	saved, err := s.store.updatePost(m, p)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	m, _ := memberFrom(r.Context())
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.deletePost(m, id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLike toggles the caller's like and answers with the updated post.
func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	m, _ := memberFrom(r.Context())
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.store.toggleLike(id, m.Email)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

type commentRequest struct {
	Content     string `json:"content"`
	Author      string `json:"author"`
	AuthorEmail string `json:"authorEmail"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	m, _ := memberFrom(r.Context())
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !s.decode(w, r, &req) {
		return
	}
	c, err := s.store.addComment(model.Comment{
		PostID:      id,
		Content:     req.Content,
		Author:      m.DisplayName(),
		AuthorEmail: m.Email,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	commentID, ok := s.pathID(w, r, "commentID")
	if !ok {
		return
	}
	authorEmail := r.URL.Query().Get("authorEmail")
	if authorEmail == "" {
		s.writeError(w, http.StatusBadRequest, "authorEmail is required")
		return
	}
	if err := s.store.deleteComment(id, commentID, authorEmail); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
