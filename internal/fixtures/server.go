// Package fixtures serves an in-memory copy of the localfund backend, used
// when the app runs in explicit fixture mode and by tests.
package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"localfund/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Config configures a fixture server.
type Config struct {
	Secret string
	Seed   []byte // nil uses the embedded seed
	Logger *zap.Logger
}

// Server is the fixture backend.
type Server struct {
	store  *store
	secret []byte
	log    *zap.Logger
	router chi.Router
}

// New creates a fixture server.
func New(cfg Config) (*Server, error) {
	data := cfg.Seed
	if data == nil {
		data = defaultSeed
	}
	seed, err := ParseSeed(data)
	if err != nil {
		return nil, err
	}
	secret := cfg.Secret
	if secret == "" {
		secret = "localfund-fixtures"
	}

	s := &Server{
		store:  newStore(seed),
		secret: []byte(secret),
		log:    logging.OrNop(cfg.Logger).Named("fixtures"),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	// Kakao uses its own KakaoAK scheme, so it sits outside the bearer auth.
	router.Get("/v2/local/search/keyword.json", s.handleKakaoKeyword)

	router.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/payments/request", s.handlePaymentRequest)
		r.Route("/api", func(r chi.Router) {
			r.Route("/member", s.memberRoutes)
			r.Route("/restaurants", s.restaurantRoutes)
			r.Route("/local-specialties", s.specialtyRoutes)
			r.Route("/funding", s.fundingRoutes)
			r.Route("/funding-specialty", s.orderRoutes)
			r.Route("/community", s.communityRoutes)
			r.Route("/business-requests", s.businessRoutes)
			r.Route("/notifications", s.notificationRoutes)
			r.Route("/wishlist", s.wishlistRoutes)
			r.Route("/for-one", s.forOneRoutes)
		})
	})
	return router
}

// Running is a fixture server listening on a local port.
type Running struct {
	URL  string
	http *http.Server
	done chan error
}

// Start listens on addr and serves in the background. Use "127.0.0.1:0" for
// an ephemeral port.
func (s *Server) Start(addr string) (*Running, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	run := &Running{
		URL:  "http://" + ln.Addr().String(),
		http: httpServer,
		done: make(chan error, 1),
	}
	go func() {
		run.done <- httpServer.Serve(ln)
	}()
	s.log.Info("fixture backend listening", zap.String("url", run.URL))
	return run, nil
}

// Close shuts the server down gracefully.
func (r *Running) Close(ctx context.Context) error {
	if err := r.http.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-r.done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve runs the server on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	run, err := s.Start(addr)
	if err != nil {
		return err
	}
	select {
	case err := <-run.done:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("fixture backend stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down fixture backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return run.Close(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store errors to HTTP statuses.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errForbidden):
		s.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, errConflict):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errInvalid):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// springPage mirrors the page object of the backend.
type springPage[T any] struct {
	Content       []T  `json:"content"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
}

// pageOf slices items by the page and size query parameters (defaults 0, 10).
func pageOf[T any](r *http.Request, items []T) springPage[T] {
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 10)
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}

	start := page * size
	if start > len(items) {
		start = len(items)
	}
	end := min(start+size, len(items))

	return springPage[T]{
		Content:       append([]T{}, items[start:end]...),
		Number:        page,
		Size:          size,
		TotalElements: len(items),
		TotalPages:    (len(items) + size - 1) / size,
		First:         page == 0,
		Last:          end >= len(items),
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}
