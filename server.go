package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/andybalholm/brotli"
)

type Server struct {
	sessions   *Sessions
	metrics    *Metrics
	mux        *http.ServeMux
	renderWait time.Duration
	now        func() time.Time
	log        *log.Logger
}

func NewServer(cfg *Config, sessions *Sessions, metrics *Metrics) *Server {
	s := &Server{
		sessions:   sessions,
		metrics:    metrics,
		mux:        http.NewServeMux(),
		renderWait: time.Duration(cfg.Server.RenderWaitMillis) * time.Millisecond,
		now:        time.Now,
		log:        log.New(os.Stderr, "(http) ", log.LstdFlags),
	}

	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "Not Found")
	})
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /search", s.handleSearch)
	s.mux.HandleFunc("POST /more", s.handleMore)
	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics.Handler())
	}
	// net/http/pprof registers on the default mux
	s.mux.Handle("/debug/pprof/", http.DefaultServeMux)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// gallery returns the caller's Gallery, starting a session if needed.
func (s *Server) gallery(w http.ResponseWriter, r *http.Request) *Gallery {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if g, ok := s.sessions.Get(c.Value); ok {
			return g
		}
	}
	id, g := s.sessions.New()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return g
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	g := s.gallery(w, r)
	q := g.Active()
	q.EnsureFetched()

	ctx, cancel := context.WithTimeout(r.Context(), s.renderWait)
	q.Wait(ctx)
	cancel()

	vm := g.View()
	s.render(w, r, pageData{
		ViewModel: vm,
		Date:      s.now().Format("1/2/2006"),
		Refresh:   vm.LoadMoreDisabled,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "Malformed form data")
		return
	}
	g := s.gallery(w, r)
	g.Search(r.PostForm.Get("q"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleMore(w http.ResponseWriter, r *http.Request) {
	g := s.gallery(w, r)
	if !g.LoadMore() {
		s.log.Println("load more ignored for", g.Active().Key())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()
	if err := galleryTemplate.Execute(body, data); err != nil {
		s.log.Println("Failed to render gallery:", err)
	}
}
