package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// App is the root container: everything created once at startup and torn
// down by Close.
type App struct {
	cfg      *Config
	store    *Store
	reqCache *ReqCache
	client   *QueryClient
	sessions *Sessions
	metrics  *Metrics
	server   *Server
}

func NewApp(cfg *Config) (*App, error) {
	registry := prometheus.NewRegistry()
	metrics, err := NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	store, err := NewStore()
	if err != nil {
		return nil, err
	}
	reqCache := NewReqCache(cfg, store, metrics)

	searcher, err := newSearcher(cfg, reqCache)
	if err != nil {
		reqCache.Close()
		store.Close()
		return nil, err
	}

	client := NewQueryClient(searcher, QueryClientOptions{
		Entries:        cfg.Cache.Entries,
		TTL:            time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
		StopAtLastPage: cfg.Pagination.StopAtLastPage,
		Metrics:        metrics,
	})
	sessions := NewSessions(client, time.Duration(cfg.Server.SessionTTLHours)*time.Hour)

	metrics.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "photogallery_sessions",
		Help: "Number of live gallery sessions",
	}, func() float64 { return float64(sessions.Len()) }))
	metrics.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "photogallery_request_cache_entries",
		Help: "Number of memoized upstream responses",
	}, func() float64 { return float64(store.Count()) }))

	return &App{
		cfg:      cfg,
		store:    store,
		reqCache: reqCache,
		client:   client,
		sessions: sessions,
		metrics:  metrics,
		server:   NewServer(cfg, sessions, metrics),
	}, nil
}

func newSearcher(cfg *Config, reqCache *ReqCache) (ImageSearcher, error) {
	switch cfg.Provider {
	case "", "unsplash":
		return NewUnsplashApi(cfg, reqCache), nil
	case "pexels":
		return NewPexelsApi(cfg, reqCache), nil
	case "pixabay":
		return NewPixabayApi(cfg, reqCache), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func (a *App) Handler() http.Handler {
	return a.server
}

func (a *App) Close() {
	a.sessions.Close()
	a.client.Close()
	a.reqCache.Close()
	a.store.Close()
}

func processError(err error) {
	fmt.Println(err.Error())
	os.Exit(2)
}

func main() {
	path := os.Getenv("PHOTOGALLERY_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		processError(err)
	}

	app, err := NewApp(cfg)
	if err != nil {
		processError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	log.Println("Starting Server on", cfg.Server.Listen, "with provider", cfg.Provider)
	err = serve(ctx, cfg.Server.Listen, app.Handler())
	stop()
	app.Close()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

// serve runs the HTTP server until ctx ends. A clean shutdown returns nil.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}
	stopped := make(chan struct{})
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-shutdownDone
		return nil
	}
	close(stopped)
	<-shutdownDone
	return err
}
