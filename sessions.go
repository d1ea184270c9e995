package main

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const sessionCookie = "photogallery_session"

const sessionPurgeInterval = 10 * time.Minute

// Sessions maps browser session ids to their Gallery. Idle sessions expire;
// expired ones are dropped by a purge loop that Close stops.
type Sessions struct {
	client *QueryClient
	items  *gocache.Cache

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewSessions(client *QueryClient, ttl time.Duration) *Sessions {
	s := &Sessions{
		client: client,
		// no janitor: Get skips expired items and purgeExpired removes them
		items: gocache.New(ttl, 0),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go s.purgeExpired(sessionPurgeInterval)
	return s
}

func (s *Sessions) purgeExpired(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.items.DeleteExpired()
		case <-s.stop:
			return
		}
	}
}

// Close stops the purge loop.
func (s *Sessions) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Get returns the gallery for id and extends its expiry.
func (s *Sessions) Get(id string) (*Gallery, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	g := v.(*Gallery)
	s.items.Set(id, g, gocache.DefaultExpiration)
	return g, true
}

func (s *Sessions) New() (string, *Gallery) {
	id := uuid.NewString()
	g := NewGallery(s.client)
	s.items.Set(id, g, gocache.DefaultExpiration)
	return id, g
}

func (s *Sessions) Len() int {
	return s.items.ItemCount()
}
