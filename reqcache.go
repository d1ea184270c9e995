package main

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"sync"
	"time"
)

const purgeInterval = 1 * time.Hour

// ReqCache memoizes successful upstream responses keyed by the dumped request.
type ReqCache struct {
	store   *Store
	ttl     time.Duration
	metrics *Metrics
	log     *log.Logger
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewReqCache(cfg *Config, store *Store, metrics *Metrics) *ReqCache {
	logger := log.New(os.Stderr, "(cache) ", log.LstdFlags)
	rc := ReqCache{
		store:   store,
		ttl:     time.Duration(cfg.Cache.RequestTTLSeconds) * time.Second,
		metrics: metrics,
		log:     logger,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go rc.purgeExpired()
	return &rc
}

func (rc *ReqCache) purgeExpired() {
	defer close(rc.done)
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		if n := rc.store.DeleteBefore(rc.now().Unix()); n > 0 {
			rc.log.Println("purged", n, "expired responses")
		}
		select {
		case <-ticker.C:
		case <-rc.stop:
			return
		}
	}
}

// Close stops the purge loop. The store is left open.
func (rc *ReqCache) Close() {
	if rc == nil {
		return
	}
	rc.stopOnce.Do(func() { close(rc.stop) })
	<-rc.done
}

// CachedFetch returns a memoized response for an identical earlier request or
// performs req with client. Only 2xx responses are memoized. A nil ReqCache
// fetches directly.
func (rc *ReqCache) CachedFetch(req *http.Request, client *http.Client) (*http.Response, error) {
	if rc == nil {
		return client.Do(req)
	}
	reqBytes, _ := httputil.DumpRequest(req, true)
	md5Hash := md5.Sum(reqBytes)
	reqHash := hex.EncodeToString(md5Hash[:])
	data, ok := rc.store.GetResponse(reqHash, rc.now().Unix())
	if ok {
		res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), req)
		if err == nil {
			rc.metrics.CacheLookup("hit")
			return res, nil
		}
		rc.log.Println("Problems decoding cached result", err.Error())
	}

	rc.metrics.CacheLookup("miss")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, nil
	}
	respBytes, err := httputil.DumpResponse(resp, true)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	rc.log.Println("MISS", req.URL.Host, req.URL.Path)
	rc.store.StoreResponse(reqHash, respBytes, rc.now().Add(rc.ttl).Unix())
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(respBytes)), req)
}
