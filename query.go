package main

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	lru "github.com/apibillme/cache"
)

type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusReady
	StatusFetchingMore
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusFetching:
		return "fetching"
	case StatusReady:
		return "ready"
	case StatusFetchingMore:
		return "fetching-more"
	case StatusErrored:
		return "errored"
	default:
		return "idle"
	}
}

// QueryState is a point-in-time copy of one key's entry.
type QueryState struct {
	Key                QueryKey
	Pages              [][]ImageRecord
	Images             []ImageRecord
	IsFetching         bool
	IsFetchingNextPage bool
	HasNextPage        bool
	Err                error
}

func (s QueryState) Status() Status {
	switch {
	case s.IsFetchingNextPage:
		return StatusFetchingMore
	case s.IsFetching:
		return StatusFetching
	case s.Err != nil:
		return StatusErrored
	case len(s.Pages) > 0:
		return StatusReady
	default:
		return StatusIdle
	}
}

// InfiniteQuery holds the pages fetched for one key and runs at most one
// fetch for it at a time.
type InfiniteQuery struct {
	key    QueryKey
	client *QueryClient

	mu           sync.Mutex
	pages        PageSeq
	started      bool
	inFlight     bool
	fetchingNext bool
	err          error
	totalPages   int
	settled      chan struct{}
}

func (q *InfiniteQuery) Key() QueryKey {
	return q.key
}

// Fetch starts loading page 1 unless pages are already loaded or a fetch is
// in flight.
func (q *InfiniteQuery) Fetch() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inFlight || q.pages.Len() > 0 {
		return false
	}
	return q.startLocked(1, false)
}

// EnsureFetched starts loading page 1 only if this key was never fetched, so
// a failed key stays failed until the user asks again.
func (q *InfiniteQuery) EnsureFetched() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.inFlight {
		return false
	}
	return q.startLocked(1, false)
}

// FetchNextPage requests the page after the loaded ones. It is a no-op while
// any fetch for this key is in flight or no next page is offered.
func (q *InfiniteQuery) FetchNextPage() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inFlight {
		q.client.metrics.LoadMoreIgnored()
		return false
	}
	// nothing loaded yet, or upstream said there is no more
	if !q.pages.HasNext(q.totalPages, q.client.stopAtLastPage) {
		return false
	}
	return q.startLocked(q.pages.NextPage(), true)
}

func (q *InfiniteQuery) startLocked(page int, next bool) bool {
	settled := make(chan struct{})
	ok := q.client.spawn(q, func(ctx context.Context) {
		q.run(ctx, page, settled)
	})
	if !ok {
		return false
	}
	q.started = true
	q.inFlight = true
	q.fetchingNext = next
	q.settled = settled
	return true
}

func (q *InfiniteQuery) run(ctx context.Context, page int, settled chan struct{}) {
	start := time.Now()
	res, err := q.client.searcher.Search(ctx, q.key, page)
	q.client.metrics.PageFetch(q.key.Mode, err, time.Since(start))

	q.mu.Lock()
	defer q.mu.Unlock()
	if err != nil {
		q.client.log.Printf("%s page %d: %v", q.key, page, err)
		q.err = err
	} else {
		q.pages.Append(res.Images)
		q.err = nil
		if res.TotalPages > 0 {
			q.totalPages = res.TotalPages
		}
	}
	q.inFlight = false
	q.fetchingNext = false
	q.client.settle(q)
	close(settled)
}

// Wait blocks until no fetch is in flight for this key or ctx is done.
func (q *InfiniteQuery) Wait(ctx context.Context) error {
	q.mu.Lock()
	inFlight, settled := q.inFlight, q.settled
	q.mu.Unlock()
	if !inFlight {
		return nil
	}
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InfiniteQuery) Snapshot() QueryState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueryState{
		Key:                q.key,
		Pages:              q.pages.Pages(),
		Images:             q.pages.Flatten(),
		IsFetching:         q.inFlight,
		IsFetchingNextPage: q.inFlight && q.fetchingNext,
		HasNextPage:        q.pages.HasNext(q.totalPages, q.client.stopAtLastPage),
		Err:                q.err,
	}
}

type QueryClientOptions struct {
	Entries        int
	TTL            time.Duration
	StopAtLastPage bool
	Metrics        *Metrics
}

// QueryClient owns every key's entry and the fetch tasks for the lifetime of
// the application. Close tears it down.
type QueryClient struct {
	searcher       ImageSearcher
	metrics        *Metrics
	stopAtLastPage bool
	log            *log.Logger

	mu      sync.Mutex
	entries lru.Cache
	// entries with a fetch running, kept reachable even if the LRU drops them
	inflight map[string]*InfiniteQuery
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup
}

func NewQueryClient(searcher ImageSearcher, opts QueryClientOptions) *QueryClient {
	if opts.Entries <= 0 {
		opts.Entries = 256
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &QueryClient{
		searcher:       searcher,
		metrics:        opts.Metrics,
		stopAtLastPage: opts.StopAtLastPage,
		log:            log.New(os.Stderr, "(query) ", log.LstdFlags),
		entries:        lru.New(opts.Entries, lru.WithTTL(opts.TTL)),
		inflight:       map[string]*InfiniteQuery{},
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Query returns the entry for key, creating an idle one if none is cached.
func (qc *QueryClient) Query(key QueryKey) *InfiniteQuery {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	id := key.String()
	if v, ok := qc.entries.Get(id); ok {
		q := v.(*InfiniteQuery)
		// refresh the entry's TTL on use
		qc.entries.Set(id, q)
		return q
	}
	q, ok := qc.inflight[id]
	if !ok {
		q = &InfiniteQuery{key: key, client: qc}
	}
	qc.entries.Set(id, q)
	return q
}

// spawn runs fn as q's fetch task. Called with q.mu held.
func (qc *QueryClient) spawn(q *InfiniteQuery, fn func(ctx context.Context)) bool {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	if qc.closed {
		return false
	}
	qc.inflight[q.key.String()] = q
	qc.tasks.Add(1)
	go func() {
		defer qc.tasks.Done()
		fn(qc.ctx)
	}()
	return true
}

// settle forgets q's running fetch. Called with q.mu held.
func (qc *QueryClient) settle(q *InfiniteQuery) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	id := q.key.String()
	if qc.inflight[id] == q {
		delete(qc.inflight, id)
	}
}

// Close cancels in-flight fetches and waits for their tasks to finish.
func (qc *QueryClient) Close() {
	qc.mu.Lock()
	qc.closed = true
	qc.mu.Unlock()
	qc.cancel()
	qc.tasks.Wait()
}
