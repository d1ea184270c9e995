package main

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Gallery is one viewer's search box and grid. It owns only the query text;
// the fetched pages live in the QueryClient.
type Gallery struct {
	client *QueryClient

	mu    sync.Mutex
	query string
}

func NewGallery(client *QueryClient) *Gallery {
	return &Gallery{client: client}
}

func (g *Gallery) Query() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.query
}

// Active returns the entry for the current query.
func (g *Gallery) Active() *InfiniteQuery {
	return g.client.Query(KeyFor(g.Query()))
}

// Search switches to text's key and starts its first page if nothing is
// loaded for it yet.
func (g *Gallery) Search(text string) bool {
	g.mu.Lock()
	g.query = text
	g.mu.Unlock()
	return g.Active().Fetch()
}

func (g *Gallery) LoadMore() bool {
	return g.Active().FetchNextPage()
}

func (g *Gallery) View() ViewModel {
	g.mu.Lock()
	query := g.query
	g.mu.Unlock()
	return newViewModel(query, g.client.Query(KeyFor(query)).Snapshot())
}

type Tile struct {
	Id          string
	ImageUrl    string
	AuthorName  string
	AuthorImage string
	LikeCount   int
	Likes       string
}

type ViewModel struct {
	Query            string
	Status           Status
	Tiles            []Tile
	Loading          bool
	Error            string
	ShowLoadMore     bool
	LoadMoreDisabled bool
	LoadMoreLabel    string
}

func newViewModel(query string, st QueryState) ViewModel {
	p := message.NewPrinter(language.English)
	vm := ViewModel{
		Query:            query,
		Status:           st.Status(),
		Tiles:            make([]Tile, len(st.Images)),
		Loading:          st.IsFetching && !st.IsFetchingNextPage,
		ShowLoadMore:     st.HasNextPage,
		LoadMoreDisabled: st.IsFetching,
		LoadMoreLabel:    "Load More",
	}
	if st.IsFetchingNextPage {
		vm.LoadMoreLabel = "Loading..."
	}
	if st.Err != nil {
		vm.Error = st.Err.Error()
	}
	for i, img := range st.Images {
		vm.Tiles[i] = Tile{
			Id:          img.Id,
			ImageUrl:    img.ImageUrl,
			AuthorName:  img.AuthorName,
			AuthorImage: img.AuthorImage,
			LikeCount:   img.LikeCount,
			Likes:       p.Sprintf("%d", img.LikeCount),
		}
	}
	return vm
}
