package main

import "context"

// GalleryPageSize is the number of images requested from upstream per page.
const GalleryPageSize int = 15

const unknownAuthor = "Unknown"

type ImageRecord struct {
	Id          string `json:"id"`
	ImageUrl    string `json:"imageUrl"`
	AuthorName  string `json:"authorName"`
	AuthorImage string `json:"authorImage"`
	LikeCount   int    `json:"likeCount"`
}

// newImageRecord applies the defaults for fields an upstream item left out.
func newImageRecord(id, imageUrl, authorName, authorImage string, likes int) ImageRecord {
	if authorName == "" {
		authorName = unknownAuthor
	}
	if likes < 0 {
		likes = 0
	}
	return ImageRecord{
		Id:          id,
		ImageUrl:    imageUrl,
		AuthorName:  authorName,
		AuthorImage: authorImage,
		LikeCount:   likes,
	}
}

type Mode int

const (
	ModeListing Mode = iota
	ModeSearch
)

func (m Mode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "listing"
}

// QueryKey identifies one independent paginated result set.
type QueryKey struct {
	Mode  Mode
	Query string
}

func KeyFor(query string) QueryKey {
	if query == "" {
		return QueryKey{Mode: ModeListing}
	}
	return QueryKey{Mode: ModeSearch, Query: query}
}

func (k QueryKey) String() string {
	return "images/" + k.Mode.String() + "/" + k.Query
}

type ImageSearcher interface {
	// Search fetches one page of the given key from upstream.
	Search(ctx context.Context, key QueryKey, page int) (ImagePage, error)
	Type() string
}

type ImagePage struct {
	Images []ImageRecord
	// TotalPages is the upstream page count, 0 when upstream did not say.
	TotalPages int
}

func totalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
