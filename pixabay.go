package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
)

type PixabaySearchItem struct {
	Id           int    `json:"id"`
	Tags         string `json:"tags"`
	WebFormatUrl string `json:"webformatURL"`
	PreviewUrl   string `json:"previewURL"`
	UserId       int    `json:"user_id"`
	User         string `json:"user"`
	UserImageUrl string `json:"userImageURL"`
	Likes        int    `json:"likes"`
	PageUrl      string `json:"pageURL"`
}

type PixabaySearchResult struct {
	Total     int                 `json:"total"`
	TotalHits int                 `json:"totalHits"`
	Hits      []PixabaySearchItem `json:"hits"`
}

type PixabayApi struct {
	Http    http.Client
	cache   *ReqCache
	apiKey  string
	baseUrl string
	log     *log.Logger
}

func NewPixabayApi(cfg *Config, cache *ReqCache) *PixabayApi {
	return &PixabayApi{
		cache:   cache,
		apiKey:  cfg.Pixabay.Key,
		baseUrl: "https://pixabay.com/api/",
		log:     log.New(os.Stderr, "(pixabay) ", log.LstdFlags),
	}
}

func (api *PixabayApi) Type() string {
	return "pixabay"
}

// Search lists all images when the key is in listing mode; Pixabay treats an
// empty q as "everything".
func (api *PixabayApi) Search(ctx context.Context, key QueryKey, page int) (ImagePage, error) {
	qParam := url.Values{}
	qParam.Add("key", api.apiKey)
	qParam.Add("image_type", "photo")
	if key.Mode == ModeSearch {
		qParam.Add("q", key.Query)
	}
	qParam.Add("page", strconv.Itoa(page))
	qParam.Add("per_page", strconv.Itoa(GalleryPageSize))
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, api.baseUrl+"?"+qParam.Encode(), nil)
	if err != nil {
		api.log.Println("Failed to create http request:", err.Error())
		return ImagePage{}, &FetchError{Err: err}
	}

	data := PixabaySearchResult{}
	if _, err := fetchJSON(api.cache, &api.Http, getReq, &data); err != nil {
		logFetchFailure(api.log, err)
		return ImagePage{}, err
	}
	output := make([]ImageRecord, len(data.Hits))
	for i, el := range data.Hits {
		output[i] = newImageRecord("pixabay/"+strconv.Itoa(el.Id), el.WebFormatUrl, el.User, el.UserImageUrl, el.Likes)
	}
	return ImagePage{
		Images:     output,
		TotalPages: totalPages(data.TotalHits, GalleryPageSize),
	}, nil
}
