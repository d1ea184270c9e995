package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
)

type PexelsPhoto struct {
	Id           int             `json:"id"`
	Url          string          `json:"url"`
	Alt          string          `json:"alt"`
	Photographer string          `json:"photographer"`
	Src          *PexelsPhotoSrc `json:"src"`
}

type PexelsPhotoSrc struct {
	Original string `json:"original"`
	Large    string `json:"large"`
	Medium   string `json:"medium"`
	Small    string `json:"small"`
}

// PexelsSearchResult is the shape of both the curated and the search endpoint.
type PexelsSearchResult struct {
	TotalResults int           `json:"total_results"`
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	Photos       []PexelsPhoto `json:"photos"`
}

// PexelsApi reports neither author avatars nor like counts; those fields
// always take the record defaults.
type PexelsApi struct {
	Http    http.Client
	cache   *ReqCache
	apiKey  string
	baseUrl string
	log     *log.Logger
}

func NewPexelsApi(cfg *Config, cache *ReqCache) *PexelsApi {
	return &PexelsApi{
		apiKey:  cfg.Pexels.Key,
		cache:   cache,
		baseUrl: "https://api.pexels.com/v1",
		log:     log.New(os.Stderr, "(pexels) ", log.LstdFlags),
	}
}

func (api *PexelsApi) Type() string {
	return "pexels"
}

func (api *PexelsApi) Search(ctx context.Context, key QueryKey, page int) (ImagePage, error) {
	qParam := url.Values{}
	path := "/curated"
	if key.Mode == ModeSearch {
		path = "/search"
		qParam.Add("query", key.Query)
	}
	qParam.Add("page", strconv.Itoa(page))
	qParam.Add("per_page", strconv.Itoa(GalleryPageSize))
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, api.baseUrl+path+"?"+qParam.Encode(), nil)
	if err != nil {
		api.log.Println("Failed to create http request:", err)
		return ImagePage{}, &FetchError{Err: err}
	}
	getReq.Header.Set("Authorization", api.apiKey)

	data := PexelsSearchResult{}
	if _, err := fetchJSON(api.cache, &api.Http, getReq, &data); err != nil {
		logFetchFailure(api.log, err)
		return ImagePage{}, err
	}
	output := make([]ImageRecord, len(data.Photos))
	for i, el := range data.Photos {
		var imageUrl string
		if el.Src != nil {
			imageUrl = el.Src.Medium
		}
		output[i] = newImageRecord("pexels/"+strconv.Itoa(el.Id), imageUrl, el.Photographer, "", 0)
	}
	return ImagePage{
		Images:     output,
		TotalPages: totalPages(data.TotalResults, GalleryPageSize),
	}, nil
}
