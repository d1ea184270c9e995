package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
)

// Nested objects are pointers so a missing object can be told apart and
// degrade to the record defaults.
type UnsplashPhoto struct {
	Id    string        `json:"id"`
	Likes int           `json:"likes"`
	User  *UnsplashUser `json:"user"`
	Urls  *UnsplashUrls `json:"urls"`
}

type UnsplashUser struct {
	Id           string                `json:"id"`
	Username     string                `json:"username"`
	Name         string                `json:"name"`
	ProfileImage *UnsplashProfileImage `json:"profile_image"`
}

type UnsplashProfileImage struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type UnsplashUrls struct {
	Small   string `json:"small"`
	Regular string `json:"regular"`
	Raw     string `json:"raw"`
}

type UnsplashSearchResult struct {
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Results    []UnsplashPhoto `json:"results"`
}

type UnsplashApi struct {
	Http      http.Client
	cache     *ReqCache
	accessKey string
	baseUrl   string
	log       *log.Logger
}

func NewUnsplashApi(cfg *Config, cache *ReqCache) *UnsplashApi {
	return &UnsplashApi{
		cache:     cache,
		accessKey: cfg.Unsplash.AccessKey,
		baseUrl:   "https://api.unsplash.com",
		log:       log.New(os.Stderr, "(unsplash) ", log.LstdFlags),
	}
}

func (unsp *UnsplashApi) Type() string {
	return "unsplash"
}

func (unsp *UnsplashApi) Search(ctx context.Context, key QueryKey, page int) (ImagePage, error) {
	qParam := url.Values{}
	path := "/photos"
	if key.Mode == ModeSearch {
		path = "/search/photos"
		qParam.Add("query", key.Query)
	}
	qParam.Add("page", strconv.Itoa(page))
	qParam.Add("per_page", strconv.Itoa(GalleryPageSize))
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, unsp.baseUrl+path+"?"+qParam.Encode(), nil)
	if err != nil {
		unsp.log.Println("Failed to create http request:", err.Error())
		return ImagePage{}, &FetchError{Err: err}
	}
	getReq.Header.Set("Accept-Version", "v1")
	getReq.Header.Set("Authorization", "Client-ID "+unsp.accessKey)

	if key.Mode == ModeSearch {
		data := UnsplashSearchResult{}
		if _, err := fetchJSON(unsp.cache, &unsp.Http, getReq, &data); err != nil {
			logFetchFailure(unsp.log, err)
			return ImagePage{}, err
		}
		return ImagePage{
			Images:     unsplashRecords(data.Results),
			TotalPages: data.TotalPages,
		}, nil
	}

	var data []UnsplashPhoto
	header, err := fetchJSON(unsp.cache, &unsp.Http, getReq, &data)
	if err != nil {
		logFetchFailure(unsp.log, err)
		return ImagePage{}, err
	}
	total, _ := strconv.Atoi(header.Get("X-Total"))
	return ImagePage{
		Images:     unsplashRecords(data),
		TotalPages: totalPages(total, GalleryPageSize),
	}, nil
}

func unsplashRecords(photos []UnsplashPhoto) []ImageRecord {
	output := make([]ImageRecord, len(photos))
	for i, el := range photos {
		var imageUrl, authorName, authorImage string
		if el.Urls != nil {
			imageUrl = el.Urls.Small
		}
		if el.User != nil {
			authorName = el.User.Name
			if el.User.ProfileImage != nil {
				authorImage = el.User.ProfileImage.Medium
			}
		}
		output[i] = newImageRecord(el.Id, imageUrl, authorName, authorImage, el.Likes)
	}
	return output
}
