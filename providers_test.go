package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPexelsCuratedAndSearch(t *testing.T) {
	setupHTTPMock(t)

	body := `{
	  "total_results": 100,
	  "page": 1,
	  "per_page": 15,
	  "photos": [
	    {"id": 42, "photographer": "Bo", "src": {"medium": "https://images.pexels.com/42-medium"}},
	    {"id": 43}
	  ]
	}`
	httpmock.RegisterResponder("GET", "https://api.pexels.com/v1/curated",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "pexels-key", req.Header.Get("Authorization"))
			assert.Equal(t, "15", req.URL.Query().Get("per_page"))
			return httpmock.NewStringResponse(http.StatusOK, body), nil
		})
	httpmock.RegisterResponder("GET", "https://api.pexels.com/v1/search",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "dogs", req.URL.Query().Get("query"))
			return httpmock.NewStringResponse(http.StatusOK, body), nil
		})

	cfg := defaultConfig()
	cfg.Pexels.Key = "pexels-key"
	api := NewPexelsApi(cfg, nil)

	for _, key := range []QueryKey{KeyFor(""), KeyFor("dogs")} {
		page, err := api.Search(context.Background(), key, 1)
		require.NoError(t, err)
		require.Len(t, page.Images, 2)
		assert.Equal(t, 7, page.TotalPages)
		assert.Equal(t, ImageRecord{
			Id:         "pexels/42",
			ImageUrl:   "https://images.pexels.com/42-medium",
			AuthorName: "Bo",
		}, page.Images[0])
		assert.Equal(t, ImageRecord{Id: "pexels/43", AuthorName: "Unknown"}, page.Images[1])
	}

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["GET https://api.pexels.com/v1/curated"])
	assert.Equal(t, 1, info["GET https://api.pexels.com/v1/search"])
}

func TestPixabaySearch(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder("GET", "https://pixabay.com/api/",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "pixabay-key", req.URL.Query().Get("key"))
			assert.Equal(t, "birds", req.URL.Query().Get("q"))
			assert.Equal(t, "3", req.URL.Query().Get("page"))
			return httpmock.NewStringResponse(http.StatusOK, `{
			  "total": 500,
			  "totalHits": 30,
			  "hits": [
			    {"id": 7, "webformatURL": "https://pixabay.com/7.jpg", "user": "Cy", "userImageURL": "https://pixabay.com/cy.png", "likes": 9}
			  ]
			}`), nil
		})

	cfg := defaultConfig()
	cfg.Pixabay.Key = "pixabay-key"
	page, err := NewPixabayApi(cfg, nil).Search(context.Background(), KeyFor("birds"), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, []ImageRecord{{
		Id:          "pixabay/7",
		ImageUrl:    "https://pixabay.com/7.jpg",
		AuthorName:  "Cy",
		AuthorImage: "https://pixabay.com/cy.png",
		LikeCount:   9,
	}}, page.Images)
}

func TestPixabayError(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder("GET", "https://pixabay.com/api/",
		httpmock.NewStringResponder(http.StatusBadRequest, "[ERROR 400] Invalid API key"))

	_, err := NewPixabayApi(defaultConfig(), nil).Search(context.Background(), KeyFor(""), 1)
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestNewSearcher(t *testing.T) {
	cfg := defaultConfig()
	for provider, want := range map[string]string{
		"":         "unsplash",
		"unsplash": "unsplash",
		"pexels":   "pexels",
		"pixabay":  "pixabay",
	} {
		cfg.Provider = provider
		s, err := newSearcher(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, want, s.Type())
	}

	cfg.Provider = "flickr"
	_, err := newSearcher(cfg, nil)
	assert.Error(t, err)
}
