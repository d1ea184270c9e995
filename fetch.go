package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
)

// ErrFetchFailed is the only error kind the gallery reports for upstream requests.
var ErrFetchFailed = errors.New("Failed to fetch images")

// FetchError carries the cause of a failed upstream request. Its message is
// always the generic ErrFetchFailed text; the cause is only for logs.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string { return ErrFetchFailed.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// Cause describes what went wrong, for logging.
func (e *FetchError) Cause() string {
	if e.Status != 0 {
		return fmt.Sprintf("status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprint(e.Err)
}

// fetchJSON performs req through the request cache and decodes a 2xx body into out.
func fetchJSON(cache *ReqCache, client *http.Client, req *http.Request, out any) (http.Header, error) {
	res, err := cache.CachedFetch(req, client)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, res.Body)
		return nil, &FetchError{Status: res.StatusCode, Err: fmt.Errorf("upstream returned %s", res.Status)}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return nil, &FetchError{Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return res.Header, nil
}

func logFetchFailure(logger *log.Logger, err error) {
	var fe *FetchError
	if errors.As(err, &fe) {
		logger.Println("Failed to fetch:", fe.Cause())
		return
	}
	logger.Println("Failed to fetch:", err.Error())
}
