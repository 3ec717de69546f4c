// Package geocode provides Kakao Local address search for building-name lookup.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://dapi.kakao.com"

// searchPath is the Kakao Local address search endpoint.
const searchPath = "/v2/local/search/address.json"

// Client searches addresses against the Kakao Local API.
type Client interface {
	// SearchAddress runs one address query and returns the decoded response.
	SearchAddress(ctx context.Context, query string) (*SearchResponse, error)
}

// SearchResponse is the JSON body of an address search.
type SearchResponse struct {
	Documents []Document `json:"documents"`
	Meta      Meta       `json:"meta"`
}

// Meta carries paging counters.
type Meta struct {
	TotalCount int `json:"total_count"`
}

// Document is one address match.
type Document struct {
	AddressName string       `json:"address_name"`
	AddressType string       `json:"address_type"`
	RoadAddress *RoadAddress `json:"road_address"`
}

// RoadAddress is the road-name address block of a match. It is null for
// parcels without a road address. BuildingName is nil when the key is absent.
type RoadAddress struct {
	AddressName  string  `json:"address_name"`
	BuildingName *string `json:"building_name"`
	ZoneNo       string  `json:"zone_no"`
}

// Option configures the client.
type Option func(*kakaoClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *kakaoClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *kakaoClient) {
		c.http = hc
	}
}

type kakaoClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Kakao address search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &kakaoClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *kakaoClient) SearchAddress(ctx context.Context, query string) (*SearchResponse, error) {
	params := url.Values{"query": {query}}
	reqURL := c.baseURL + searchPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("geocode: kakao returned status %d", resp.StatusCode)
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	return &out, nil
}
