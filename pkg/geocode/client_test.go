package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchAddress_BuildingName(t *testing.T) {
	var gotQuery, gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"meta": {"total_count": 1},
			"documents": [{
				"address_name": "서울 서초구 반포동 18-1",
				"address_type": "REGION_ADDR",
				"road_address": {
					"address_name": "서울 서초구 신반포로15길 19",
					"building_name": "아크로리버파크",
					"zone_no": "06503"
				}
			}]
		}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.SearchAddress(context.Background(), "서울특별시 서초구 반포동 18-1")
	require.NoError(t, err)

	assert.Equal(t, "/v2/local/search/address.json", gotPath)
	assert.Equal(t, "서울특별시 서초구 반포동 18-1", gotQuery)
	assert.Equal(t, "KakaoAK test-key", gotAuth)
	require.Len(t, resp.Documents, 1)
	require.NotNil(t, resp.Documents[0].RoadAddress)
	require.NotNil(t, resp.Documents[0].RoadAddress.BuildingName)
	assert.Equal(t, "아크로리버파크", *resp.Documents[0].RoadAddress.BuildingName)
	assert.Equal(t, 1, resp.Meta.TotalCount)
}

func TestSearchAddress_NullRoadAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"documents": [{"address_name": "서울 서초구 우면동 산1", "road_address": null}]}`)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	resp, err := c.SearchAddress(context.Background(), "서울특별시 서초구 우면동 산1")
	require.NoError(t, err)
	require.Len(t, resp.Documents, 1)
	assert.Nil(t, resp.Documents[0].RoadAddress)
}

func TestSearchAddress_BuildingNameKeyAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"documents": [
			{"address_name": "서울 서초구 우면동 1", "road_address": {"address_name": "서울 서초구 태봉로 114"}},
			{"address_name": "서울 서초구 우면동 2", "road_address": {"address_name": "서울 서초구 태봉로 116", "building_name": ""}}
		]}`)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	resp, err := c.SearchAddress(context.Background(), "서울특별시 서초구 우면동 1")
	require.NoError(t, err)
	require.Len(t, resp.Documents, 2)
	assert.Nil(t, resp.Documents[0].RoadAddress.BuildingName)
	require.NotNil(t, resp.Documents[1].RoadAddress.BuildingName)
	assert.Equal(t, "", *resp.Documents[1].RoadAddress.BuildingName)
}

func TestSearchAddress_NoDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"documents": [], "meta": {"total_count": 0}}`)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	resp, err := c.SearchAddress(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, resp.Documents)
}

func TestSearchAddress_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad", WithBaseURL(srv.URL))
	_, err := c.SearchAddress(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSearchAddress_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"documents": [`)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.SearchAddress(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
}

func TestSearchAddress_DefaultBaseURLRewritten(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"documents": []}`)
	}))
	defer srv.Close()

	c := NewClient("k", WithHTTPClient(newRewriteClient(srv.URL, defaultBaseURL)))
	resp, err := c.SearchAddress(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, resp.Documents)
}
