package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/landpermit-cli/internal/config"
	"github.com/sells-group/landpermit-cli/internal/model"
)

// fakeServices stands in for the land registry, the Kakao API and the Bot API.
type fakeServices struct {
	land  *httptest.Server
	kakao *httptest.Server
	bot   *httptest.Server

	// rows per district code; a missing code answers 500.
	rows map[string][]map[string]any
	// building names per full address; a missing address has no documents.
	buildings map[string]string

	mu           sync.Mutex
	lookups      int
	messages     []string
	failMessages bool
	failGetMe    bool
}

func newFakeServices(t *testing.T) *fakeServices {
	t.Helper()
	f := &fakeServices{
		rows:      make(map[string][]map[string]any),
		buildings: make(map[string]string),
	}

	f.land = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		rows, ok := f.rows[r.PostForm.Get("sggCd")]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"result": rows})
	}))

	f.kakao = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "KakaoAK test-key", r.Header.Get("Authorization"))
		f.mu.Lock()
		f.lookups++
		f.mu.Unlock()

		docs := []map[string]any{}
		if name, ok := f.buildings[r.URL.Query().Get("query")]; ok {
			docs = append(docs, map[string]any{
				"address_name": r.URL.Query().Get("query"),
				"road_address": map[string]any{"building_name": name},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"documents": docs, "meta": map[string]any{"total_count": len(docs)}})
	}))

	f.bot = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			f.mu.Lock()
			down := f.failGetMe
			f.mu.Unlock()
			if down {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, `{"ok":false,"error_code":502,"description":"Bad Gateway"}`)
				return
			}
			_, _ = io.WriteString(w, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"permits","username":"permit_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			f.mu.Lock()
			f.messages = append(f.messages, r.PostForm.Get("text"))
			fail := f.failMessages
			f.mu.Unlock()
			if fail {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
				return
			}
			_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	t.Cleanup(func() {
		f.land.Close()
		f.kakao.Close()
		f.bot.Close()
	})
	return f
}

func (f *fakeServices) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func (f *fakeServices) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func permitRow(serial any, address, use string) map[string]any {
	return map[string]any{
		"HNDL_YMD":   "20250624",
		"JOB_GBN_NM": "신규",
		"USE_PURP":   use,
		"ADDRESS":    address,
		"ACC_NO":     serial,
	}
}

// testConfig builds a valid configuration pointing at f, with every file
// output under dir.
func testConfig(f *fakeServices, dir string) *config.Config {
	return &config.Config{
		Land:      config.LandConfig{BaseURL: f.land.URL, TimeoutSecs: 5},
		Districts: []model.District{{Name: "서초구", Code: "11650"}, {Name: "강남구", Code: "11680"}},
		Geocode: config.GeocodeConfig{
			BaseURL:    f.kakao.URL,
			APIKey:     "test-key",
			CityPrefix: "서울특별시",
		},
		Telegram: config.TelegramConfig{
			Token:       "123:abc",
			ChatID:      "6933129780",
			APIEndpoint: f.bot.URL + "/bot%s/%s",
			ChunkSize:   4000,
		},
		Cache: config.CacheConfig{Driver: "json", Path: filepath.Join(dir, "address_data.json")},
		Output: config.OutputConfig{
			RawCSV:   filepath.Join(dir, "permission_list.csv"),
			DedupCSV: filepath.Join(dir, "permission_list_dedup.csv"),
			XLSXPath: filepath.Join(dir, "permits.xlsx"),
		},
		Report:  config.ReportConfig{FocusDistrict: "서초구", FocusDong: "우면동", Timezone: "Asia/Seoul"},
		Metrics: config.MetricsConfig{Textfile: filepath.Join(dir, "landpermit.prom"), FailureRateThreshold: 0.5},
		Log:     config.LogConfig{Level: "info", Format: "console"},
	}
}
