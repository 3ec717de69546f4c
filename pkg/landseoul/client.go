// Package landseoul queries the Seoul land information system for
// land-transaction-permit records.
package landseoul

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/landpermit-cli/internal/model"
)

const (
	defaultBaseURL = "https://land.seoul.go.kr"
	contractPath   = "/land/wsklis/getContractList.do"
	refererPath    = "/land/other/contractStatus.do"
)

// DateLayout is the compact date form the registry accepts and returns.
const DateLayout = "20060102"

// FetchError reports a failed permit query for one district.
type FetchError struct {
	District   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("landseoul: district %s: status %d: %v", e.District, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("landseoul: district %s: %v", e.District, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches permit records.
type Client interface {
	// FetchPermits returns the residential permits for one district between
	// begin and end inclusive, both YYYYMMDD. A query with no matching rows
	// returns an empty batch and no error.
	FetchPermits(ctx context.Context, districtCode, begin, end string) (model.PermitBatch, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the registry base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a registry client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// contractResponse is the registry's JSON envelope.
type contractResponse struct {
	Result []contractRow `json:"result"`
}

// contractRow is one raw permit row. Only the columns the pipeline uses are decoded.
type contractRow struct {
	HandlingDate any    `json:"HNDL_YMD"`
	Category     string `json:"JOB_GBN_NM"`
	UsePurpose   string `json:"USE_PURP"`
	Address      string `json:"ADDRESS"`
	SerialNo     any    `json:"ACC_NO"`
}

func (c *httpClient) FetchPermits(ctx context.Context, districtCode, begin, end string) (model.PermitBatch, error) {
	for _, d := range []string{begin, end} {
		if _, err := time.Parse(DateLayout, d); err != nil {
			return nil, eris.Wrapf(err, "landseoul: invalid date %q", d)
		}
	}

	form := url.Values{
		"sggCd":     {districtCode},
		"beginDate": {begin},
		"endDate":   {end},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+contractPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "landseoul: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+refererPath)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{District: districtCode, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{District: districtCode, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			District:   districtCode,
			StatusCode: resp.StatusCode,
			Err:        eris.Errorf("unexpected status: %s", truncate(string(body), 200)),
		}
	}

	var envelope contractResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "landseoul: decode response")
	}

	batch := make(model.PermitBatch, 0, len(envelope.Result))
	for _, row := range envelope.Result {
		if row.UsePurpose != model.ResidentialUse {
			continue
		}
		batch = append(batch, row.toRecord())
	}

	zap.L().Debug("landseoul: fetched permits",
		zap.String("district", districtCode),
		zap.Int("rows", len(envelope.Result)),
		zap.Int("residential", len(batch)),
	)
	return batch, nil
}

func (r contractRow) toRecord() model.PermitRecord {
	rec := model.PermitRecord{
		Category:   r.Category,
		UsePurpose: r.UsePurpose,
		Address:    r.Address,
		SerialNo:   serialString(r.SerialNo),
	}
	if d, err := time.Parse(DateLayout, strings.TrimSpace(dateString(r.HandlingDate))); err == nil {
		rec.HandlingDate = &d
	}
	return rec
}

// serialString normalizes ACC_NO, which the registry sends as either a
// string or a number.
func serialString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return fmt.Sprintf("%.0f", s)
	default:
		return fmt.Sprint(s)
	}
}

// dateString normalizes HNDL_YMD. Numeric dates are formatted without a
// fraction; any other non-string value yields "" and so a nil date.
func dateString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return fmt.Sprintf("%.0f", s)
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
