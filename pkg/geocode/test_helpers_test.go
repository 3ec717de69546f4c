package geocode

import (
	"net/http"
	"strings"
)

// newRewriteClient returns an HTTP client that sends requests aimed at
// targetPrefix to the test server instead.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if !strings.HasPrefix(origURL, t.targetPrefix) {
		return t.base.RoundTrip(req)
	}
	parsed, err := req.URL.Parse(t.testServer + origURL[len(t.targetPrefix):])
	if err != nil {
		return nil, err
	}
	newReq := req.Clone(req.Context())
	newReq.URL = parsed
	newReq.Host = parsed.Host
	return t.base.RoundTrip(newReq)
}
