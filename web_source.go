package ddnsync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"time"
)

// DefaultWebURL is the "what is my IP" service used when no other is configured.
const DefaultWebURL = "https://api.ipify.org"

// WebSource constructs a source which asks an external web service for the public IP address.
//
// The service must speak http and return status "200 OK",
// with a valid IPv4 address as the first line of the response body.
// All other responses are considered an error.
func WebSource(serviceURL string) *HTTPSource {
	return &HTTPSource{URL: serviceURL}
}

// HTTPSource is the Source returned by WebSource.
type HTTPSource struct {
	URL        string
	httpClient *http.Client
}

func (ws *HTTPSource) SetHTTPClient(c *http.Client) { ws.httpClient = c }

func (ws *HTTPSource) String() string { return "web" }

// Lookup implements ddnsync.Source.
func (ws *HTTPSource) Lookup(ctx context.Context) (netip.Addr, error) {
	// 15 seconds is an eternity for the size of the request we're making,
	// but this ensures that all calls eventually complete even with context.Background
	// and http.DefaultClient (which has no timeout).
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ws.URL, nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	httpclient := ws.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}

	resp, err := httpclient.Do(req)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("http request returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error reading response body: %w", err)
	}
	addr, err := parseIPv4(string(body))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error parsing IP address from response body: %w", err)
	}
	return addr, nil
}
