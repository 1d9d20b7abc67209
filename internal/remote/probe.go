package remote

import (
	"context"
	"net/http"
	"time"
)

// Prober implements Network by probing the remote store's base URL.
// Any HTTP response, including an error status, counts as reachable;
// only transport failures mean offline.
type Prober struct {
	url    string
	client *http.Client
}

// NewProber creates a Prober against the given base URL.
func NewProber(baseURL string) *Prober {
	return &Prober{
		url:    baseURL,
		client: &http.Client{Timeout: 2 * time.Second},
	}
}

// Online implements Network.
func (p *Prober) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
