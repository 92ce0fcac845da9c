package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"
)

// Transport defines the interface for sending hits
type Transport interface {
	Send(ctx context.Context, hit []param.Pair) error
}

// HTTPTransport sends each hit as one GET request. Failed hits are not retried.
type HTTPTransport struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTP creates a new HTTP transport
func NewHTTP(endpoint, apiKey string) (*HTTPTransport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}

	return &HTTPTransport{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// BuildURL returns the URL a hit is sent to
func (t *HTTPTransport) BuildURL(hit []param.Pair) string {
	sep := "?"
	if strings.Contains(t.endpoint, "?") {
		sep = "&"
	}
	return t.endpoint + sep + Query(hit)
}

// Send sends the hit to the collector
func (t *HTTPTransport) Send(ctx context.Context, hit []param.Pair) error {
	if len(hit) == 0 {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.BuildURL(hit), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return nil
}

// Query joins pairs as name=value in order. Values are already encoded by the
// buffer; only bytes that would break the query framing are escaped here.
func Query(hit []param.Pair) string {
	var b strings.Builder
	for i, p := range hit {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		writeValue(&b, p.Value)
	}
	return b.String()
}

func writeValue(b *strings.Builder, s string) {
	const hex = "0123456789ABCDEF"
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c <= ' ', c >= 0x7f, c == '&', c == '#', c == '"', c == '<', c == '>':
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&15])
		default:
			b.WriteByte(c)
		}
	}
}
