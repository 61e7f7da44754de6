package preview

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"chathub/internal/config"
)

// Preview is the structured metadata attached to a message whose content
// contains a link.
type Preview struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Fetcher is a best-effort capability: nil means "no preview", whatever
// the reason. Callers never see an error from it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) *Preview
}

var urlRegex = regexp.MustCompile(`https?://[^\s<>"]+`)

// FirstURL returns the first URL-like substring in content, or "".
func FirstURL(content string) string {
	return urlRegex.FindString(content)
}

type HTTPFetcher struct {
	client       *http.Client
	maxBody      int64
	allowPrivate bool
}

func NewHTTPFetcher(cnf *config.Config) *HTTPFetcher {
	f := &HTTPFetcher{maxBody: cnf.Preview.MaxBodyBytes}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport := &http.Transport{
		// Check the resolved address after dialing so DNS tricks cannot
		// point a public hostname at an internal service.
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if !f.allowPrivate {
				if tcpAddr, ok := conn.RemoteAddr().(*net.TCPAddr); ok && isBlockedIP(tcpAddr.IP) {
					conn.Close()
					return nil, fmt.Errorf("refusing to fetch from %s", tcpAddr.IP)
				}
			}
			return conn, nil
		},
	}
	f.client = &http.Client{
		Timeout:   time.Duration(cnf.Preview.TimeoutSeconds) * time.Second,
		Transport: transport,
	}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) *Preview {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "chathub-link-preview/1.0")
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		log.Printf("link preview fetch failed for %s: %v", rawURL, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return nil
	}

	body := io.LimitReader(resp.Body, f.maxBody)
	p, err := extract(body, rawURL)
	if err != nil {
		return nil
	}
	return p
}

func isBlockedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
