package phonetic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	defaultUserAgent = "lushi-phonetic/0.1"
	// Dictionary pages are small; anything larger is not what we asked for.
	maxBodySize = 10 * 1024 * 1024
)

// WebLookup fetches a dictionary page for the whole text and reads the first
// bopomofo syllables in its main content.
type WebLookup struct {
	// Endpoint is the page URL prefix; the path-escaped text is appended.
	Endpoint  string
	UserAgent string
	Client    *http.Client
	Logger    *zap.Logger
}

// NewWebLookup creates a WebLookup with a bounded HTTP client.
func NewWebLookup(endpoint string, timeout time.Duration, logger *zap.Logger) *WebLookup {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebLookup{
		Endpoint:  endpoint,
		UserAgent: defaultUserAgent,
		Client:    &http.Client{Timeout: timeout},
		Logger:    logger,
	}
}

// Lookup implements Lookup.
func (w *WebLookup) Lookup(ctx context.Context, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	n := len([]rune(text))
	if n == 0 {
		return nil, fmt.Errorf("%w: empty text", ErrNotFound)
	}

	pageURL := w.Endpoint + url.PathEscape(text)
	body, err := w.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	syllables := ExtractSyllables(mainText(body, pageURL, w.logger()))
	if len(syllables) < n {
		return nil, fmt.Errorf("%w: %q: page has %d syllables, need %d", ErrNotFound, text, len(syllables), n)
	}
	w.logger().Debug("transcribed", zap.String("text", text), zap.Strings("bopomofo", syllables[:n]))
	return syllables[:n], nil
}

func (w *WebLookup) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

func (w *WebLookup) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	ua := w.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, pageURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %s", pageURL, resp.Status)
	}
	if resp.ContentLength > maxBodySize {
		return nil, fmt.Errorf("fetch %s: content length %d exceeds %d bytes", pageURL, resp.ContentLength, maxBodySize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("fetch %s: body exceeds %d bytes", pageURL, maxBodySize)
	}
	return body, nil
}

// mainText returns the readable article text of a page, falling back to all
// text nodes when readability finds no article.
func mainText(body []byte, pageURL string, logger *zap.Logger) string {
	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err == nil && len(ExtractSyllables(article.TextContent)) > 0 {
		return article.TextContent
	}
	if err != nil {
		logger.Debug("readability failed, using raw text", zap.Error(err))
	}
	return rawText(body)
}

func rawText(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return string(body)
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}
