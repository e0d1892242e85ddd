package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/blacktop/tootrelay/internal/logutil"
)

// Fetcher downloads remote media attachments into scratch files.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a fetcher using the given HTTP client.
func NewFetcher(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch downloads every attachment in order into a freshly allocated
// scratch file. Attachments without a URL or with an unsupported kind are
// skipped. If any download fails the whole fetch fails; the media
// downloaded up to that point is still returned so the caller's cleanup
// can remove it.
func (f *Fetcher) Fetch(ctx context.Context, attachments []Attachment) ([]Media, error) {
	if len(attachments) == 0 {
		return nil, nil
	}
	media := make([]Media, 0, len(attachments))
	for _, a := range attachments {
		if a.URL == "" || !supportedKind(a.Kind) {
			logutil.Debugf("fetch: skipping attachment kind=%q url=%q", a.Kind, a.URL)
			continue
		}
		m, err := f.fetchOne(ctx, a)
		if err != nil {
			return media, err
		}
		media = append(media, m)
	}
	return media, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, a Attachment) (Media, error) {
	tmp, err := os.CreateTemp("", "tootrelay-media-*")
	if err != nil {
		return Media{}, fmt.Errorf("create scratch file: %w", err)
	}
	m := Media{Path: tmp.Name(), MIME: kindMIME(a.Kind), Alt: a.Description}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		tmp.Close()
		os.Remove(m.Path)
		return Media{}, fmt.Errorf("request %q: %w", a.URL, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		tmp.Close()
		os.Remove(m.Path)
		return Media{}, fmt.Errorf("download %q: %w", a.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		tmp.Close()
		os.Remove(m.Path)
		return Media{}, fmt.Errorf("download %q: unexpected status %s", a.URL, resp.Status)
	}

	m.Size, err = io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(m.Path)
		return Media{}, fmt.Errorf("write %q: %w", m.Path, err)
	}

	logutil.Debugf("fetch: downloaded %q (%d bytes) into %q", a.URL, m.Size, m.Path)
	return m, nil
}

func supportedKind(kind string) bool {
	switch kind {
	case "image", "gif", "gifv", "video":
		return true
	}
	return false
}

func kindMIME(kind string) string {
	switch kind {
	case "gif", "gifv", "video":
		return "video/mp4"
	default:
		return "image/jpeg"
	}
}
