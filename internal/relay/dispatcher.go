package relay

import (
	"context"
	"os"

	"github.com/blacktop/tootrelay/internal/logutil"
)

// Dispatcher processes one source account's post events: it filters them,
// fetches media, sanitizes content, and submits the result to every
// configured destination adapter independently.
type Dispatcher struct {
	name      string
	accountID string
	fetcher   *Fetcher
	sanitizer *Sanitizer
	posters   []Poster
}

// NewDispatcher builds a dispatcher bound to one source account.
func NewDispatcher(name, accountID string, fetcher *Fetcher, sanitizer *Sanitizer, posters []Poster) *Dispatcher {
	return &Dispatcher{
		name:      name,
		accountID: accountID,
		fetcher:   fetcher,
		sanitizer: sanitizer,
		posters:   posters,
	}
}

// Dispatch runs the full pipeline for one event. Filter rejections are
// silent; a media fetch failure skips every adapter; one adapter's failure
// never skips its siblings. Scratch files are removed exactly once on
// every path.
func (d *Dispatcher) Dispatch(ctx context.Context, status *Status) {
	if !d.accepts(status) {
		logutil.Debugf("[%s] ignoring status %q: does not match content criteria", d.name, status.ID)
		return
	}
	logutil.Infof("[%s] received post %q by @%s", d.name, status.ID, status.AccountHandle)

	media, err := d.fetcher.Fetch(ctx, status.Attachments)
	defer d.cleanup(media)
	if err != nil {
		logutil.Errorf("[%s] cannot download attachments for %q: %s", d.name, status.ID, err)
		return
	}

	post := &Post{
		ID:    status.ID,
		Text:  d.sanitizer.Sanitize(status.Content),
		Media: media,
	}

	for _, p := range d.posters {
		id, err := p.Post(ctx, post)
		if err != nil {
			logutil.Errorf("[%s] %s post failed for %q: %s", d.name, p.Name(), status.ID, err)
			continue
		}
		logutil.Infof("[%s] posted %q to %s as %q", d.name, status.ID, p.Name(), id)
	}
}

// accepts reports whether the event is an original, top-level, public post
// from the watched account with non-empty content.
func (d *Dispatcher) accepts(s *Status) bool {
	if s.AccountID != d.accountID {
		return false
	}
	if s.Visibility != "public" {
		return false
	}
	if s.Reblog || s.Reblogged {
		return false
	}
	if s.InReplyToID != "" || s.InReplyToAccountID != "" {
		return false
	}
	return s.Content != ""
}

func (d *Dispatcher) cleanup(media []Media) {
	for _, m := range media {
		if err := os.Remove(m.Path); err != nil {
			logutil.Errorf("[%s] cannot remove scratch file %q: %s", d.name, m.Path, err)
		}
	}
}
