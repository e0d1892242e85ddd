// Package mastodon implements the source side of the relay: a streaming
// subscription to one Mastodon account's user timeline.
package mastodon

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blacktop/tootrelay/internal/logutil"
	"github.com/blacktop/tootrelay/internal/relay"
	mastodonapi "github.com/mattn/go-mastodon"
)

// Stream is a relay.Source backed by the Mastodon streaming API.
type Stream struct {
	client  *mastodonapi.Client
	account *mastodonapi.Account
	cancel  context.CancelFunc
}

// New builds the API client and verifies the credentials, resolving the
// watched account's identifier and handle. The client carries no overall
// timeout: the streaming connection it opens is long-lived.
func New(ctx context.Context, cfg *relay.MastodonConfig) (*Stream, error) {
	client := mastodonapi.NewClient(&mastodonapi.Config{
		Server:       cfg.Server,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AccessToken:  cfg.AccessToken,
	})

	account, err := client.GetAccountCurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify mastodon credentials: %w", err)
	}

	return &Stream{client: client, account: account}, nil
}

// AccountID returns the watched account's stable identifier.
func (s *Stream) AccountID() string { return string(s.account.ID) }

// Username returns the watched account's local username.
func (s *Stream) Username() string { return s.account.Username }

// Subscribe opens the user stream and yields status updates converted to
// relay events. Error events are logged and skipped; the channel closes
// when the underlying stream ends or the context is canceled.
func (s *Stream) Subscribe(ctx context.Context) (<-chan *relay.Status, error) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	events, err := s.client.StreamingUser(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open mastodon stream: %w", err)
	}

	out := make(chan *relay.Status)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case *mastodonapi.ErrorEvent:
					logutil.Errorf("[%s] stream error: %s", s.account.Username, e.Err)
				case *mastodonapi.UpdateEvent:
					select {
					case out <- convertStatus(e.Status):
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}

// Close stops the stream and the conversion goroutine.
func (s *Stream) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

func convertStatus(status *mastodonapi.Status) *relay.Status {
	s := &relay.Status{
		ID:                 string(status.ID),
		AccountID:          string(status.Account.ID),
		AccountHandle:      status.Account.Acct,
		Visibility:         status.Visibility,
		InReplyToID:        stringify(status.InReplyToID),
		InReplyToAccountID: stringify(status.InReplyToAccountID),
		Reblog:             status.Reblog != nil,
		Content:            status.Content,
	}
	if b, ok := status.Reblogged.(bool); ok {
		s.Reblogged = b
	}
	for _, a := range status.MediaAttachments {
		s.Attachments = append(s.Attachments, relay.Attachment{
			URL:         a.URL,
			Kind:        a.Type,
			Description: a.Description,
		})
	}
	return s
}

// stringify normalizes the API's untyped nullable identifiers.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
