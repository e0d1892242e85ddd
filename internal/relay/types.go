// Package relay implements the per-post processing pipeline: it filters
// incoming source events, downloads media to scratch storage, sanitizes
// HTML content into plain text, and hands the result to one adapter per
// destination platform.
package relay

import "context"

// Status is a single post event received from the source platform. It is
// immutable for the duration of one dispatch.
type Status struct {
	ID                 string
	AccountID          string
	AccountHandle      string
	Visibility         string
	InReplyToID        string
	InReplyToAccountID string
	Reblog             bool
	Reblogged          bool
	Content            string
	Attachments        []Attachment
}

// Attachment is a remote media attachment as reported by the source.
type Attachment struct {
	URL         string
	Kind        string
	Description string
}

// Media is a downloaded attachment in scratch storage. It is owned by the
// dispatch that fetched it and removed unconditionally during cleanup.
type Media struct {
	Path string
	MIME string
	Alt  string
	Size int64
}

// Post is the payload handed to each destination adapter: the source post
// ID, the sanitized (but not yet truncated) text, and the downloaded media.
// Adapters derive their own platform-specific text from it and must never
// mutate the shared fields.
type Post struct {
	ID    string
	Text  string
	Media []Media
}

// Poster publishes a post to one destination platform and returns the
// platform-issued post identifier.
type Poster interface {
	Name() string
	Post(ctx context.Context, post *Post) (string, error)
}

// Source yields post events for one account. Subscribe starts the stream;
// Close stops it and releases the underlying connection.
type Source interface {
	Subscribe(ctx context.Context) (<-chan *Status, error)
	Close()
}
