// Package bluesky publishes relay posts to a Bluesky PDS, annotating the
// text with byte-accurate mention, link, and hashtag facets.
package bluesky

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/blacktop/tootrelay/internal/logutil"
	"github.com/blacktop/tootrelay/internal/relay"
	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
)

const (
	providerName = "bluesky"

	charLimit = 300
	charCut   = 290

	languageTag   = "en-US"
	defaultDomain = ".bsky.social"

	searchLimit = 25
)

// Client implements relay.Poster for Bluesky. The session obtained at
// construction is cached for the client's lifetime.
type Client struct {
	client *xrpc.Client
	prefix string
}

// New authenticates against the PDS once and caches the resulting session.
func New(ctx context.Context, cfg *relay.BlueskyConfig, prefix string, httpClient *http.Client) (*Client, error) {
	host := cfg.Server
	if !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}

	userAgent := "tootrelay/1"
	xrpcClient := &xrpc.Client{
		Client:    httpClient,
		Host:      host,
		UserAgent: &userAgent,
	}

	session, err := atproto.ServerCreateSession(ctx, xrpcClient, &atproto.ServerCreateSession_Input{
		Identifier: cfg.Username,
		Password:   cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	xrpcClient.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}

	return &Client{client: xrpcClient, prefix: prefix}, nil
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// Post derives the final text, parses facets over it, uploads image media,
// and creates the feed post record, returning the record CID.
//
// The text is final before facet parsing: truncation and the link suffix
// both happen first, so facet byte offsets refer to the exact string that
// is transmitted.
func (c *Client) Post(ctx context.Context, post *relay.Post) (string, error) {
	text := buildText(post.Text, post.ID, c.prefix)
	facets := parseFacets(ctx, c, text)

	var images []*bsky.EmbedImages_Image
	for i := range post.Media {
		m := &post.Media[i]
		if strings.HasPrefix(m.MIME, "video/") {
			logutil.Debugf("%s: skipping unsupported video attachment %q", providerName, m.Path)
			continue
		}
		blob, err := c.uploadBlob(ctx, m)
		if err != nil {
			return "", err
		}
		images = append(images, &bsky.EmbedImages_Image{Alt: m.Alt, Image: blob})
	}

	feedPost := &bsky.FeedPost{
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Langs:     []string{languageTag},
		Facets:    facets,
	}
	if len(images) > 0 {
		feedPost.Embed = &bsky.FeedPost_Embed{
			EmbedImages: &bsky.EmbedImages{Images: images},
		}
	}

	res, err := atproto.RepoCreateRecord(ctx, c.client, &atproto.RepoCreateRecord_Input{
		Collection: "app.bsky.feed.post",
		Repo:       c.client.Auth.Did,
		Record: &lexutil.LexiconTypeDecoder{
			Val: feedPost,
		},
	})
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}
	if res.Cid == "" {
		return "", relay.ResponseError{Provider: providerName, Reason: "missing cid"}
	}
	return res.Cid, nil
}

func buildText(text, postID, prefix string) string {
	t := relay.Truncate(text, charLimit, charCut)
	return relay.AppendLink(t, prefix, postID, charLimit)
}

func (c *Client) uploadBlob(ctx context.Context, m *relay.Media) (*lexutil.LexBlob, error) {
	file, err := os.Open(m.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, relay.ValidationError{Provider: providerName, Reason: fmt.Sprintf("media %q not found", m.Path)}
		}
		return nil, fmt.Errorf("open media: %w", err)
	}
	defer file.Close()

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, file); err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}

	resp, err := atproto.RepoUploadBlob(ctx, c.client, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}
	if resp.Blob == nil {
		return nil, relay.ResponseError{Provider: providerName, Reason: "missing blob descriptor"}
	}

	logutil.Debugf("%s: uploaded blob for %q", providerName, m.Path)
	return resp.Blob, nil
}

func (c *Client) lookupHandle(ctx context.Context, handle string) (string, error) {
	res, err := atproto.IdentityResolveHandle(ctx, c.client, handle)
	if err != nil {
		return "", err
	}
	return res.Did, nil
}

func (c *Client) searchActors(ctx context.Context, query string) ([]actorProfile, error) {
	res, err := bsky.ActorSearchActors(ctx, c.client, "", searchLimit, query, "")
	if err != nil {
		return nil, err
	}
	actors := make([]actorProfile, 0, len(res.Actors))
	for _, a := range res.Actors {
		if a == nil {
			continue
		}
		actors = append(actors, actorProfile{did: a.Did, handle: a.Handle})
	}
	return actors, nil
}
