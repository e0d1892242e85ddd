// Package twitter publishes relay posts to X (Twitter) using OAuth 1.0a
// user-context credentials.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/blacktop/tootrelay/internal/logutil"
	"github.com/blacktop/tootrelay/internal/relay"
	"github.com/michimani/gotwi"
	"github.com/michimani/gotwi/media/upload"
	uploadtypes "github.com/michimani/gotwi/media/upload/types"
	"github.com/michimani/gotwi/tweet/managetweet"
	managetweettypes "github.com/michimani/gotwi/tweet/managetweet/types"
)

const (
	providerName = "twitter"

	charLimit = 280
	charCut   = 276

	// Handles ending in the X domain render as broken system mentions;
	// the upstream feed occasionally produces them.
	mentionArtifact = "@twitter.com"
)

// Client implements relay.Poster for X (Twitter).
type Client struct {
	api    *gotwi.Client
	prefix string
}

// New constructs a Twitter poster from the account's credentials. The
// prefix, when non-empty, is appended to posts as a short link back to the
// source post.
func New(cfg *relay.TwitterConfig, prefix string, httpClient *http.Client) (*Client, error) {
	api, err := gotwi.NewClient(&gotwi.NewClientInput{
		HTTPClient:           httpClient,
		AuthenticationMethod: gotwi.AuthenMethodOAuth1UserContext,
		OAuthToken:           cfg.AccessToken,
		OAuthTokenSecret:     cfg.AccessSecret,
		APIKey:               cfg.ConsumerKey,
		APIKeySecret:         cfg.ConsumerSecret,
		Debug:                logutil.Verbose(),
	})
	if err != nil {
		return nil, fmt.Errorf("create X client: %w", err)
	}
	if !api.IsReady() {
		return nil, errors.New("twitter client not ready")
	}
	return &Client{api: api, prefix: prefix}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string { return providerName }

// Post uploads the media, composes the tweet text, and submits it,
// returning the tweet ID.
func (c *Client) Post(ctx context.Context, post *relay.Post) (string, error) {
	var mediaIDs []string
	for i := range post.Media {
		logutil.Debugf("%s: uploading media %q", providerName, post.Media[i].Path)
		id, err := c.uploadMedia(ctx, &post.Media[i])
		if err != nil {
			return "", err
		}
		mediaIDs = append(mediaIDs, id)
	}

	input := &managetweettypes.CreateInput{
		Text: gotwi.String(buildText(post.Text, post.ID, c.prefix)),
	}
	if len(mediaIDs) > 0 {
		input.Media = &managetweettypes.CreateInputMedia{MediaIDs: mediaIDs}
	}

	res, err := managetweet.Create(ctx, c.api, input)
	if err != nil {
		return "", fmt.Errorf("post tweet: %w", unwrapGotwiError(err))
	}
	if res.Data.ID == nil {
		return "", relay.ResponseError{Provider: providerName, Reason: "missing tweet id"}
	}
	return *res.Data.ID, nil
}

// buildText derives the tweet text from the sanitized content: artifact
// removal, then truncation, then the optional link suffix.
func buildText(text, postID, prefix string) string {
	t := strings.ReplaceAll(text, mentionArtifact, "")
	t = relay.Truncate(t, charLimit, charCut)
	return relay.AppendLink(t, prefix, postID, charLimit)
}

func (c *Client) uploadMedia(ctx context.Context, m *relay.Media) (string, error) {
	file, err := os.Open(m.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", relay.ValidationError{Provider: providerName, Reason: fmt.Sprintf("media %q not found", m.Path)}
		}
		return "", fmt.Errorf("open media: %w", err)
	}
	defer file.Close()

	category := uploadtypes.MediaCategoryTweetImage
	if strings.HasPrefix(m.MIME, "video/") {
		category = uploadtypes.MediaCategoryTweetVideo
	}

	initRes, err := upload.Initialize(ctx, c.api, &uploadtypes.InitializeInput{
		MediaType:     uploadtypes.MediaType(m.MIME),
		TotalBytes:    int(m.Size),
		MediaCategory: category,
	})
	if err != nil {
		return "", fmt.Errorf("initialize upload: %w", unwrapGotwiError(err))
	}
	mediaID := initRes.Data.MediaID

	appendIn := &uploadtypes.AppendInput{
		MediaID:      mediaID,
		Media:        file,
		SegmentIndex: 0,
	}
	appendIn.GenerateBoundary()
	if _, err := upload.Append(ctx, c.api, appendIn); err != nil {
		return "", fmt.Errorf("append upload: %w", unwrapGotwiError(err))
	}

	if _, err := upload.Finalize(ctx, c.api, &uploadtypes.FinalizeInput{MediaID: mediaID}); err != nil {
		return "", fmt.Errorf("finalize upload: %w", unwrapGotwiError(err))
	}

	logutil.Debugf("%s: media %q uploaded as %q", providerName, m.Path, mediaID)
	return mediaID, nil
}

func unwrapGotwiError(err error) error {
	var gwErr *gotwi.GotwiError
	if errors.As(err, &gwErr) && gwErr != nil {
		return fmt.Errorf("%s", summarizeGotwiError(gwErr))
	}
	return err
}

func summarizeGotwiError(err *gotwi.GotwiError) string {
	if err == nil {
		return "unknown X API error"
	}

	parts := make([]string, 0, 4)
	if err.Title != "" {
		parts = append(parts, err.Title)
	}
	if err.Detail != "" {
		parts = append(parts, err.Detail)
	}
	for _, apiErr := range err.APIErrors {
		if apiErr.Message != "" {
			parts = append(parts, apiErr.Message)
		}
	}
	if len(parts) == 0 {
		if msg := err.Error(); msg != "" {
			parts = append(parts, msg)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "X API request failed")
	}

	return strings.Join(parts, "; ")
}
