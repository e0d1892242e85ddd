package bluesky

import (
	"context"
	"regexp"
	"strings"

	"github.com/blacktop/tootrelay/internal/logutil"
	"github.com/bluesky-social/indigo/api/bsky"
)

// Compiled once at process start and shared read-only across workers.
// regexp match indices are byte offsets into the UTF-8 string, which is
// exactly what facet byte slices require.
var (
	tagPattern     = regexp.MustCompile(`(#[^\d\s]\S*)`)
	urlPattern     = regexp.MustCompile(`(https?:\/\/(www\.)?[-a-zA-Z0-9@:%._\+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_\+.~#?&//=]*[-a-zA-Z0-9@%_\+~#//=])?)`)
	mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9-]{0,61}\.?[a-zA-Z0-9-]{0,30}\.?[a-zA-Z0-9-]{0,30})(\s|$)`)
)

// directory resolves mention handles to account DIDs. The client satisfies
// it against the PDS; tests substitute a fake.
type directory interface {
	lookupHandle(ctx context.Context, handle string) (string, error)
	searchActors(ctx context.Context, query string) ([]actorProfile, error)
}

type actorProfile struct {
	did    string
	handle string
}

// parseFacets scans the final post text for mention, link, and tag spans.
// The three families are emitted independently; overlaps between kinds are
// allowed and left to the platform to render.
func parseFacets(ctx context.Context, dir directory, text string) []*bsky.RichtextFacet {
	facets := mentionFacets(ctx, dir, text)
	facets = append(facets, linkFacets(text)...)
	facets = append(facets, tagFacets(text)...)
	return facets
}

// mentionFacets emits one facet per resolvable @handle token. The facet
// span covers the whole match, including the whitespace the pattern
// consumed after the handle; unresolvable mentions are dropped and the
// text left untouched.
func mentionFacets(ctx context.Context, dir directory, text string) []*bsky.RichtextFacet {
	matches := mentionPattern.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return nil
	}
	facets := make([]*bsky.RichtextFacet, 0, len(matches))
	for _, m := range matches {
		name := text[m[2]:m[3]]
		if name == "" {
			continue
		}
		did := resolveMention(ctx, dir, name)
		if did == "" {
			logutil.Debugf("%s: dropping unresolvable mention @%s", providerName, name)
			continue
		}
		facets = append(facets, &bsky.RichtextFacet{
			Index: &bsky.RichtextFacet_ByteSlice{
				ByteStart: int64(m[0]),
				ByteEnd:   int64(m[1]),
			},
			Features: []*bsky.RichtextFacet_Features_Elem{
				{RichtextFacet_Mention: &bsky.RichtextFacet_Mention{Did: did}},
			},
		})
	}
	return facets
}

func linkFacets(text string) []*bsky.RichtextFacet {
	matches := urlPattern.FindAllStringIndex(text, -1)
	if matches == nil {
		return nil
	}
	facets := make([]*bsky.RichtextFacet, 0, len(matches))
	for _, m := range matches {
		facets = append(facets, &bsky.RichtextFacet{
			Index: &bsky.RichtextFacet_ByteSlice{
				ByteStart: int64(m[0]),
				ByteEnd:   int64(m[1]),
			},
			Features: []*bsky.RichtextFacet_Features_Elem{
				{RichtextFacet_Link: &bsky.RichtextFacet_Link{Uri: text[m[0]:m[1]]}},
			},
		})
	}
	return facets
}

func tagFacets(text string) []*bsky.RichtextFacet {
	matches := tagPattern.FindAllStringIndex(text, -1)
	if matches == nil {
		return nil
	}
	facets := make([]*bsky.RichtextFacet, 0, len(matches))
	for _, m := range matches {
		if m[0]+1 >= m[1] {
			continue
		}
		facets = append(facets, &bsky.RichtextFacet{
			Index: &bsky.RichtextFacet_ByteSlice{
				ByteStart: int64(m[0]),
				ByteEnd:   int64(m[1]),
			},
			Features: []*bsky.RichtextFacet_Features_Elem{
				{RichtextFacet_Tag: &bsky.RichtextFacet_Tag{Tag: text[m[0]+1 : m[1]]}},
			},
		})
	}
	return facets
}

// resolveMention maps a handle to a DID: an exact handle lookup first
// (bare names get the default domain), then a full-text actor search where
// the first case-insensitive handle-prefix match wins. Returns "" when
// nothing qualifies.
func resolveMention(ctx context.Context, dir directory, name string) string {
	handle := name
	if !strings.Contains(handle, ".") {
		handle += defaultDomain
	}
	if did, err := dir.lookupHandle(ctx, handle); err == nil && did != "" {
		return did
	}

	actors, err := dir.searchActors(ctx, name)
	if err != nil {
		return ""
	}
	q := strings.ToLower(name)
	for _, a := range actors {
		if a.did == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(a.handle), q) {
			return a.did
		}
	}
	return ""
}
