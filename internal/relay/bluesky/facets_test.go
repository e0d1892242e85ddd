package bluesky

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bluesky-social/indigo/api/bsky"
)

type fakeDirectory struct {
	handles  map[string]string
	actors   []actorProfile
	lookups  int
	searches int
}

func (f *fakeDirectory) lookupHandle(_ context.Context, handle string) (string, error) {
	f.lookups++
	if did, ok := f.handles[handle]; ok {
		return did, nil
	}
	return "", errors.New("unable to resolve handle")
}

func (f *fakeDirectory) searchActors(_ context.Context, _ string) ([]actorProfile, error) {
	f.searches++
	return f.actors, nil
}

func facetSpan(t *testing.T, f *bsky.RichtextFacet) (int64, int64) {
	t.Helper()
	if f.Index == nil {
		t.Fatal("facet has no byte slice")
	}
	return f.Index.ByteStart, f.Index.ByteEnd
}

func TestTagFacet(t *testing.T) {
	facets := parseFacets(context.Background(), &fakeDirectory{}, "Hello #world")

	if len(facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(facets))
	}
	start, end := facetSpan(t, facets[0])
	if start != 6 || end != 12 {
		t.Errorf("expected span [6,12), got [%d,%d)", start, end)
	}
	tag := facets[0].Features[0].RichtextFacet_Tag
	if tag == nil || tag.Tag != "world" {
		t.Errorf("expected tag %q, got %+v", "world", facets[0].Features[0])
	}
}

func TestTagFacetByteOffsetsAfterMultibyte(t *testing.T) {
	// The é is two bytes, so the hash sits at byte 7, not char index 6.
	facets := parseFacets(context.Background(), &fakeDirectory{}, "héllo #tag")

	if len(facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(facets))
	}
	start, end := facetSpan(t, facets[0])
	if start != 7 || end != 11 {
		t.Errorf("expected span [7,11), got [%d,%d)", start, end)
	}
}

func TestDigitOnlyTagIgnored(t *testing.T) {
	if facets := tagFacets("issue #42 is open"); len(facets) != 0 {
		t.Errorf("tags starting with a digit must be ignored, got %d facets", len(facets))
	}
}

func TestLinkFacet(t *testing.T) {
	text := "read https://example.com/a now"
	facets := linkFacets(text)

	if len(facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(facets))
	}
	start, end := facetSpan(t, facets[0])
	if start != 5 || end != 26 {
		t.Errorf("expected span [5,26), got [%d,%d)", start, end)
	}
	link := facets[0].Features[0].RichtextFacet_Link
	if link == nil || link.Uri != "https://example.com/a" {
		t.Errorf("expected uri %q, got %+v", "https://example.com/a", facets[0].Features[0])
	}
}

func TestMentionExactLookupShortCircuitsSearch(t *testing.T) {
	dir := &fakeDirectory{handles: map[string]string{"bob.bsky.social": "did:plc:bob"}}
	facets := mentionFacets(context.Background(), dir, "hi @bob how goes")

	if len(facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(facets))
	}
	mention := facets[0].Features[0].RichtextFacet_Mention
	if mention == nil || mention.Did != "did:plc:bob" {
		t.Errorf("expected did:plc:bob, got %+v", facets[0].Features[0])
	}
	if dir.searches != 0 {
		t.Errorf("exact lookup success must short-circuit the search, got %d searches", dir.searches)
	}
	start, end := facetSpan(t, facets[0])
	if start != 3 || end != 8 {
		t.Errorf("expected span [3,8) including the consumed whitespace, got [%d,%d)", start, end)
	}
}

func TestMentionQualifiedHandleKeepsDomain(t *testing.T) {
	dir := &fakeDirectory{handles: map[string]string{"bob.example.com": "did:plc:ext"}}
	facets := mentionFacets(context.Background(), dir, "ping @bob.example.com ok")

	if len(facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(facets))
	}
	if did := facets[0].Features[0].RichtextFacet_Mention.Did; did != "did:plc:ext" {
		t.Errorf("expected did:plc:ext, got %q", did)
	}
}

func TestMentionFallbackPrefixMatch(t *testing.T) {
	dir := &fakeDirectory{
		actors: []actorProfile{
			{did: "did:plc:alice", handle: "alice.bsky.social"},
			{did: "", handle: "bob.broken.example"},
			{did: "did:plc:bobby", handle: "Bobby.bsky.social"},
			{did: "did:plc:other", handle: "bob.too.late"},
		},
	}
	facets := mentionFacets(context.Background(), dir, "hi @bob ")

	if len(facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(facets))
	}
	if did := facets[0].Features[0].RichtextFacet_Mention.Did; did != "did:plc:bobby" {
		t.Errorf("expected the first case-insensitive prefix match, got %q", did)
	}
	if dir.lookups != 1 || dir.searches != 1 {
		t.Errorf("expected one lookup and one search, got %d/%d", dir.lookups, dir.searches)
	}
}

func TestMentionUnresolvedDropped(t *testing.T) {
	facets := mentionFacets(context.Background(), &fakeDirectory{}, "hi @nobody ")

	if len(facets) != 0 {
		t.Errorf("unresolvable mentions must not emit facets, got %d", len(facets))
	}
}

func TestMentionByteOffsetsAfterMultibyte(t *testing.T) {
	dir := &fakeDirectory{handles: map[string]string{"bob.bsky.social": "did:plc:bob"}}
	facets := mentionFacets(context.Background(), dir, "héllo @bob ")

	if len(facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(facets))
	}
	start, _ := facetSpan(t, facets[0])
	if start != 7 {
		t.Errorf("expected byte offset 7 past the multi-byte char, got %d", start)
	}
}

func TestBuildTextTruncates(t *testing.T) {
	got := buildText(strings.Repeat("a", 310), "1", "")

	if n := utf8.RuneCountInString(got); n != 294 {
		t.Errorf("expected 290 chars plus ellipsis, got %d", n)
	}
	if !strings.HasSuffix(got, " ...") {
		t.Errorf("expected ellipsis suffix, got %q", got[len(got)-8:])
	}
}

func TestFacetsCoverAppendedLink(t *testing.T) {
	// The link suffix is appended before facet parsing, so its span is
	// part of the final text.
	text := buildText("hello", "99", "https://r.dev/p")
	if text != "hello\nhttps://r.dev/p/99" {
		t.Fatalf("unexpected built text %q", text)
	}

	facets := parseFacets(context.Background(), &fakeDirectory{}, text)
	if len(facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(facets))
	}
	start, end := facetSpan(t, facets[0])
	if start != 6 || end != int64(len(text)) {
		t.Errorf("expected span [6,%d), got [%d,%d)", len(text), start, end)
	}
}
