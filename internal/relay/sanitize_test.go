package relay

import "testing"

func TestSanitizeStripsMarkup(t *testing.T) {
	s := NewSanitizer(nil)

	got := s.Sanitize("<p>Hello #world</p>")
	if got != "Hello #world" {
		t.Errorf("expected %q, got %q", "Hello #world", got)
	}
}

func TestSanitizeParagraphBoundary(t *testing.T) {
	s := NewSanitizer(nil)

	got := s.Sanitize("<p>one</p><p>two</p>")
	if got != "one\n\ntwo" {
		t.Errorf("expected %q, got %q", "one\n\ntwo", got)
	}
}

func TestSanitizeBreakVariants(t *testing.T) {
	s := NewSanitizer(nil)

	for _, tag := range []string{"<br>", "<br/>", "<br />"} {
		got := s.Sanitize("<p>a" + tag + "b</p>")
		if got != "a\nb" {
			t.Errorf("%s: expected %q, got %q", tag, "a\nb", got)
		}
	}
}

func TestSanitizeUnescapesEntities(t *testing.T) {
	s := NewSanitizer(nil)

	got := s.Sanitize("<p>salt &amp; pepper</p>")
	if got != "salt & pepper" {
		t.Errorf("expected %q, got %q", "salt & pepper", got)
	}
}

func TestSanitizePlainTextUnchanged(t *testing.T) {
	s := NewSanitizer(nil)

	const text = "already plain text with #tag and @mention"
	if got := s.Sanitize(text); got != text {
		t.Errorf("expected %q, got %q", text, got)
	}
}

func TestSanitizeReplacements(t *testing.T) {
	s := NewSanitizer(map[string]string{":verified:": "✔"})

	got := s.Sanitize("<p>I am :verified: now, :verified: even</p>")
	if got != "I am ✔ now, ✔ even" {
		t.Errorf("expected %q, got %q", "I am ✔ now, ✔ even", got)
	}
}

func TestSanitizeReplacementsCaseSensitive(t *testing.T) {
	s := NewSanitizer(map[string]string{"Cat": "Dog"})

	got := s.Sanitize("Cat cat Cat")
	if got != "Dog cat Dog" {
		t.Errorf("expected %q, got %q", "Dog cat Dog", got)
	}
}

func TestSanitizeReplacementsChainDeterministically(t *testing.T) {
	// "a" sorts before "b", so the second pair must see the first pair's
	// output on every run, regardless of map iteration order.
	for i := 0; i < 10; i++ {
		s := NewSanitizer(map[string]string{"a": "b", "b": "c"})
		if got := s.Sanitize("a b"); got != "c c" {
			t.Fatalf("expected chained result %q, got %q", "c c", got)
		}
	}
}

func TestSanitizeSkipsEmptyReplacementPairs(t *testing.T) {
	s := NewSanitizer(map[string]string{"": "x", "keep": ""})

	const text = "keep this"
	if got := s.Sanitize(text); got != text {
		t.Errorf("expected %q, got %q", text, got)
	}
}

func TestSanitizeDropsScriptContent(t *testing.T) {
	s := NewSanitizer(nil)

	got := s.Sanitize("<p>safe</p><script>alert(1)</script>")
	if got != "safe" {
		t.Errorf("expected %q, got %q", "safe", got)
	}
}
