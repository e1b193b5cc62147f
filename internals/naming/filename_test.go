package naming

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Team Styles", "team-styles"},
		{"Data: Sources & FAQ!!", "data-sources-faq"},
		{"already-kebab", "already-kebab"},
		{"multi   space", "multi-space"},
		{"punctuation!!!", "punctuation"},
		{"---Leading and trailing---", "leading-and-trailing"},
		{"non-ascii: café", "non-ascii-cafe"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	t.Parallel()

	in := "Data: Sources & FAQ!!"
	once := Slugify(in)
	if twice := Slugify(once); twice != once {
		t.Fatalf("Slugify not idempotent: %q -> %q", once, twice)
	}
}

func TestSlugifyTruncates(t *testing.T) {
	t.Parallel()

	got := Slugify(strings.Repeat("very long title ", 10))
	if len(got) > 50 {
		t.Fatalf("expected slug at most 50 chars, got %d: %q", len(got), got)
	}
	if strings.HasSuffix(got, "-") || strings.HasPrefix(got, "-") {
		t.Fatalf("expected no leading/trailing hyphen, got %q", got)
	}
}

func TestResultFilenameUniquePerIndex(t *testing.T) {
	t.Parallel()

	// Duplicate titles must not collide because prefixes derive from position.
	seen := map[string]bool{}
	for i := 0; i < 99; i++ {
		name := ResultFilename(i, "Duplicate Title", "md")
		if seen[name] {
			t.Fatalf("filename collision at index %d: %q", i, name)
		}
		seen[name] = true
	}
}

func TestResultFilenameOrdering(t *testing.T) {
	t.Parallel()

	if got := ResultFilename(0, "Team Styles", "md"); got != "01_team-styles.md" {
		t.Fatalf("expected 01_team-styles.md, got %q", got)
	}
	if got := ResultFilename(9, "Team Styles", "json"); got != "10_team-styles.json" {
		t.Fatalf("expected 10_team-styles.json, got %q", got)
	}
	if got := MetaFilename(0, "Team Styles"); got != "01_team-styles_meta.json" {
		t.Fatalf("expected 01_team-styles_meta.json, got %q", got)
	}
}
