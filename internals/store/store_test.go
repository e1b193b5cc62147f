package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteTextCreatesDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "outputs", "raw", "01_test.md")
	if err := WriteText("# Report", path); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "# Report" {
		t.Fatalf("expected content round trip, got %q", string(data))
	}

	// Writing into an existing directory must not error.
	if err := WriteText("again", path); err != nil {
		t.Fatalf("WriteText second: %v", err)
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "meta.json")
	in := map[string]any{"model": "gpt-4o-mini", "tokens": float64(42)}
	if err := WriteJSON(in, path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var out map[string]any
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out["model"] != "gpt-4o-mini" || out["tokens"] != float64(42) {
		t.Fatalf("unexpected round trip: %v", out)
	}
}

func TestPromptHashStable(t *testing.T) {
	t.Parallel()

	a := PromptHash("same prompt")
	b := PromptHash("same prompt")
	if a != b {
		t.Fatalf("expected stable hash, got %q vs %q", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(a))
	}
	if PromptHash("other prompt") == a {
		t.Fatalf("different prompts should hash differently")
	}
}

func TestListResultFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{
		"02_metrics.json",
		"01_team-styles.md",
		"01_team-styles_meta.json",
		"02_metrics_meta.json",
		"summary.json",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	files, err := ListResultFiles(dir)
	if err != nil {
		t.Fatalf("ListResultFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 result files, got %v", files)
	}
	if filepath.Base(files[0]) != "01_team-styles.md" || filepath.Base(files[1]) != "02_metrics.json" {
		t.Fatalf("expected sorted result files, got %v", files)
	}
}

func TestListResultFilesMissingDir(t *testing.T) {
	t.Parallel()

	if _, err := ListResultFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
