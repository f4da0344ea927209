package router

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadReplies_NoPathUsesDefaults(t *testing.T) {
	r := LoadReplies("", testLogger())
	if r.Welcome != DefaultReplies().Welcome {
		t.Fatal("empty path should return defaults")
	}
}

func TestLoadReplies_MissingFileUsesDefaults(t *testing.T) {
	r := LoadReplies(filepath.Join(t.TempDir(), "nope.yaml"), testLogger())
	if r.Fallback != DefaultReplies().Fallback {
		t.Fatal("missing pack should fall back to defaults")
	}
}

func TestLoadReplies_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replies.yaml")
	pack := "noItems: \"Nothing listed yet, check back soon!\"\nfaq: \"Ask us anything.\"\n"
	if err := os.WriteFile(path, []byte(pack), 0o600); err != nil {
		t.Fatal(err)
	}

	r := LoadReplies(path, testLogger())
	if r.NoItems != "Nothing listed yet, check back soon!" {
		t.Fatalf("noItems = %q", r.NoItems)
	}
	if r.Faq != "Ask us anything." {
		t.Fatalf("faq = %q", r.Faq)
	}
	// Keys the pack does not set keep the product copy.
	if r.Welcome != DefaultReplies().Welcome {
		t.Fatal("unset key lost its default")
	}
}

func TestLoadReplies_BrokenPackUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replies.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	r := LoadReplies(path, testLogger())
	if r.Welcome != DefaultReplies().Welcome {
		t.Fatal("broken pack should fall back to defaults")
	}
}
