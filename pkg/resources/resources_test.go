package resources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestBuildOnce(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "resources"))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	calls := 0
	build := func(filePath string) error {
		calls++
		return os.WriteFile(filePath, []byte("png"), 0644)
	}

	for i := 0; i < 2; i++ {
		r, err := store.Build("gaps_", "123", ".png", build)
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if r.IsZero() || r.FileName() != "gaps_123.png" || r.URLPath() != "/resources/gaps_123.png" {
			t.Errorf("unexpected resource %s", r)
		}
		if _, err := os.Stat(r.FilePath()); err != nil {
			t.Errorf("expected the file to exist: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected one build but found %d", calls)
	}

	if err := store.Reset(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	store.Build("gaps_", "123", ".png", build)
	if calls != 2 {
		t.Errorf("expected a rebuild after reset but found %d", calls)
	}
}

func TestBuildFailure(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	r, err := store.Build("x_", "1", ".png", func(filePath string) error {
		os.WriteFile(filePath, []byte("half"), 0644)
		return errors.New("boom")
	})
	if err == nil || !r.IsZero() {
		t.Fatalf("expected a failure but found %s %v", r, err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "x_1.png")); !os.IsNotExist(err) {
		t.Errorf("expected the partial file to be removed")
	}
	if _, err := store.Build("x_", "", ".png", nil); err == nil {
		t.Errorf("expected an error for an empty id")
	}
}
