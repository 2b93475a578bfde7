package preview

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeVideo(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func get(t *testing.T, h http.Handler, url string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestShowSourceServesFile verifies a bound file is reachable at its URL.
func TestShowSourceServesFile(t *testing.T) {
	c := NewController(nil)
	path := writeVideo(t, "clip.mp4", "0123456789")

	url, err := c.ShowSource(path)
	if err != nil {
		t.Fatalf("ShowSource() error = %v", err)
	}
	if !strings.HasPrefix(url, MediaPrefix) {
		t.Fatalf("unexpected url %q", url)
	}

	rec := get(t, c.Handler(), url, nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "0123456789" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("content type = %q", ct)
	}
}

// TestRangeRequest verifies partial content for seeking.
func TestRangeRequest(t *testing.T) {
	c := NewController(nil)
	url, _ := c.ShowResult(writeVideo(t, "out.mp4", "0123456789"))

	rec := get(t, c.Handler(), url, http.Header{"Range": {"bytes=2-4"}})
	if rec.Code != http.StatusPartialContent || rec.Body.String() != "234" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}

// TestRebindReleasesPreviousHandle verifies one live handle per slot.
func TestRebindReleasesPreviousHandle(t *testing.T) {
	c := NewController(nil)
	first, _ := c.ShowSource(writeVideo(t, "a.mp4", "a"))
	second, _ := c.ShowSource(writeVideo(t, "b.mp4", "b"))

	if first == second {
		t.Fatal("expected a fresh token on rebind")
	}
	if c.Live() != 1 {
		t.Fatalf("expected 1 live handle, got %d", c.Live())
	}
	if rec := get(t, c.Handler(), first, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("released handle status = %d, want 404", rec.Code)
	}
	if rec := get(t, c.Handler(), second, nil); rec.Code != http.StatusOK {
		t.Fatalf("live handle status = %d", rec.Code)
	}
}

// TestClearReleasesBothSlots verifies Clear leaves no live handles.
func TestClearReleasesBothSlots(t *testing.T) {
	c := NewController(nil)
	c.ShowSource(writeVideo(t, "a.mp4", "a"))
	c.ShowResult(writeVideo(t, "b.mp4", "b"))

	c.Clear()
	if c.Live() != 0 {
		t.Fatalf("expected no live handles, got %d", c.Live())
	}
	if _, ok := c.URL(SlotSource); ok {
		t.Fatal("expected source slot to be empty")
	}
	if _, err := c.ShowSource(writeVideo(t, "c.mp4", "c")); err != nil {
		t.Fatalf("bind after clear: %v", err)
	}
}

// TestClearSlotKeepsOtherSlot verifies a single slot can be released on its own.
func TestClearSlotKeepsOtherSlot(t *testing.T) {
	c := NewController(nil)
	src, _ := c.ShowSource(writeVideo(t, "a.mp4", "a"))
	res, _ := c.ShowResult(writeVideo(t, "b.mp4", "b"))

	c.ClearSlot(SlotResult)
	if _, ok := c.URL(SlotResult); ok {
		t.Fatal("expected result slot to be empty")
	}
	if got, _ := c.URL(SlotSource); got != src {
		t.Fatalf("source url = %q, want %q", got, src)
	}
	if rec := get(t, c.Handler(), res, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("released result status = %d, want 404", rec.Code)
	}
	if c.Live() != 1 {
		t.Fatalf("live = %d, want 1", c.Live())
	}
}

// TestCloseRefusesFurtherBinds verifies teardown.
func TestCloseRefusesFurtherBinds(t *testing.T) {
	c := NewController(nil)
	url, _ := c.ShowResult(writeVideo(t, "a.mp4", "a"))

	c.Close()
	if c.Live() != 0 {
		t.Fatalf("expected no live handles, got %d", c.Live())
	}
	if _, err := c.ShowSource("x.mp4"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if rec := get(t, c.Handler(), url, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status after close = %d, want 404", rec.Code)
	}
}

// TestMissingFileReturnsNotFound verifies a deleted file is a 404, not a 500.
func TestMissingFileReturnsNotFound(t *testing.T) {
	c := NewController(nil)
	url, _ := c.ShowSource(filepath.Join(t.TempDir(), "gone.mp4"))

	if rec := get(t, c.Handler(), url, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
