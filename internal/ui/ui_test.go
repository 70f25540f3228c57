package ui

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandler_ServesEmbeddedIndex(t *testing.T) {
	handler := Handler("")

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("GET / status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "Home Control") {
		t.Error("index.html body missing expected content")
	}
}

func TestHandler_SPAFallback(t *testing.T) {
	handler := Handler("")

	req := httptest.NewRequest("GET", "/rooms/kitchen", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("GET /rooms/kitchen status = %d, want 200 via fallback", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "<html") {
		t.Error("fallback did not serve index.html")
	}
}

func TestHandler_DevDirOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>dev build</html>"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	handler := Handler(dir)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "dev build") {
		t.Errorf("dev dir not used, body = %s", body)
	}
}

func TestHandler_MissingDevDirFallsBack(t *testing.T) {
	handler := Handler("/nonexistent/ui/dir")

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("GET / status = %d, want 200 from embedded bundle", rec.Code)
	}
}
