package localfs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestStorageUploadOverwritesObject(t *testing.T) {
	s, err := New(t.TempDir(), "http://localhost:8080/")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, body := range []string{"%PDF-first", "%PDF-second"} {
		if _, err := s.Upload(context.Background(), "claim-photos", "pdfs/g-1/c-1/Report.pdf", []byte(body), "application/pdf"); err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
	}

	f, err := s.Open("claim-photos", "pdfs/g-1/c-1/Report.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	got, _ := io.ReadAll(f)
	if string(got) != "%PDF-second" {
		t.Fatalf("expected overwritten content, got %q", got)
	}

	entries, err := os.ReadDir(s.basePath + "/claim-photos/pdfs/g-1/c-1")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no temp files left, got %d entries", len(entries))
	}
}

func TestStorageRejectsEscapingPaths(t *testing.T) {
	s, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Upload(context.Background(), "claim-photos", "../../etc/passwd", []byte("x"), "text/plain"); err == nil {
		t.Fatalf("expected error for escaping path")
	}
}

func TestStoragePublicURLAndHandler(t *testing.T) {
	s, err := New(t.TempDir(), "http://localhost:8080/")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Upload(context.Background(), "claim-photos", "pdfs/g/c/Report A.pdf", []byte("%PDF"), "application/pdf"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	url := s.PublicURL("claim-photos", "pdfs/g/c/Report A.pdf")
	if url != "http://localhost:8080/storage/claim-photos/pdfs/g/c/Report%20A.pdf" {
		t.Fatalf("unexpected public url %q", url)
	}

	req := httptest.NewRequest(http.MethodGet, "/storage/claim-photos/pdfs/g/c/Report%20A.pdf", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "%PDF" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
}
