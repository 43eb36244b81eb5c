package localfs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const defaultPublicPrefix = "/storage"

// Storage keeps published objects under basePath/<bucket>/<path> and serves
// them back through Handler.
type Storage struct {
	basePath      string
	publicBaseURL string
}

func New(basePath, publicBaseURL string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	return &Storage{basePath: basePath, publicBaseURL: base}, nil
}

func (s *Storage) Upload(ctx context.Context, bucket, objectPath string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := s.resolve(bucket, objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	// Rename replaces an existing object atomically, so readers never see a
	// half-written report.
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("publish file: %w", err)
	}
	return path.Join(bucket, objectPath), nil
}

func (s *Storage) PublicURL(bucket, objectPath string) string {
	escaped := (&url.URL{Path: path.Join(bucket, objectPath)}).EscapedPath()
	return s.publicBaseURL + defaultPublicPrefix + "/" + escaped
}

func (s *Storage) Open(bucket, objectPath string) (*os.File, error) {
	target, err := s.resolve(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Handler serves stored objects under the /storage/ prefix.
func (s *Storage) Handler() http.Handler {
	return http.StripPrefix(defaultPublicPrefix+"/", http.FileServer(http.Dir(s.basePath)))
}

func (s *Storage) resolve(bucket, objectPath string) (string, error) {
	rel := filepath.FromSlash(path.Join(bucket, objectPath))
	if bucket == "" || objectPath == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid object path %q", path.Join(bucket, objectPath))
	}
	return filepath.Join(s.basePath, rel), nil
}
