package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/kirillkom/visiocar/internal/infrastructure/resilience"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

type writerOpener func(ctx context.Context, bucket, object, contentType string) io.WriteCloser

type Storage struct {
	openWriter    writerOpener
	publicBaseURL string
	executor      *resilience.Executor
	close         func() error
}

// New creates a Cloud Storage backed ObjectStorage. credentialsFile may be
// empty to use application default credentials.
func New(ctx context.Context, credentialsFile, publicBaseURL string, executor *resilience.Executor) (*Storage, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	s := newWithOpener(func(ctx context.Context, bucket, object, contentType string) io.WriteCloser {
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		w.CacheControl = "no-cache"
		return w
	}, publicBaseURL, executor)
	s.close = client.Close
	return s, nil
}

func newWithOpener(open writerOpener, publicBaseURL string, executor *resilience.Executor) *Storage {
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base == "" {
		base = defaultPublicBaseURL
	}
	return &Storage{openWriter: open, publicBaseURL: base, executor: executor}
}

// Upload writes the object unconditionally, replacing any previous version.
func (s *Storage) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	err := s.executor.Execute(ctx, "gcs.write_object", func(ctx context.Context) error {
		w := s.openWriter(ctx, bucket, objectPath, contentType)
		if _, err := w.Write(data); err != nil {
			_ = w.Close()
			return fmt.Errorf("write gcs object: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("finalize gcs object: %w", err)
		}
		return nil
	}, classifyGCS)
	if err != nil {
		return "", resilience.WrapTemporary("gcs write object", fmt.Errorf("%s/%s: %w", bucket, objectPath, err), classifyGCS)
	}
	return path.Join(bucket, objectPath), nil
}

func (s *Storage) PublicURL(bucket, objectPath string) string {
	escaped := (&url.URL{Path: path.Join(bucket, objectPath)}).EscapedPath()
	return s.publicBaseURL + "/" + escaped
}

func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func classifyGCS(err error) resilience.ErrorClassification {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if resilience.IsRetryableHTTPStatus(apiErr.Code) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ClassifyRemote(err)
}
