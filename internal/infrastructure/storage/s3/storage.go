package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kirillkom/visiocar/internal/infrastructure/resilience"
)

type Config struct {
	// Endpoint is the S3-compatible API root, e.g. <SUPABASE_URL>/storage/v1/s3.
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL prefixes public object URLs, e.g.
	// <SUPABASE_URL>/storage/v1/object/public.
	PublicBaseURL string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Storage struct {
	client        putObjectAPI
	publicBaseURL string
	executor      *resilience.Executor
}

func New(ctx context.Context, cfg Config, executor *resilience.Executor) (*Storage, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return newWithClient(client, cfg.PublicBaseURL, executor), nil
}

func newWithClient(client putObjectAPI, publicBaseURL string, executor *resilience.Executor) *Storage {
	return &Storage{
		client:        client,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		executor:      executor,
	}
}

func (s *Storage) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectPath),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}
	_, err := resilience.Call(ctx, s.executor, "s3.put_object", func(ctx context.Context) (*s3.PutObjectOutput, error) {
		return s.client.PutObject(ctx, input)
	}, classifyS3)
	if err != nil {
		return "", resilience.WrapTemporary("s3 put object", fmt.Errorf("put object %s/%s: %w", bucket, objectPath, err), classifyS3)
	}
	return path.Join(bucket, objectPath), nil
}

func (s *Storage) PublicURL(bucket, objectPath string) string {
	escaped := (&url.URL{Path: path.Join(bucket, objectPath)}).EscapedPath()
	return s.publicBaseURL + "/" + escaped
}

func classifyS3(err error) resilience.ErrorClassification {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		if resilience.IsRetryableHTTPStatus(respErr.HTTPStatusCode()) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ClassifyRemote(err)
}
