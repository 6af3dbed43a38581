// Package s3 implements a sink.Sink backed by an S3-compatible object
// store, selected for "s3://" URIs. Grounded on marmos91/dittofs's
// pkg/blocks/store/s3, whose Put/Get/Delete wrapping of aws-sdk-go-v2 and
// isNotFoundError string-sniff this package follows directly.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	isink "github.com/ingestpipe/ingestpipe/internal/sink"
)

func init() {
	isink.Register("s3", open)
}

// open dispatches an s3:// URI of the form s3://bucket/key-prefix to a
// Sink using default AWS credential resolution (environment, shared
// config, IAM role — the SDK's standard chain).
func open(ctx context.Context, u *url.URL) (isink.Sink, error) {
	bucket := u.Host
	prefix := strings.TrimPrefix(u.Path, "/")

	var opts []func(*awsconfig.LoadOptions) error
	if region := u.Query().Get("region"); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: loading AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if endpoint := u.Query().Get("endpoint"); endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(endpoint) })
	}

	if u.Query().Get("path_style") == "true" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}

	client := s3.NewFromConfig(cfg, s3Opts...)

	return New(client, bucket, prefix), nil
}

// Sink is an S3-backed sink.Sink.
type Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// New constructs a Sink from an existing client, for tests and for
// callers that already built one (e.g. shared across handlers).
func New(client *s3.Client, bucket, prefix string) *Sink {
	return &Sink{client: client, bucket: bucket, prefix: prefix}
}

func (s *Sink) key(remote string) string {
	return s.prefix + strings.TrimPrefix(remote, "/")
}

// Put uploads the local file's contents to remote.
func (s *Sink) Put(ctx context.Context, local, remote string) error {
	f, err := os.Open(local)
	if err != nil {
		return isink.Permanent("put", fmt.Errorf("opening local file: %w", err))
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(remote)),
		Body:   f,
	})

	return classify("put", err)
}

// Delete removes remote. Absence is not an error.
func (s *Sink) Delete(ctx context.Context, remote string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(remote)),
	})

	return classify("delete", err)
}

// Query reports whether remote exists.
func (s *Sink) Query(ctx context.Context, remote string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(remote)),
	})
	if err == nil {
		return true, nil
	}

	if isNotFoundError(err) {
		return false, nil
	}

	return false, classify("query", err)
}

// Close releases no resources: the S3 client has no handle to close.
func (s *Sink) Close() error { return nil }

// classify maps an AWS SDK error to a sink.Error, retryable for request
// timeouts and 5xx/429-class responses, permanent otherwise — the same
// split tonimelisma/onedrive-go's internal/graph/errors.go applies to
// Graph API status codes.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		code := re.HTTPStatusCode()
		if code == 429 || code >= 500 {
			return isink.Transient(op, err)
		}

		return isink.Permanent(op, err)
	}

	// No HTTP response reached (DNS failure, connection reset, timeout):
	// presumed transient.
	return isink.Transient(op, err)
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	s := err.Error()

	return strings.Contains(s, "NotFound") || strings.Contains(s, "NoSuchKey") || strings.Contains(s, "404")
}

var _ isink.Sink = (*Sink)(nil)
