// Package s3 implements a content store backed by Amazon S3 or any
// S3-compatible object store (MinIO, Localstack).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/nimbusdrive/nimbus/pkg/content"
	"github.com/nimbusdrive/nimbus/pkg/drive"
)

// Client is the subset of the S3 API the store uses. Satisfied by
// *s3.Client; narrowed for test doubles.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config configures an S3 content store.
type Config struct {
	Client    Client
	Bucket    string
	KeyPrefix string
}

// Store persists content as S3 objects, one object per ContentID.
type Store struct {
	client    Client
	bucket    string
	keyPrefix string
}

// NewStore creates an S3 content store. The bucket must already exist.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("s3 content store: client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 content store: bucket is required")
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: prefix,
	}, nil
}

func (s *Store) key(id drive.ContentID) string {
	return s.keyPrefix + string(id)
}

func (s *Store) Write(ctx context.Context, id drive.ContentID, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// PutObject needs a known content length; drive uploads are bounded
	// by the per-user quota, so buffering is acceptable here.
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading content: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
		Body:   bytes.NewReader(buf),
	})
	if err != nil {
		return 0, fmt.Errorf("putting object %s: %w", id, err)
	}
	return int64(len(buf)), nil
}

func (s *Store) Open(ctx context.Context, id drive.ContentID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, content.ErrContentNotFound
		}
		return nil, fmt.Errorf("getting object %s: %w", id, err)
	}
	return out.Body, nil
}

func (s *Store) Size(ctx context.Context, id drive.ContentID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return 0, content.ErrContentNotFound
		}
		return 0, fmt.Errorf("heading object %s: %w", id, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

func (s *Store) Delete(ctx context.Context, id drive.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// S3 DeleteObject succeeds for absent keys, matching the store's
	// idempotent delete contract.
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return fmt.Errorf("deleting object %s: %w", id, err)
	}
	return nil
}
