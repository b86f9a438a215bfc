package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/keithlinneman/sitegate/internal/xerrors"
)

// s3API is the slice of the S3 client the store uses, pulled out so
// tests can fake it.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3 implements ConfigStore and ObjectStore against one bucket. Config
// records and site files live under distinct prefixes of the same
// bucket (or two instances pointed at two buckets).
type S3 struct {
	client s3API
	bucket string
	prefix string
}

// NewS3 creates a store backed by the given bucket. prefix may be empty;
// when set it is prepended (with a slash) to every key.
func NewS3(client *s3.Client, bucket, prefix string) *S3 {
	return newS3(client, bucket, prefix)
}

func newS3(client s3API, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3) stripPrefix(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, s.prefix+"/")
}

func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, xerrors.Wrapf(err, "get s3://%s/%s", s.bucket, s.fullKey(key))
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, xerrors.Wrapf(err, "read s3://%s/%s", s.bucket, s.fullKey(key))
	}
	return data, nil
}

func (s *S3) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return xerrors.Wrapf(err, "put s3://%s/%s", s.bucket, s.fullKey(key))
	}
	return nil
}

// Delete removes one key. S3 deletes are idempotent already, absent
// keys are not an error.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{
			Objects: []types.ObjectIdentifier{{Key: aws.String(s.fullKey(key))}},
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return xerrors.Wrapf(err, "delete s3://%s/%s", s.bucket, s.fullKey(key))
	}
	return nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	return s.ListPrefix(ctx, prefix)
}

func (s *S3) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.fullKey(prefix)),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, xerrors.Wrapf(err, "list s3://%s/%s", s.bucket, s.fullKey(prefix))
		}
		for _, obj := range out.Contents {
			if obj.Key != nil {
				keys = append(keys, s.stripPrefix(*obj.Key))
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	return keys, nil
}

// deleteBatchSize is the S3 DeleteObjects limit.
const deleteBatchSize = 1000

// DeletePrefix enumerates then batch-deletes everything under prefix.
// The enumerate/delete boundary is not transactional; a concurrent
// reader may observe a partially deleted site, which is acceptable
// because delete is terminal and retries are cheap.
func (s *S3) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.ListPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(s.fullKey(k))})
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, xerrors.Wrapf(err, "batch delete under s3://%s/%s", s.bucket, s.fullKey(prefix))
		}
		deleted += len(ids)
	}
	return deleted, nil
}

var (
	_ ConfigStore = (*S3)(nil)
	_ ObjectStore = (*S3)(nil)
)
