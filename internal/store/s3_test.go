package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 implements s3API over a map, with configurable page size to
// exercise ListObjectsV2 pagination.
type fakeS3 struct {
	objects  map[string][]byte
	pageSize int

	deleteBatches []int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), pageSize: 2}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deleteBatches = append(f.deleteBatches, len(in.Delete.Objects))
	for _, id := range in.Delete.Objects {
		delete(f.objects, *id.Key)
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		for i, k := range keys {
			if k > tok {
				start = i
				break
			}
		}
	}
	end := min(start+f.pageSize, len(keys))
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	truncated := end < len(keys)
	out.IsTruncated = aws.Bool(truncated)
	if truncated {
		out.NextContinuationToken = aws.String(keys[end-1])
	}
	return out, nil
}

func TestS3_PrefixedKeys(t *testing.T) {
	ctx := context.Background()
	f := newFakeS3()
	s := newS3(f, "bucket", "config/")

	if err := s.Put(ctx, "acme/q1", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.objects["config/acme/q1"]; !ok {
		t.Fatalf("expected prefixed key, have %v", f.objects)
	}
	got, err := s.Get(ctx, "acme/q1")
	if err != nil || string(got) != "x" {
		t.Fatalf("Get = %s, %v", got, err)
	}
}

func TestS3_NotFound(t *testing.T) {
	s := newS3(newFakeS3(), "bucket", "")
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestS3_ListPrefixPaginates(t *testing.T) {
	ctx := context.Background()
	f := newFakeS3()
	s := newS3(f, "bucket", "files")

	want := []string{"acme/q1/a.html", "acme/q1/b.css", "acme/q1/c.js", "acme/q1/d.png", "acme/q1/e.pdf"}
	for _, k := range want {
		if err := s.Put(ctx, k, []byte("data")); err != nil {
			t.Fatal(err)
		}
	}
	s.Put(ctx, "acme/q2/other.html", []byte("data"))

	keys, err := s.ListPrefix(ctx, "acme/q1/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != len(want) {
		t.Fatalf("ListPrefix returned %d keys, want %d: %v", len(keys), len(want), keys)
	}
	for i, k := range keys {
		if k != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, k, want[i])
		}
	}
}

func TestS3_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	f := newFakeS3()
	s := newS3(f, "bucket", "")

	for _, k := range []string{"acme/q1/a", "acme/q1/b", "acme/q1/c", "acme/q2/keep"} {
		s.Put(ctx, k, []byte("data"))
	}

	n, err := s.DeletePrefix(ctx, "acme/q1/")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("deleted %d, want 3", n)
	}
	if _, ok := f.objects["acme/q2/keep"]; !ok {
		t.Fatal("sibling prefix was deleted")
	}
	// retry on empty prefix succeeds
	n, err = s.DeletePrefix(ctx, "acme/q1/")
	if err != nil || n != 0 {
		t.Fatalf("retry = %d, %v", n, err)
	}
}
