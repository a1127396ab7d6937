// Package s3 adapts the AWS S3 client to the scanning.ObjectStore port.
package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ahrav/datasentry/internal/domain/scanning"
)

// API is the subset of the S3 client the store depends on.
type API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var _ scanning.ObjectStore = (*Store)(nil)

// Store implements scanning.ObjectStore backed by S3.
type Store struct {
	client API
}

// NewStore creates a Store around the given S3 client.
func NewStore(client API) *Store {
	return &Store{client: client}
}

// Stat fetches object metadata without reading content.
func (s *Store) Stat(ctx context.Context, bucket, key string) (scanning.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return scanning.ObjectInfo{}, fmt.Errorf("head object %s/%s: %w", bucket, key, err)
	}

	var size int64
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return scanning.ObjectInfo{Key: key, Size: size}, nil
}

// ReadRange fetches up to length bytes starting at offset.
func (s *Store) ReadRange(ctx context.Context, bucket, key string, offset, length int64) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
	})
	if err != nil {
		return nil, fmt.Errorf("get object range %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object range %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Stream opens the full object content for sequential reading. The caller
// owns the returned reader and must close it.
func (s *Store) Stream(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// List enumerates all objects under the given prefix, following continuation
// tokens until the listing is exhausted.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]scanning.ObjectInfo, error) {
	var infos []scanning.ObjectInfo

	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			var size int64
			if obj.Size != nil {
				size = *obj.Size
			}
			infos = append(infos, scanning.ObjectInfo{Key: aws.ToString(obj.Key), Size: size})
		}
	}
	return infos, nil
}
