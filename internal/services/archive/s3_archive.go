package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
)

// S3Archive keeps the raw archived copy of moderated text in object
// storage under moderation/<content_id>.txt. Entries are write-once:
// an existing object is never replaced.
type S3Archive struct {
	client *minio.Client
	bucket string

	ensureOnce sync.Once
	ensureErr  error
}

func NewS3Archive(client *minio.Client, bucket string) *S3Archive {
	return &S3Archive{
		client: client,
		bucket: strings.TrimSpace(bucket),
	}
}

func (a *S3Archive) EnsureBucket(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if a.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	a.ensureOnce.Do(func() {
		exists, err := a.client.BucketExists(ctx, a.bucket)
		if err != nil {
			a.ensureErr = err
			return
		}
		if exists {
			return
		}
		a.ensureErr = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
	})

	if a.ensureErr != nil {
		return fmt.Errorf("ensure s3 bucket %q: %w", a.bucket, a.ensureErr)
	}

	return nil
}

func (a *S3Archive) Store(ctx context.Context, contentID, text string) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if strings.TrimSpace(contentID) == "" {
		return "", fmt.Errorf("content id is required")
	}

	if err := a.EnsureBucket(ctx); err != nil {
		return "", err
	}

	key := objectKey(contentID)

	// Write-once: a prior archive copy stays authoritative.
	if _, err := a.client.StatObject(ctx, a.bucket, key, minio.StatObjectOptions{}); err == nil {
		return key, nil
	} else if !isNotFound(err) {
		return "", fmt.Errorf("stat archive object: %w", err)
	}

	body := []byte(text)
	if _, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	}); err != nil {
		return "", fmt.Errorf("put archive object: %w", err)
	}

	return key, nil
}

func (a *S3Archive) Retrieve(ctx context.Context, contentID string) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if strings.TrimSpace(contentID) == "" {
		return "", fmt.Errorf("content id is required")
	}

	object, err := a.client.GetObject(ctx, a.bucket, objectKey(contentID), minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("get archive object: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("read archive object: %w", err)
	}

	return string(data), nil
}

func (a *S3Archive) Delete(ctx context.Context, contentID string) error {
	if a.client == nil || strings.TrimSpace(contentID) == "" {
		return nil
	}

	if err := a.client.RemoveObject(ctx, a.bucket, objectKey(contentID), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete archive object: %w", err)
	}
	return nil
}

func objectKey(contentID string) string {
	return path.Join("moderation", contentID+".txt")
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == 404
	}
	return false
}
