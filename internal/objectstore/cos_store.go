// Package objectstore provides the object storage backends for audio
// segments and book documents: Tencent COS through its S3-compatible API,
// and a NATS JetStream store for single-binary dev deployments.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// CosConfig holds the settings for a COS-backed object store. Endpoint is
// normally empty and derived from the region; setting it (e.g. for MinIO or
// a test server) switches the client to path-style addressing.
type CosConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	SecretID      string
	SecretKey     string
	PublicBaseURL string
}

// CosObjectStore implements core.ObjectStore against Tencent COS, which
// exposes an S3-compatible API. Objects are assumed publicly readable once
// written; no signed-URL or ACL logic exists here.
type CosObjectStore struct {
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string
}

// NewCos creates a COS-backed object store.
func NewCos(cfg CosConfig) *CosObjectStore {
	endpoint := cfg.Endpoint
	usePathStyle := false

	if endpoint == "" {
		endpoint = fmt.Sprintf("https://cos.%s.myqcloud.com", cfg.Region)
	} else {
		usePathStyle = true
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.SecretID, cfg.SecretKey, ""),
		),
		UsePathStyle: usePathStyle,
	})

	return &CosObjectStore{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		publicBaseURL: cfg.PublicBaseURL,
	}
}

// Upload stores an object under the given key with the given content type.
// Writing an existing key replaces the object.
func (c *CosObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, c.bucket, err)
	}

	return nil
}

// Download retrieves an object by key.
func (c *CosObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, c.bucket, err)
	}

	data, readErr := io.ReadAll(out.Body)
	closeErr := out.Body.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// List returns the keys of all objects under the given prefix.
func (c *CosObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix '%s': %w", prefix, err)
		}

		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return keys, nil
}

// PublicURL returns the stable public URL for a key. For public COS buckets
// the URL format is https://{bucket}.cos.{region}.myqcloud.com/{key}; a
// configured public base URL overrides it.
func (c *CosObjectStore) PublicURL(key string) string {
	if c.publicBaseURL != "" {
		return strings.TrimRight(c.publicBaseURL, "/") + "/" + key
	}

	return fmt.Sprintf("https://%s.cos.%s.myqcloud.com/%s", c.bucket, c.region, key)
}
