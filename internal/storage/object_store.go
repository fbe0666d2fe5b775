package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/config"
)

// ObjectStore wraps the S3-compatible bucket pair: uploaded case documents and
// snapshot slots.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.cfg.BucketDocuments, s.cfg.BucketSnapshots} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("bucket exists %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

func (s *ObjectStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.cfg.BucketDocuments)
	return err
}

// PutDocument stores an uploaded case document under key.
func (s *ObjectStore) PutDocument(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.cfg.BucketDocuments, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put document %s: %w", key, err)
	}
	return nil
}

func (s *ObjectStore) RemoveDocument(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.BucketDocuments, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove document %s: %w", key, err)
	}
	return nil
}

func (s *ObjectStore) Slot(name string) *ObjectSlot {
	return &ObjectSlot{client: s.client, bucket: s.cfg.BucketSnapshots, key: name + ".json"}
}

// ObjectSlot keeps a snapshot as a single object in the snapshots bucket.
type ObjectSlot struct {
	client *minio.Client
	bucket string
	key    string
}

func (s *ObjectSlot) Name() string {
	return "object:" + s.bucket + "/" + s.key
}

func (s *ObjectSlot) Load(ctx context.Context) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", s.key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrSlotEmpty
		}
		return nil, fmt.Errorf("read object %s: %w", s.key, err)
	}
	if len(data) == 0 {
		return nil, ErrSlotEmpty
	}
	return data, nil
}

func (s *ObjectSlot) Save(ctx context.Context, payload []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		if code := minio.ToErrorResponse(err).Code; code == "QuotaExceeded" || code == "EntityTooLarge" {
			return fmt.Errorf("put object %s: %w", s.key, ErrQuotaExceeded)
		}
		return fmt.Errorf("put object %s: %w", s.key, err)
	}
	return nil
}
