package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultS3Prefix = "reports"

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Prefix is prepended to every object key; "reports" when empty.
	Prefix string
}

// S3Store keeps each run's report files under <prefix>/<run id>/ in one
// bucket. Objects carry the run id as user metadata.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
	prefix string

	mu    sync.Mutex
	ready bool
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	var missing []string
	for name, v := range map[string]string{
		"endpoint":   cfg.Endpoint,
		"access key": cfg.AccessKey,
		"secret key": cfg.SecretKey,
		"bucket":     cfg.Bucket,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("archive: s3 %s required", strings.Join(missing, ", "))
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	prefix := strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	if prefix == "" {
		prefix = defaultS3Prefix
	}
	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: s3 client: %w", err)
	}
	return &S3Store{client: client, bucket: strings.TrimSpace(cfg.Bucket), region: region, prefix: prefix}, nil
}

// prepare creates the bucket on first use. A failed attempt is retried on
// the next call.
func (s *S3Store) prepare(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("archive: bucket %s: %w", s.bucket, err)
	}
	if !ok {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("archive: create bucket %s: %w", s.bucket, err)
		}
	}
	s.ready = true
	return nil
}

func (s *S3Store) runPrefix(runID string) string {
	return path.Join(s.prefix, runID) + "/"
}

func (s *S3Store) key(runID, name string) string {
	return s.runPrefix(runID) + strings.TrimLeft(name, "/")
}

func (s *S3Store) Put(ctx context.Context, runID, name string, content []byte) error {
	runID, name, err := checkKey(runID, name)
	if err != nil {
		return err
	}
	if err := s.prepare(ctx); err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, s.key(runID, name), bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{
			ContentType:  contentType(name),
			UserMetadata: map[string]string{"run-id": runID},
		})
	if err != nil {
		return fmt.Errorf("archive: put %s/%s: %w", runID, name, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, runID, name string) ([]byte, error) {
	runID, name, err := checkKey(runID, name)
	if err != nil {
		return nil, err
	}
	if err := s.prepare(ctx); err != nil {
		return nil, err
	}
	key := s.key(runID, name)
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("archive: stat %s: %w", key, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (s *S3Store) List(ctx context.Context, runID string) ([]string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}
	if err := s.prepare(ctx); err != nil {
		return nil, err
	}
	prefix := s.runPrefix(runID)
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		names = append(names, strings.TrimPrefix(obj.Key, prefix))
	}
	sort.Strings(names)
	return names, nil
}

// contentType maps report file extensions; wikitext is served as text.
func contentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return "application/json"
	case ".wiki", ".txt":
		return "text/plain; charset=utf-8"
	case ".diff":
		return "text/x-diff; charset=utf-8"
	}
	return "application/octet-stream"
}
