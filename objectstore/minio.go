package objectstore

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewClient(cfg Config) (*minio.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	}
	return minio.New(cfg.Endpoint, opts)
}

// Upload is one file to publish.
type Upload struct {
	Path string
	Key  string
}

// Uploads lists every regular file under dir with the object key it is
// published under: prefix joined with the slash-separated relative path.
func Uploads(dir, prefix string) ([]Upload, error) {
	var out []Upload
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		out = append(out, Upload{Path: p, Key: path.Join(prefix, filepath.ToSlash(rel))})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	return out, nil
}

// PublishDir uploads every file under dir to the configured bucket, creating
// the bucket if it does not exist. It returns the keys written.
func PublishDir(ctx context.Context, client *minio.Client, cfg Config, dir, prefix string) ([]string, error) {
	uploads, err := Uploads(dir, prefix)
	if err != nil {
		return nil, err
	}
	if err := ensureBucket(ctx, client, cfg.Bucket, cfg.Region); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, err)
	}

	keys := make([]string, 0, len(uploads))
	for _, u := range uploads {
		contentType := mime.TypeByExtension(filepath.Ext(u.Path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if _, err := client.FPutObject(ctx, cfg.Bucket, u.Key, u.Path, minio.PutObjectOptions{ContentType: contentType}); err != nil {
			return keys, fmt.Errorf("uploading %s: %w", u.Key, err)
		}
		keys = append(keys, u.Key)
	}
	return keys, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string, region string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
