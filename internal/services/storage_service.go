package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type StorageService interface {
	UploadFile(ctx context.Context, content io.Reader, size int64, contentType, filename, folder string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
}

var errForeignFile = errors.New("file url does not belong to this storage")

// UploadsPrefix is the path under which local uploads are served.
const UploadsPrefix = "/uploads"

// LocalStorageService writes uploads below a directory that the HTTP server
// exposes statically under UploadsPrefix.
type LocalStorageService struct {
	dir     string
	baseURL string
}

func NewLocalStorageService(dir, publicBaseURL string) (*LocalStorageService, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalStorageService{
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *LocalStorageService) UploadFile(ctx context.Context, content io.Reader, _ int64, _ string, filename, folder string) (string, error) {
	objectPath := path.Join(strings.Trim(folder, "/"), path.Base(filename))
	target := filepath.Join(s.dir, filepath.FromSlash(objectPath))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create upload folder: %w", err)
	}

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}

	return s.baseURL + UploadsPrefix + "/" + objectPath, nil
}

func (s *LocalStorageService) DeleteFile(ctx context.Context, fileURL string) error {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return fmt.Errorf("parse file url: %w", err)
	}
	if s.baseURL != "" && parsed.Host != "" && !strings.HasPrefix(fileURL, s.baseURL+UploadsPrefix+"/") {
		return errForeignFile
	}
	if !strings.HasPrefix(parsed.Path, UploadsPrefix+"/") {
		return errForeignFile
	}

	objectPath := path.Clean(strings.TrimPrefix(parsed.Path, UploadsPrefix+"/"))
	if objectPath == "." || strings.HasPrefix(objectPath, "..") {
		return errForeignFile
	}

	err = os.Remove(filepath.Join(s.dir, filepath.FromSlash(objectPath)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// MinioStorageService stores uploads in an S3 compatible bucket.
type MinioStorageService struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioStorageService(cfg MinioConfig) (*MinioStorageService, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("minio access key and secret key are required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("minio bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &MinioStorageService{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
	}, nil
}

// EnsureBucket creates the configured bucket when it is missing.
func (s *MinioStorageService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

func (s *MinioStorageService) UploadFile(ctx context.Context, content io.Reader, size int64, contentType, filename, folder string) (string, error) {
	key := path.Join(strings.Trim(folder, "/"), path.Base(filename))
	_, err := s.client.PutObject(ctx, s.bucket, key, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	return s.objectURL(key), nil
}

func (s *MinioStorageService) DeleteFile(ctx context.Context, fileURL string) error {
	key, err := s.keyFromURL(fileURL)
	if err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *MinioStorageService) objectURL(key string) string {
	return s.publicURL + "/" + s.bucket + "/" + key
}

func (s *MinioStorageService) keyFromURL(fileURL string) (string, error) {
	prefix := s.publicURL + "/" + s.bucket + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return "", errForeignFile
	}
	key := strings.TrimPrefix(fileURL, prefix)
	if key == "" {
		return "", errForeignFile
	}
	return key, nil
}
