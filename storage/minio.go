package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"songservice/config"
	"songservice/logger"
	"songservice/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrSeedObjectMissing is returned when a MinIO seed source has no object key configured.
var ErrSeedObjectMissing = errors.New("SEED_OBJECT is not set")

// MinioSeedStore 从 MinIO 存储桶读取/上传种子文件
type MinioSeedStore struct {
	client *minio.Client
	bucket string
	object string
	region string
}

// NewMinioSeedStore 创建 MinIO 客户端，不会立即发起网络请求
func NewMinioSeedStore(cfg *config.Config) (*MinioSeedStore, error) {
	if cfg.MinioEndpoint == "" {
		return nil, errors.New("MINIO_ENDPOINT is not set")
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinioSeedStore{
		client: client,
		bucket: cfg.MinioBucket,
		object: cfg.SeedObject,
		region: cfg.MinioRegion,
	}, nil
}

// Object returns the configured seed object key.
func (s *MinioSeedStore) Object() string {
	return s.object
}

// EnsureBucket 检查存储桶是否存在，不存在则创建
func (s *MinioSeedStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		logger.Info("Bucket already exists", logger.String("bucket", s.bucket))
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	logger.Info("Created bucket", logger.String("bucket", s.bucket))
	return nil
}

// Load 读取种子对象并解析
func (s *MinioSeedStore) Load(ctx context.Context) ([]model.Song, error) {
	if s.object == "" {
		return nil, ErrSeedObjectMissing
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	object, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get seed object %s/%s: %w", s.bucket, s.object, err)
	}
	defer object.Close()

	// GetObject 是惰性的，真正的错误在读取时返回
	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed object %s/%s: %w", s.bucket, s.object, err)
	}

	songs, err := model.DecodeSongs(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed object %s/%s: %w", s.bucket, s.object, err)
	}
	return songs, nil
}

// Upload 把本地种子文件上传到配置的对象键，上传前校验内容格式
func (s *MinioSeedStore) Upload(ctx context.Context, localPath string) (int, error) {
	if s.object == "" {
		return 0, ErrSeedObjectMissing
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	songs, err := model.DecodeSongs(data)
	if err != nil {
		return 0, fmt.Errorf("refusing to upload invalid seed %s: %w", localPath, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload seed to %s/%s: %w", s.bucket, s.object, err)
	}
	return len(songs), nil
}

// NewSeedLoader 根据配置选择种子来源：配置了 SEED_OBJECT 和 MinIO 时走对象存储，否则读本地文件
func NewSeedLoader(cfg *config.Config) (SeedLoader, error) {
	if cfg.UseMinioSeed() {
		return NewMinioSeedStore(cfg)
	}
	return NewFileSeedLoader(cfg.SeedFile), nil
}
