package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
)

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ObjectInfo 种子对象信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Add 累加一个对象到统计
func (s *BucketStats) Add(obj ObjectInfo) {
	s.TotalObjects++
	s.TotalSize += obj.Size
	if obj.LastModified.After(s.LastModified) {
		s.LastModified = obj.LastModified
	}
}

// ListSeedObjects 列出存储桶中指定前缀下的对象
func (s *MinioSeedStore) ListSeedObjects(ctx context.Context, prefix string) ([]ObjectInfo, *BucketStats, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return nil, nil, fmt.Errorf("bucket %s does not exist", s.bucket)
	}

	stats := &BucketStats{}
	var objects []ObjectInfo

	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("failed to list objects in %s: %w", s.bucket, object.Err)
		}
		info := ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		}
		stats.Add(info)
		objects = append(objects, info)
	}

	return objects, stats, nil
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
