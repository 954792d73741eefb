package storage

import (
	"context"
	"fmt"
	"os"

	"songservice/model"
)

// SeedLoader 负责读取启动时写入集合的种子数据
type SeedLoader interface {
	Load(ctx context.Context) ([]model.Song, error)
}

// FileSeedLoader reads the seed from a local JSON file.
type FileSeedLoader struct {
	Path string
}

// NewFileSeedLoader creates a loader for a local seed file.
func NewFileSeedLoader(path string) *FileSeedLoader {
	return &FileSeedLoader{Path: path}
}

// Load 读取并解析种子文件
func (l *FileSeedLoader) Load(_ context.Context) ([]model.Song, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", l.Path, err)
	}
	songs, err := model.DecodeSongs(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", l.Path, err)
	}
	return songs, nil
}
