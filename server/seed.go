package server

import (
	"context"
	"fmt"

	"songservice/logger"
	"songservice/repository"
	"songservice/storage"
)

// SeedSongs 读取种子数据，删除旧集合并批量写入，返回写入数量
func SeedSongs(ctx context.Context, repo repository.SongRepository, loader storage.SeedLoader) (int, error) {
	songs, err := loader.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load seed data: %w", err)
	}

	if err := repo.Reset(ctx, songs); err != nil {
		return 0, fmt.Errorf("failed to seed songs collection: %w", err)
	}

	logger.Info("Songs collection seeded", logger.Int("count", len(songs)))
	return len(songs), nil
}
