package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"songservice/storage"

	"github.com/spf13/cobra"
)

var (
	minioUpload string
	minioList   bool
	minioPrefix string
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO种子数据管理",
	Long:  `检查种子数据所在的存储桶（不存在则创建），可选地上传本地种子文件到 SEED_OBJECT。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MinIO配置: %s, Bucket: %s, Object: %s\n", cfg.MinioEndpoint, cfg.MinioBucket, cfg.SeedObject)

		store, err := storage.NewMinioSeedStore(cfg)
		if err != nil {
			log.Fatalf("创建MinIO客户端失败: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatalf("检查存储桶失败: %v", err)
		}

		if minioList {
			printSeedObjects(ctx, store, minioPrefix)
			return
		}

		if minioUpload != "" {
			n, err := store.Upload(ctx, minioUpload)
			if err != nil {
				log.Fatalf("上传种子文件失败: %v", err)
			}
			fmt.Printf("已上传 %d 首歌曲到 %s/%s\n", n, cfg.MinioBucket, store.Object())
			return
		}

		songs, err := store.Load(ctx)
		if err != nil {
			log.Fatalf("读取种子对象失败: %v", err)
		}
		fmt.Printf("种子对象包含 %d 首歌曲\n", len(songs))
	},
}

// printSeedObjects 打印存储桶状态
func printSeedObjects(ctx context.Context, store *storage.MinioSeedStore, prefix string) {
	objects, stats, err := store.ListSeedObjects(ctx, prefix)
	if err != nil {
		log.Fatalf("列出种子对象失败: %v", err)
	}

	fmt.Printf("存储桶: %s\n", cfg.MinioBucket)
	fmt.Printf("前缀过滤: %s\n", prefix)
	fmt.Printf("对象数量: %d\n", stats.TotalObjects)
	fmt.Printf("总大小: %s\n", storage.FormatSize(stats.TotalSize))
	if stats.TotalObjects > 0 {
		fmt.Printf("最后修改时间: %s\n", stats.LastModified.Format(time.RFC3339))
	}
	for _, obj := range objects {
		fmt.Printf("  ├─ %s (%s, %s)\n", obj.Key, storage.FormatSize(obj.Size), obj.LastModified.Format("2006-01-02 15:04:05"))
	}
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioUpload, "upload", "u", "", "上传本地种子文件")
	minioCmd.Flags().BoolVarP(&minioList, "list", "l", false, "列出存储桶中的种子对象")
	minioCmd.Flags().StringVar(&minioPrefix, "prefix", "", "列出对象时的前缀过滤")

	minioCmd.Example = `  # 检查存储桶与种子对象
  songservice minio

  # 上传本地种子文件
  songservice minio -u data/songs.json

  # 列出 seeds/ 前缀下的对象
  songservice minio -l --prefix seeds/`
}
