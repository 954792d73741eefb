package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"songservice/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并在事件频道上完成一次发布/订阅。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Redis配置: %s:%s, DB: %d, Channel: %s\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB, cfg.RedisChannel)
		if !cfg.UseRedis() {
			log.Fatal("REDIS_HOST is not set")
		}

		client, err := db.ConnectRedis(cfg)
		if err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		defer client.Close()
		fmt.Println("Redis连接成功！")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.CheckRedis(ctx, client, cfg.RedisChannel); err != nil {
			log.Fatalf("Redis发布/订阅测试失败: %v", err)
		}
		fmt.Println("Redis发布/订阅测试成功！")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
