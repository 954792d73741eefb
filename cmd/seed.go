package cmd

import (
	"context"
	"fmt"
	"time"

	"songservice/db"
	"songservice/logger"
	"songservice/repository"
	"songservice/server"
	"songservice/storage"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "重建 songs 集合",
	Long:  `删除 songs 集合并重新写入种子数据，不启动 HTTP 服务。`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cfg.Validate(); err != nil {
			logger.Fatal("Invalid configuration", logger.ErrorField(err))
		}

		loader, err := storage.NewSeedLoader(cfg)
		if err != nil {
			logger.Fatal("Failed to initialize seed source", logger.ErrorField(err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		client, err := db.ConnectMongo(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to connect to database", logger.ErrorField(err))
		}
		defer db.DisconnectMongo(client)

		repo := repository.NewMongoSongRepository(db.SongsCollectionFor(client, cfg))
		n, err := server.SeedSongs(ctx, repo, loader)
		if err != nil {
			logger.Fatal("Seeding failed", logger.ErrorField(err))
		}
		fmt.Printf("Seeded %d songs into %s.%s\n", n, cfg.MongoDatabase, db.SongsCollection)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
