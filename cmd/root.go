package cmd

import (
	"fmt"
	"os"

	"songservice/config"
	"songservice/logger"
	"songservice/server"

	"github.com/spf13/cobra"
)

// cfg 在 PersistentPreRunE 中加载，所有子命令共享
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "songservice",
	Short: "songservice is a CRUD HTTP service for a MongoDB songs collection.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		return logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
			Compress:   cfg.LogCompress,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(cfg)
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
