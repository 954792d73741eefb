package cmd

import (
	"songservice/server"

	"github.com/spf13/cobra"
)

var serverPort string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动歌曲服务",
	Long:  `加载种子数据、重建 songs 集合，然后启动 HTTP 服务，收到 SIGINT/SIGTERM 后优雅退出。`,
	Run: func(cmd *cobra.Command, args []string) {
		if serverPort != "" {
			cfg.HTTPPort = serverPort
		}
		server.Start(cfg)
	},
}

func init() {
	serverCmd.Flags().StringVarP(&serverPort, "port", "p", "", "监听端口，覆盖 HTTP_PORT")
	rootCmd.AddCommand(serverCmd)
}
