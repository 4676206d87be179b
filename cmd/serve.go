package cmd

import (
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/server"
	"github.com/spf13/cobra"
)

var srvAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve upload and analysis endpoints over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := current()
		dsOpt, err := c.DatasetOptions()
		if err != nil {
			return err
		}
		aOpt := analysis.DefaultOptions()
		aOpt.Fields = c.Fields()
		aOpt.SampleRows = c.SampleRows
		aOpt.Workers = c.Workers

		opt := server.Options{
			Addr:           c.ListenAddr,
			MaxUploadBytes: int64(c.MaxUploadMB) << 20,
			RateLimitRPS:   c.RateLimitRPS,
			RateLimitBurst: c.RateLimitBurst,
			CORSOrigins:    c.CORSOrigins,
			Dataset:        dsOpt,
			Analysis:       aOpt,
			Logger:         slog.Default(),
		}
		if cmd.Flags().Changed("addr") {
			opt.Addr = srvAddr
		}
		fmt.Printf("✓ Serving on http://%s (POST /api/upload, POST /api/analyze, GET /metrics)\n", opt.Addr)
		return server.New(opt).ListenAndServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (overrides listen_addr)")
}
